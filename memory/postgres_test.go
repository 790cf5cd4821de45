// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nlpodyssey/productintel/types/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, query string, args ...any) error {
	return m.Called(append([]any{query}, args...)...).Error(0)
}

func (m *mockDB) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	ret := m.Called(append([]any{query}, args...)...)
	rows, _ := ret.Get(0).(Rows)
	return rows, ret.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, query string, args ...any) Row {
	return m.Called(append([]any{query}, args...)...).Get(0).(Row)
}

func (m *mockDB) Tx(ctx context.Context, fn func(DB) error) error {
	m.Called()
	return fn(m)
}

func (m *mockDB) Close() error {
	return m.Called().Error(0)
}

type fakeRows struct {
	data []string
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	*dest[0].(*string) = r.data[r.pos-1]
	return nil
}

func (r *fakeRows) Err() error   { return nil }
func (r *fakeRows) Close() error { return nil }

type fakeRow struct {
	data string
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.data
	return nil
}

var pgStmt = postgresDialect.statements(defaultSessionsTable, defaultMessagesTable)

func newMockPgStore(t *testing.T, db *mockDB) *SQLStore {
	t.Helper()
	for _, q := range pgStmt.schema {
		db.On("Exec", q).Return(nil).Once()
	}
	store, err := newSQLStore(t.Context(), sqlStoreParams{
		DB:      db,
		Dialect: postgresDialect,
		Now:     func() time.Time { return time.Unix(1_750_000_000, 0) },
	})
	require.NoError(t, err)
	return store
}

func encode(t *testing.T, item message.Item) string {
	t.Helper()
	b, err := json.Marshal(item)
	require.NoError(t, err)
	return string(b)
}

func TestPostgresDialect(t *testing.T) {
	assert.Contains(t, pgStmt.schema[1], "id BIGSERIAL PRIMARY KEY")
	assert.Contains(t, pgStmt.insertMessage, "VALUES ($1, $2, $3, $4)")
	assert.Contains(t, pgStmt.selectLatest, "LIMIT $3")

	lite := sqliteDialect.statements(defaultSessionsTable, defaultMessagesTable)
	assert.Contains(t, lite.schema[1], "id INTEGER PRIMARY KEY AUTOINCREMENT")
	assert.Contains(t, lite.insertMessage, "VALUES (?, ?, ?, ?)")
	assert.NotContains(t, lite.popLatest, "$")
}

func TestDialect_sql(t *testing.T) {
	assert.Equal(t, "a = ? AND b = ? AND c = '$x'", sqliteDialect.sql("a = $1 AND b = $2 AND c = '$x'"))
	assert.Equal(t, "a = $1 AND b = $2", postgresDialect.sql("a = $1 AND b = $2"))
}

func TestPostgresStore_AddItems(t *testing.T) {
	db := &mockDB{}
	store := newMockPgStore(t, db)
	s, err := store.Conversation(t.Context(), "s1", "competitor")
	require.NoError(t, err)

	items := []message.Item{message.UserMessage("rivals?"), message.AssistantMessage("Nike, Puma")}
	db.On("Tx").Return().Once()
	db.On("Exec", pgStmt.touchSession, "s1", int64(1_750_000_000), int64(1_750_000_000)).Return(nil).Once()
	for _, item := range items {
		db.On("Exec", pgStmt.insertMessage, "s1", "competitor", encode(t, item), int64(1_750_000_000)).Return(nil).Once()
	}

	require.NoError(t, s.AddItems(t.Context(), items))
	db.AssertExpectations(t)
}

func TestPostgresStore_AddItemsError(t *testing.T) {
	db := &mockDB{}
	store := newMockPgStore(t, db)
	s, err := store.Conversation(t.Context(), "s1", "product")
	require.NoError(t, err)

	db.On("Tx").Return().Once()
	db.On("Exec", pgStmt.touchSession, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	err = s.AddItems(t.Context(), []message.Item{message.UserMessage("hi")})
	assert.ErrorContains(t, err, "connection reset")
	db.AssertNotCalled(t, "Exec", pgStmt.insertMessage, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostgresStore_GetItems(t *testing.T) {
	db := &mockDB{}
	store := newMockPgStore(t, db)
	s, err := store.Conversation(t.Context(), "s1", "sentiment")
	require.NoError(t, err)

	first, second := message.UserMessage("reviews?"), message.AssistantMessage("8/10")
	db.On("Query", pgStmt.selectAll, "s1", "sentiment").
		Return(&fakeRows{data: []string{encode(t, first), "not json", encode(t, second)}}, nil).Once()
	items, err := s.GetItems(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, []message.Item{first, second}, items)

	// Newest first from the database, chronological for the caller.
	db.On("Query", pgStmt.selectLatest, "s1", "sentiment", 2).
		Return(&fakeRows{data: []string{encode(t, second), encode(t, first)}}, nil).Once()
	items, err = s.GetItems(t.Context(), 2)
	require.NoError(t, err)
	assert.Equal(t, []message.Item{first, second}, items)

	db.On("Query", pgStmt.selectAll, "s2", "sentiment").Return(nil, errors.New("timeout")).Once()
	s2, err := store.Conversation(t.Context(), "s2", "sentiment")
	require.NoError(t, err)
	_, err = s2.GetItems(t.Context(), 0)
	assert.ErrorContains(t, err, "timeout")
	db.AssertExpectations(t)
}

func TestPostgresStore_PopItem(t *testing.T) {
	db := &mockDB{}
	store := newMockPgStore(t, db)
	s, err := store.Conversation(t.Context(), "s1", "product")
	require.NoError(t, err)

	db.On("QueryRow", pgStmt.popLatest, "s1", "product").Return(fakeRow{err: errNoRows}).Once()
	item, err := s.PopItem(t.Context())
	require.NoError(t, err)
	assert.Nil(t, item)

	db.On("QueryRow", pgStmt.popLatest, "s1", "product").Return(fakeRow{data: encode(t, message.AssistantMessage("$100"))}).Once()
	item, err = s.PopItem(t.Context())
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "$100", item.Content)
	db.AssertExpectations(t)
}

func TestPostgresStore_ClearSession(t *testing.T) {
	db := &mockDB{}
	store := newMockPgStore(t, db)
	s, err := store.Conversation(t.Context(), "s1", "product")
	require.NoError(t, err)

	db.On("Tx").Return().Once()
	db.On("Exec", pgStmt.deleteMessages, "s1", "product").Return(nil).Once()
	db.On("Exec", pgStmt.deleteEmptySession, "s1", "s1").Return(nil).Once()
	require.NoError(t, s.ClearSession(t.Context()))
	db.AssertExpectations(t)
}

func TestPostgresStore_SchemaError(t *testing.T) {
	db := &mockDB{}
	db.On("Exec", pgStmt.schema[0]).Return(errors.New("permission denied")).Once()
	db.On("Close").Return(nil).Once()

	_, err := newSQLStore(t.Context(), sqlStoreParams{DB: db, Dialect: postgresDialect})
	assert.ErrorContains(t, err, "error creating postgres session schema: permission denied")
	db.AssertExpectations(t)
}

func TestOpenPostgres_BadDSN(t *testing.T) {
	_, err := OpenPostgres(t.Context(), "postgres://%zz")
	assert.ErrorContains(t, err, "failed to connect to PostgreSQL")
}
