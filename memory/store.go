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
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/nlpodyssey/productintel/types/message"
)

// A Store hands out the conversations of the agents taking part in a run.
type Store interface {
	// Conversation opens the history of agent within sessionID.
	Conversation(ctx context.Context, sessionID, agent string) (Session, error)

	// Sessions lists the stored sessions, most recently updated first.
	Sessions(ctx context.Context) ([]SessionInfo, error)

	Close() error
}

// SessionInfo summarizes a stored analysis session.
type SessionInfo struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	// Number of stored items per agent.
	Agents map[string]int
}

// AgentNames returns the agents of the session in alphabetical order.
func (s SessionInfo) AgentNames() []string {
	names := make([]string, 0, len(s.Agents))
	for name := range s.Agents {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendNone     Backend = "none"
)

const (
	defaultSessionsTable = "analysis_sessions"
	defaultMessagesTable = "agent_messages"
	sqliteFileName       = "sessions.db"
)

type StoreParams struct {
	Backend Backend

	// Directory of the SQLite database file "sessions.db".
	SessionsDir string

	// PostgreSQL connection string, required by BackendPostgres.
	PostgresDSN string
}

// OpenStore opens the session store of the configured backend.
// BackendNone yields a nil Store and no error: runs keep no history.
func OpenStore(ctx context.Context, params StoreParams) (Store, error) {
	switch params.Backend {
	case BackendNone:
		return nil, nil
	case BackendSQLite, "":
		dir := cmp.Or(params.SessionsDir, "sessions")
		store, err := OpenSQLite(ctx, filepath.Join(dir, sqliteFileName))
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendPostgres:
		if params.PostgresDSN == "" {
			return nil, errors.New("postgres session backend requires a connection string")
		}
		store, err := OpenPostgres(ctx, params.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", params.Backend)
	}
}

// OpenSQLite opens (or creates) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New("sqlite session store requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	db, err := openSQLiteDB(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database: %w", err)
	}
	return newSQLStore(ctx, sqlStoreParams{DB: db, Dialect: sqliteDialect})
}

// OpenPostgres connects a pool to the PostgreSQL database at dsn.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := openPostgresDB(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return newSQLStore(ctx, sqlStoreParams{DB: db, Dialect: postgresDialect})
}

// SQLStore keeps every conversation in two tables: one row per session and
// one row per stored item.
type SQLStore struct {
	db      DB
	dialect dialect
	stmt    statements
	now     func() time.Time
}

type sqlStoreParams struct {
	DB      DB
	Dialect dialect

	// Optional table names. Default to "analysis_sessions" and
	// "agent_messages".
	SessionsTable string
	MessagesTable string

	// Optional clock of the created_at/updated_at columns.
	Now func() time.Time
}

// newSQLStore creates the schema if needed. The store owns params.DB and
// closes it on Close, also when newSQLStore fails.
func newSQLStore(ctx context.Context, params sqlStoreParams) (*SQLStore, error) {
	s := &SQLStore{
		db:      params.DB,
		dialect: params.Dialect,
		stmt: params.Dialect.statements(
			cmp.Or(params.SessionsTable, defaultSessionsTable),
			cmp.Or(params.MessagesTable, defaultMessagesTable),
		),
		now: params.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, q := range s.stmt.schema {
		if err := s.db.Exec(ctx, q); err != nil {
			return nil, errors.Join(fmt.Errorf("error creating %s session schema: %w", s.dialect.name, err), s.db.Close())
		}
	}
	return s, nil
}

func (s *SQLStore) Conversation(_ context.Context, sessionID, agent string) (Session, error) {
	if sessionID == "" || agent == "" {
		return nil, errors.New("a conversation needs both a session ID and an agent")
	}
	return &Conversation{store: s, sessionID: sessionID, agent: agent}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) items(ctx context.Context, sessionID, agent string, limit int) (_ []message.Item, err error) {
	var rows Rows
	if limit <= 0 {
		rows, err = s.db.Query(ctx, s.stmt.selectAll, sessionID, agent)
	} else {
		rows, err = s.db.Query(ctx, s.stmt.selectLatest, sessionID, agent, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying session items: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, e)
		}
	}()

	var items []message.Item
	for rows.Next() {
		var data string
		if err = rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("error scanning session item: %w", err)
		}
		item, err := message.Unmarshal([]byte(data))
		if err != nil {
			continue // corrupted rows are skipped
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading session items: %w", err)
	}
	if limit > 0 {
		slices.Reverse(items)
	}
	// A function call output must follow its call.
	return message.TrimLeadingOrphans(items), nil
}

func (s *SQLStore) addItems(ctx context.Context, sessionID, agent string, items []message.Item) error {
	if len(items) == 0 {
		return nil
	}
	encoded := make([]string, len(items))
	for i, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("error JSON marshaling item: %w", err)
		}
		encoded[i] = string(b)
	}

	now := s.now().Unix()
	return s.db.Tx(ctx, func(tx DB) error {
		if err := tx.Exec(ctx, s.stmt.touchSession, sessionID, now, now); err != nil {
			return fmt.Errorf("error updating session: %w", err)
		}
		for _, data := range encoded {
			if err := tx.Exec(ctx, s.stmt.insertMessage, sessionID, agent, data, now); err != nil {
				return fmt.Errorf("error inserting session item: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) popItem(ctx context.Context, sessionID, agent string) (*message.Item, error) {
	var data string
	err := s.db.QueryRow(ctx, s.stmt.popLatest, sessionID, agent).Scan(&data)
	if errors.Is(err, errNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error popping session item: %w", err)
	}
	item, err := message.Unmarshal([]byte(data))
	if err != nil {
		return nil, nil // the corrupted row is gone anyway
	}
	return &item, nil
}

// clear removes one agent's history, and the session itself once no agent
// has any left.
func (s *SQLStore) clear(ctx context.Context, sessionID, agent string) error {
	return s.db.Tx(ctx, func(tx DB) error {
		if err := tx.Exec(ctx, s.stmt.deleteMessages, sessionID, agent); err != nil {
			return fmt.Errorf("error clearing session items: %w", err)
		}
		if err := tx.Exec(ctx, s.stmt.deleteEmptySession, sessionID, sessionID); err != nil {
			return fmt.Errorf("error removing empty session: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) Sessions(ctx context.Context) (_ []SessionInfo, err error) {
	rows, err := s.db.Query(ctx, s.stmt.listSessions)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, e)
		}
	}()

	var infos []SessionInfo
	for rows.Next() {
		var (
			id, agent        string
			created, updated int64
			count            int64
		)
		if err = rows.Scan(&id, &created, &updated, &agent, &count); err != nil {
			return nil, fmt.Errorf("error scanning session: %w", err)
		}
		if n := len(infos); n == 0 || infos[n-1].ID != id {
			infos = append(infos, SessionInfo{
				ID:        id,
				CreatedAt: time.Unix(created, 0),
				UpdatedAt: time.Unix(updated, 0),
				Agents:    make(map[string]int),
			})
		}
		infos[len(infos)-1].Agents[agent] = int(count)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	return infos, nil
}
