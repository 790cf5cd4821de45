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
	"fmt"
	"strconv"
)

// dialect holds what SQLite and PostgreSQL disagree on. Everything else,
// upserts and DELETE ... RETURNING included, is shared SQL.
type dialect struct {
	name   string
	serial string
	param  func(n int) string
}

var (
	sqliteDialect = dialect{
		name:   "sqlite",
		serial: "INTEGER PRIMARY KEY AUTOINCREMENT",
		param:  func(int) string { return "?" },
	}
	postgresDialect = dialect{
		name:   "postgres",
		serial: "BIGSERIAL PRIMARY KEY",
		param:  func(n int) string { return "$" + strconv.Itoa(n) },
	}
)

type statements struct {
	schema []string

	touchSession       string
	insertMessage      string
	selectAll          string
	selectLatest       string
	popLatest          string
	deleteMessages     string
	deleteEmptySession string
	listSessions       string
}

// sql expands the placeholders $1..$9 of query into the dialect's own.
func (d dialect) sql(query string) string {
	out := make([]byte, 0, len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '1' && query[i+1] <= '9' {
			out = append(out, d.param(int(query[i+1]-'0'))...)
			i++
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

func (d dialect) statements(sessions, messages string) statements {
	f := func(format string, a ...any) string { return d.sql(fmt.Sprintf(format, a...)) }
	return statements{
		schema: []string{
			f(`CREATE TABLE IF NOT EXISTS %s (
				session_id TEXT PRIMARY KEY,
				created_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL
			)`, sessions),
			f(`CREATE TABLE IF NOT EXISTS %s (
				id %s,
				session_id TEXT NOT NULL REFERENCES %s (session_id) ON DELETE CASCADE,
				agent TEXT NOT NULL,
				message_data TEXT NOT NULL,
				created_at BIGINT NOT NULL
			)`, messages, d.serial, sessions),
			f(`CREATE INDEX IF NOT EXISTS idx_%s_conversation ON %s (session_id, agent, id)`, messages, messages),
		},
		touchSession: f(`INSERT INTO %s (session_id, created_at, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (session_id) DO UPDATE SET updated_at = excluded.updated_at`, sessions),
		insertMessage: f(`INSERT INTO %s (session_id, agent, message_data, created_at) VALUES ($1, $2, $3, $4)`, messages),
		selectAll: f(`SELECT message_data FROM %s
			WHERE session_id = $1 AND agent = $2
			ORDER BY id ASC`, messages),
		selectLatest: f(`SELECT message_data FROM %s
			WHERE session_id = $1 AND agent = $2
			ORDER BY id DESC
			LIMIT $3`, messages),
		popLatest: f(`DELETE FROM %s
			WHERE id = (
				SELECT id FROM %s
				WHERE session_id = $1 AND agent = $2
				ORDER BY id DESC
				LIMIT 1
			)
			RETURNING message_data`, messages, messages),
		deleteMessages: f(`DELETE FROM %s WHERE session_id = $1 AND agent = $2`, messages),
		deleteEmptySession: f(`DELETE FROM %s
			WHERE session_id = $1
			AND NOT EXISTS (SELECT 1 FROM %s WHERE session_id = $2)`, sessions, messages),
		listSessions: f(`SELECT s.session_id, s.created_at, s.updated_at, m.agent, COUNT(m.id)
			FROM %s s JOIN %s m ON m.session_id = s.session_id
			GROUP BY s.session_id, s.created_at, s.updated_at, m.agent
			ORDER BY s.updated_at DESC, s.session_id DESC, m.agent ASC`, sessions, messages),
	}
}
