// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2021 MfgLedger Project
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package projection

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // register cgo-free sqlite driver

	"github.com/mfgledger/mfgledgerd/fault"
)

// supported database dialects
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Store - a connection-pooled projection database
type Store struct {
	db      *sql.DB
	dialect string
}

// Open - connect to the projection database and ensure the schema
//
// dialect selects the backend; dsn is driver specific (a postgres URL
// or an sqlite file path / ":memory:")
func Open(dialect string, dsn string) (*Store, error) {

	var driver string
	switch dialect {
	case DialectPostgres:
		driver = "pgx"
	case DialectSQLite:
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("projection: unsupported dialect: %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if nil != err {
		return nil, fault.TransientError(fmt.Sprintf("projection: open: %s", err))
	}

	if DialectSQLite == dialect {
		// an sqlite connection owns its database when dsn is
		// ":memory:" and its write lock otherwise, so the pool must
		// not fan out
		db.SetMaxOpenConns(1)
	}

	s := &Store{
		db:      db,
		dialect: dialect,
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); nil != err {
		db.Close()
		return nil, fault.TransientError(fmt.Sprintf("projection: ping: %s", err))
	}

	if err := s.ensureSchema(ctx); nil != err {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close - release the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// per-dialect column fragments
func (s *Store) idColumn() string {
	if DialectPostgres == s.dialect {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (s *Store) blobColumn() string {
	if DialectPostgres == s.dialect {
		return "BYTEA"
	}
	return "BLOB"
}

func (s *Store) boolColumn() string {
	if DialectPostgres == s.dialect {
		return "BOOLEAN"
	}
	return "INTEGER"
}

func (s *Store) ensureSchema(ctx context.Context) error {

	statements := []string{
		`CREATE TABLE IF NOT EXISTS batch (
			id ` + s.idColumn() + `,
			batch_id TEXT NOT NULL,
			batch_address TEXT NOT NULL,
			namespace TEXT NOT NULL,
			owner TEXT NOT NULL,
			start_commit_num BIGINT NOT NULL,
			end_commit_num BIGINT NOT NULL,
			service_id TEXT NOT NULL DEFAULT '',
			last_updated BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS batch_property_value (
			id ` + s.idColumn() + `,
			batch_id TEXT NOT NULL,
			batch_address TEXT NOT NULL,
			property_name TEXT NOT NULL,
			parent_property TEXT NOT NULL DEFAULT '',
			data_type TEXT NOT NULL,
			bytes_value ` + s.blobColumn() + `,
			boolean_value ` + s.boolColumn() + `,
			number_value BIGINT,
			string_value TEXT,
			enum_value INTEGER,
			latitude_value BIGINT CHECK (latitude_value IS NULL
				OR latitude_value BETWEEN -90000000 AND 90000000),
			longitude_value BIGINT CHECK (longitude_value IS NULL
				OR longitude_value BETWEEN -180000000 AND 180000000),
			start_commit_num BIGINT NOT NULL,
			end_commit_num BIGINT NOT NULL,
			service_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS projection_checkpoint (
			service_id TEXT PRIMARY KEY,
			commit_num BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS batch_current_idx
			ON batch (batch_id, service_id, end_commit_num)`,
		`CREATE INDEX IF NOT EXISTS batch_address_idx
			ON batch (batch_address, end_commit_num)`,
		`CREATE INDEX IF NOT EXISTS batch_property_current_idx
			ON batch_property_value (batch_id, service_id, end_commit_num)`,
		`CREATE INDEX IF NOT EXISTS batch_property_address_idx
			ON batch_property_value (batch_address, end_commit_num)`,
	}

	for _, statement := range statements {
		_, err := s.db.ExecContext(ctx, statement)
		if nil != err {
			return fault.ProcessError(fmt.Sprintf("projection: schema: %s", err))
		}
	}
	return nil
}

// rebind - convert "?" placeholders to "$n" for postgres
func (s *Store) rebind(query string) string {
	if DialectPostgres != s.dialect {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i += 1 {
		if '?' == query[i] {
			n += 1
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}

// begin a transaction; failure to begin is a resource problem, not a
// data problem
func (s *Store) begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if nil != err {
		return nil, fault.TransientError(fmt.Sprintf("projection: begin: %s", err))
	}
	return tx, nil
}
