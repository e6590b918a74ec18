/*
 * sqlite.go, part of dunbrack.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, e Entry) (Entry, error) {
	db, err := s.getDB()
	if err != nil {
		return Entry{}, err
	}
	if e.Name == "" {
		return Entry{}, errors.New("entry name is required")
	}
	e.ID = uuid.NewString()
	e.Created = time.Now().UTC()

	_, err = db.ExecContext(ctx, `
		INSERT INTO libraries (name, id, class, format, created, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			id = excluded.id,
			class = excluded.class,
			format = excluded.format,
			created = excluded.created,
			payload = excluded.payload
	`, e.Name, e.ID, e.Class, e.Format, e.Created.Format(time.RFC3339Nano), e.Payload)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (Entry, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Entry{}, false, err
	}

	e := Entry{Name: name}
	var created string
	err = db.QueryRowContext(ctx, `SELECT id, class, format, created, payload FROM libraries WHERE name = ?`, name).Scan(&e.ID, &e.Class, &e.Format, &created, &e.Payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	e.Created, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

//List returns the entries sorted by name, without their payloads.
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT name, id, class, format, created FROM libraries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ret []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.Name, &e.ID, &e.Class, &e.Format, &created); err != nil {
			return nil, err
		}
		if e.Created, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, err
		}
		ret = append(ret, e)
	}
	return ret, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) (bool, error) {
	db, err := s.getDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM libraries WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS libraries (
			name TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			class TEXT NOT NULL,
			format INTEGER NOT NULL,
			created TEXT NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
