// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

// Package sqlitestore provides a giraffe.Store implementation that keeps
// objects in a single SQLite database file.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/glebarez/go-sqlite" // registers the "sqlite" driver

	"github.com/giraffeimg/giraffe"
)

// Store keeps objects in an "objects" table keyed by store key.
type Store struct {
	db         *sql.DB
	writeMutex sync.Mutex
}

// Open opens or creates the database at filename.  If filename is empty, a
// shared in-memory database is used.
func Open(filename string) (*Store, error) {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: opening %s: %w", filename, err)
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS objects (
			key TEXT PRIMARY KEY,
			content_type TEXT NOT NULL DEFAULT '',
			data BLOB
		)`,
		"PRAGMA journal_mode=WAL",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlitestore: initializing %s: %w", filename, err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) (*giraffe.Object, error) {
	obj := new(giraffe.Object)
	err := s.db.QueryRowContext(ctx,
		"SELECT content_type, data FROM objects WHERE key = ?", key,
	).Scan(&obj.ContentType, &obj.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, giraffe.NotFound(key)
		}
		return nil, &giraffe.StoreError{Op: "get", Key: key, Err: err}
	}
	return obj, nil
}

func (s *Store) Put(ctx context.Context, key string, obj *giraffe.Object) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO objects (key, content_type, data) VALUES (?, ?, ?)",
		key, obj.ContentType, obj.Data)
	if err != nil {
		return &giraffe.StoreError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
