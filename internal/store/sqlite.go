// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/freshvault/inventory-sync/pkg/core"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps products as JSON rows in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, code string) (core.Product, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT product FROM products WHERE code = ?`, code).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Product{}, core.ErrNotFound
		}
		return core.Product{}, fmt.Errorf("query product: %w", err)
	}
	var p core.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return core.Product{}, fmt.Errorf("decode product %s: %w", code, err)
	}
	return p, nil
}

func (s *SQLiteStore) Set(ctx context.Context, code string, product core.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (code, product, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET product = excluded.product, updated_at = excluded.updated_at`,
		code, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, code string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE code = ?`, code); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
