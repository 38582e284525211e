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

// Package store holds the persistent product database backends, keyed by
// scan code.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/freshvault/inventory-sync/pkg/config"
	"github.com/freshvault/inventory-sync/pkg/core"
)

// Type identifies the product store backend.
type Type string

const (
	TypeMemory  Type = "memory"
	TypeRedis   Type = "redis"
	TypeMongoDB Type = "mongodb"
	TypeSQLite  Type = "sqlite"
)

// New opens the backend named by cfg.Type.
func New(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (core.ProductStore, error) {
	var (
		s   core.ProductStore
		err error
	)
	switch Type(cfg.Type) {
	case TypeMemory, "":
		s = NewMemoryStore()
	case TypeRedis:
		s, err = NewRedisStore(ctx, cfg.Redis)
	case TypeMongoDB:
		s, err = NewMongoStore(ctx, cfg.MongoDB)
	case TypeSQLite:
		s, err = OpenSQLite(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownStoreType, cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("product store opened", "component", "store", "type", cfg.Type)
	return s, nil
}
