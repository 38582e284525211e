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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freshvault/inventory-sync/pkg/config"
	"github.com/freshvault/inventory-sync/pkg/core"
)

// RedisStore keeps each product as a JSON string under keyPrefix+code.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return newRedisStore(client, cfg.KeyPrefix), nil
}

func newRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "freshvault:products:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (r *RedisStore) key(code string) string {
	return r.keyPrefix + code
}

func (r *RedisStore) Get(ctx context.Context, code string) (core.Product, error) {
	data, err := r.client.Get(ctx, r.key(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.Product{}, core.ErrNotFound
		}
		return core.Product{}, err
	}
	var p core.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return core.Product{}, fmt.Errorf("decode product %s: %w", code, err)
	}
	return p, nil
}

func (r *RedisStore) Set(ctx context.Context, code string, product core.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	return r.client.Set(ctx, r.key(code), data, 0).Err()
}

func (r *RedisStore) Delete(ctx context.Context, code string) error {
	return r.client.Del(ctx, r.key(code)).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
