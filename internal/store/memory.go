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
	"errors"
	"sync"

	"github.com/freshvault/inventory-sync/pkg/core"
)

var ErrStoreClosed = errors.New("store closed")

// MemoryStore keeps products in a map. Contents are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]core.Product
	closed   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]core.Product),
	}
}

func (m *MemoryStore) Get(ctx context.Context, code string) (core.Product, error) {
	if err := ctx.Err(); err != nil {
		return core.Product{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return core.Product{}, ErrStoreClosed
	}
	p, ok := m.products[code]
	if !ok {
		return core.Product{}, core.ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) Set(ctx context.Context, code string, product core.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	m.products[code] = product
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.products, code)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
