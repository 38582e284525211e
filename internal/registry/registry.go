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

// Package registry holds the authoritative in-memory list of products on the shelf.
package registry

import (
	"sync"

	"github.com/freshvault/inventory-sync/pkg/core"
)

type entry struct {
	product core.Product
	code    string
}

// Registry is an insertion-ordered product collection. Mutations are expected
// from a single writer (the engine); Snapshot is safe from any goroutine.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

func New() *Registry {
	return &Registry{}
}

// Apply toggles a product: an existing id is removed, anything else is
// appended. code is the store key the product was resolved under, if any.
func (r *Registry) Apply(product core.Product, code string) core.MutationResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(product.ID); i >= 0 {
		removed := r.removeAt(i)
		return core.MutationResult{Kind: core.MutationRemoved, Product: removed.product, Code: removed.code}
	}

	r.entries = append(r.entries, entry{product: product, code: code})
	return core.MutationResult{Kind: core.MutationAdded, Product: product, Code: code}
}

// Delete removes the product with id. Kind is MutationNone when absent.
func (r *Registry) Delete(id int64) core.MutationResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return core.MutationResult{Kind: core.MutationNone}
	}
	removed := r.removeAt(i)
	return core.MutationResult{Kind: core.MutationRemoved, Product: removed.product, Code: removed.code}
}

// Snapshot returns a copy of the current products in insertion order.
func (r *Registry) Snapshot() []core.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Product, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.product
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) indexOf(id int64) int {
	for i, e := range r.entries {
		if e.product.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) removeAt(i int) entry {
	removed := r.entries[i]
	r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
	return removed
}
