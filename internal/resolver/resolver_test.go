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

package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshvault/inventory-sync/pkg/core"
)

type fakeStore struct {
	mu     sync.Mutex
	data   map[string]core.Product
	getErr error
	setErr error
	block  bool
	gets   int
	sets   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]core.Product)}
}

func (f *fakeStore) Get(ctx context.Context, code string) (core.Product, error) {
	f.mu.Lock()
	f.gets++
	block, getErr := f.block, f.getErr
	p, ok := f.data[code]
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return core.Product{}, ctx.Err()
	}
	if getErr != nil {
		return core.Product{}, getErr
	}
	if !ok {
		return core.Product{}, core.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) Set(ctx context.Context, code string, product core.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sets = append(f.sets, code)
	f.data[code] = product
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, code)
	return nil
}

func (f *fakeStore) Close() error { return nil }

type fakeCatalog struct {
	items map[string]core.CatalogItem
	err   error
	block bool
	calls int
}

func (f *fakeCatalog) Lookup(ctx context.Context, code string) (core.CatalogItem, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return core.CatalogItem{}, ctx.Err()
	}
	if f.err != nil {
		return core.CatalogItem{}, f.err
	}
	item, ok := f.items[code]
	if !ok {
		return core.CatalogItem{}, core.ErrNotFound
	}
	return item, nil
}

type fixedIDs struct{ next int64 }

func (f *fixedIDs) NextID() int64 {
	f.next++
	return f.next
}

func newTestResolver(store core.ProductStore, catalog core.Catalog) *Resolver {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, catalog, &fixedIDs{next: 1000}, Config{
		StoreTimeout:      50 * time.Millisecond,
		CatalogTimeout:    50 * time.Millisecond,
		DefaultExpiryDate: "2025-06-30",
		DefaultPrice:      1.0,
	}, logger)
}

const code = "1234567890123"

func TestIsCode(t *testing.T) {
	tests := map[string]bool{
		"123456789012":   true,
		"1234567890123":  true,
		"12345678901":    false,
		"12345678901234": false,
		"12345678901a":   false,
		"1234567890.23":  false,
		"":               false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsCode(in), in)
	}
}

func TestStoreHitSkipsCatalog(t *testing.T) {
	store := newFakeStore()
	store.data[code] = core.Product{ID: 7, Name: "Milk", ExpiryDate: "2026-03-13"}
	catalog := &fakeCatalog{}

	res := newTestResolver(store, catalog).ResolveCode(context.Background(), code)

	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, StageStore, res.Stage)
	assert.Equal(t, int64(7), res.Product.ID)
	assert.Equal(t, 0, catalog.calls)
}

func TestMissEverywherePromptsManualEntry(t *testing.T) {
	store := newFakeStore()
	catalog := &fakeCatalog{}

	res := newTestResolver(store, catalog).ResolveCode(context.Background(), code)

	assert.Equal(t, OutcomePrompt, res.Outcome)
	assert.Equal(t, StageManual, res.Stage)
	assert.Equal(t, code, res.Code)
	assert.Contains(t, res.Prompt, code)
	assert.Empty(t, store.sets)
	assert.Equal(t, 1, catalog.calls)
}

func TestCatalogHitIsMappedAndPersisted(t *testing.T) {
	store := newFakeStore()
	catalog := &fakeCatalog{items: map[string]core.CatalogItem{
		code: {
			Code:        code,
			Name:        "Greek Yogurt",
			Proteins:    "10",
			Quantity:    "500 g",
			Categories:  "Dairies, Fermented foods",
			Ingredients: "milk, cultures",
		},
	}}

	res := newTestResolver(store, catalog).ResolveCode(context.Background(), code)

	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, StageCatalog, res.Stage)
	p := res.Product
	assert.Equal(t, int64(1001), p.ID)
	assert.Equal(t, "Greek Yogurt", p.Name)
	assert.Equal(t, "2025-06-30", p.ExpiryDate)
	assert.Equal(t, core.Text("Dairies"), p.Category)
	assert.Equal(t, core.Text("None"), p.Vitamins)
	assert.Equal(t, core.Text("Unknown"), p.ManufacturingDate)
	assert.Equal(t, core.Text("No description available"), p.Description)
	assert.Equal(t, 1.0, p.Price)
	assert.Equal(t, []string{code}, store.sets)
	assert.Equal(t, p, store.data[code])
}

func TestCatalogPersistFailurePromptsManualEntry(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("write refused")
	catalog := &fakeCatalog{items: map[string]core.CatalogItem{code: {Name: "Tea"}}}
	r := newTestResolver(store, catalog)

	for i := 0; i < 2; i++ {
		res := r.ResolveCode(context.Background(), code)
		assert.Equal(t, OutcomePrompt, res.Outcome)
		assert.Equal(t, StageManual, res.Stage)
		assert.Equal(t, code, res.Code)
		assert.Contains(t, res.Prompt, code)
		assert.Zero(t, res.Product)
	}
	assert.Equal(t, 2, catalog.calls)
}

func TestStoreErrorHaltsChain(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	catalog := &fakeCatalog{}

	res := newTestResolver(store, catalog).ResolveCode(context.Background(), code)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, core.ErrStoreUnavailable)
	assert.Equal(t, 0, catalog.calls)
}

func TestStoreTimeoutIsAFailure(t *testing.T) {
	store := newFakeStore()
	store.block = true
	catalog := &fakeCatalog{}

	start := time.Now()
	res := newTestResolver(store, catalog).ResolveCode(context.Background(), code)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, core.ErrStoreUnavailable)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, catalog.calls)
}

func TestCatalogTimeoutFallsBackToPrompt(t *testing.T) {
	catalog := &fakeCatalog{block: true}

	res := newTestResolver(newFakeStore(), catalog).ResolveCode(context.Background(), code)
	assert.Equal(t, OutcomePrompt, res.Outcome)
}

func TestNilCatalogFallsBackToPrompt(t *testing.T) {
	res := newTestResolver(newFakeStore(), nil).ResolveCode(context.Background(), code)
	assert.Equal(t, OutcomePrompt, res.Outcome)
}

func TestStoredRecordWithoutNameIsRejected(t *testing.T) {
	store := newFakeStore()
	store.data[code] = core.Product{ExpiryDate: "2026-03-13"}

	res := newTestResolver(store, &fakeCatalog{}).ResolveCode(context.Background(), code)
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.ErrorIs(t, res.Err, core.ErrValidation)
}

func TestSubmissionMissingFields(t *testing.T) {
	res := newTestResolver(newFakeStore(), nil).ResolveSubmission(context.Background(), core.Submission{
		ID:         1,
		ExpiryDate: "2026-03-13",
	})

	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.ErrorIs(t, res.Err, core.ErrValidation)
	assert.Contains(t, res.Err.Error(), "name")
	assert.NotContains(t, res.Err.Error(), "expiryDate")
}

func TestSubmissionNegativePrice(t *testing.T) {
	res := newTestResolver(newFakeStore(), nil).ResolveSubmission(context.Background(), core.Submission{
		ID: 1, Name: "Milk", ExpiryDate: "2026-03-13", Price: -2,
	})
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Contains(t, res.Err.Error(), "price")
}

func TestSubmissionWithCodeIsPersisted(t *testing.T) {
	store := newFakeStore()
	sub := core.Submission{ID: 42, Name: "Cheese", ExpiryDate: "2026-03-20", Barcode: code}

	res := newTestResolver(store, nil).ResolveSubmission(context.Background(), sub)

	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, code, res.Code)
	assert.Equal(t, int64(42), res.Product.ID)
	assert.Equal(t, res.Product, store.data[code])
}

func TestSubmissionWithoutCodeTouchesNoStore(t *testing.T) {
	store := newFakeStore()
	res := newTestResolver(store, nil).ResolveSubmission(context.Background(), core.Submission{
		ID: 1, Name: "Milk", ExpiryDate: "2026-03-13",
	})
	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Empty(t, store.sets)
}

func TestSubmissionStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("disk full")

	res := newTestResolver(store, nil).ResolveSubmission(context.Background(), core.Submission{
		ID: 1, Name: "Milk", ExpiryDate: "2026-03-13", Code: code,
	})
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, core.ErrStoreUnavailable)
}

func TestClockIDsStrictlyIncrease(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	ids := NewClockIDs(func() time.Time { return fixed })

	a, b, c := ids.NextID(), ids.NextID(), ids.NextID()
	assert.Equal(t, fixed.UnixMilli(), a)
	assert.Equal(t, a+1, b)
	assert.Equal(t, b+1, c)
}
