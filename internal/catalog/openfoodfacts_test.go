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

package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshvault/inventory-sync/pkg/core"
)

func newServer(t *testing.T, handler http.HandlerFunc) *OpenFoodFacts {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenFoodFacts(Config{BaseURL: srv.URL + "/", Timeout: time.Second, UserAgent: "FreshVault/test"})
}

func TestLookupFound(t *testing.T) {
	body, err := os.ReadFile("testdata/yogurt.json")
	require.NoError(t, err)

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/3017620422003.json", r.URL.Path)
		assert.Equal(t, "FreshVault/test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})

	item, err := c.Lookup(context.Background(), "3017620422003")
	require.NoError(t, err)
	assert.Equal(t, core.CatalogItem{
		Code:                "3017620422003",
		Name:                "Greek Yogurt",
		ManufacturingPlaces: "Thessaloniki",
		Proteins:            "9.8",
		Quantity:            "500 g",
		Categories:          "Dairies, Fermented foods, Yogurts",
		Ingredients:         "Pasteurised milk, live cultures",
		GenericName:         "Strained whole milk yogurt",
	}, item)
}

func TestLookupNotFound(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"status zero": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"code":"1234567890123","status":0,"status_verbose":"product not found"}`))
		},
		"http 404": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":0}`))
		},
		"no product": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":1}`))
		},
	}
	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newServer(t, handler).Lookup(context.Background(), "1234567890123")
			assert.ErrorIs(t, err, core.ErrNotFound)
		})
	}
}

func TestLookupFailures(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}
	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newServer(t, handler).Lookup(context.Background(), "1234567890123")
			assert.ErrorIs(t, err, core.ErrCatalogUnavailable)
			assert.NotErrorIs(t, err, core.ErrNotFound)
		})
	}
}

func TestLookupHonorsContext(t *testing.T) {
	release := make(chan struct{})
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Lookup(ctx, "1234567890123")
	assert.ErrorIs(t, err, core.ErrCatalogUnavailable)
}
