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

// Package catalog looks up product metadata by scan code in Open Food Facts.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/freshvault/inventory-sync/pkg/core"
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

type OpenFoodFacts struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewOpenFoodFacts(cfg Config) *OpenFoodFacts {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OpenFoodFacts{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type productResponse struct {
	Code    string      `json:"code"`
	Status  int         `json:"status"`
	Product *offProduct `json:"product"`
}

type offProduct struct {
	ProductName         string        `json:"product_name"`
	ManufacturingPlaces string        `json:"manufacturing_places"`
	Nutriments          offNutriments `json:"nutriments"`
	Quantity            string        `json:"quantity"`
	Categories          string        `json:"categories"`
	IngredientsText     string        `json:"ingredients_text"`
	GenericName         string        `json:"generic_name"`
}

type offNutriments struct {
	Proteins core.Text `json:"proteins"`
	Vitamins core.Text `json:"vitamins"`
}

// Lookup fetches the catalog entry for code. Unknown codes yield
// core.ErrNotFound; transport and decoding failures are returned wrapped in
// core.ErrCatalogUnavailable.
func (c *OpenFoodFacts) Lookup(ctx context.Context, code string) (core.CatalogItem, error) {
	endpoint := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return core.CatalogItem{}, fmt.Errorf("%w: build request: %v", core.ErrCatalogUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.CatalogItem{}, fmt.Errorf("%w: %v", core.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return core.CatalogItem{}, fmt.Errorf("%w: code %s", core.ErrNotFound, code)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return core.CatalogItem{}, fmt.Errorf("%w: status %d: %s", core.ErrCatalogUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload productResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.CatalogItem{}, fmt.Errorf("%w: decode response: %v", core.ErrCatalogUnavailable, err)
	}
	if payload.Status == 0 || payload.Product == nil {
		return core.CatalogItem{}, fmt.Errorf("%w: code %s", core.ErrNotFound, code)
	}

	p := payload.Product
	return core.CatalogItem{
		Code:                code,
		Name:                p.ProductName,
		ManufacturingPlaces: p.ManufacturingPlaces,
		Proteins:            p.Nutriments.Proteins,
		Vitamins:            p.Nutriments.Vitamins,
		Quantity:            p.Quantity,
		Categories:          p.Categories,
		Ingredients:         p.IngredientsText,
		GenericName:         p.GenericName,
	}, nil
}
