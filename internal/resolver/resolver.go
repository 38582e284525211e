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

// Package resolver turns an inbound scan code or structured submission into a
// product, walking store -> catalog -> manual entry for codes.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/freshvault/inventory-sync/internal/metrics"
	"github.com/freshvault/inventory-sync/pkg/core"
)

type Stage int

const (
	StageStore Stage = iota
	StageCatalog
	StageManual
	StageSubmission
)

func (s Stage) String() string {
	switch s {
	case StageStore:
		return "store"
	case StageCatalog:
		return "catalog"
	case StageManual:
		return "manual"
	case StageSubmission:
		return "submission"
	default:
		return "unknown"
	}
}

type Outcome int

const (
	// OutcomeResolved carries a product ready for the registry.
	OutcomeResolved Outcome = iota
	// OutcomePrompt asks the originating session for manual entry.
	OutcomePrompt
	// OutcomeRejected is a validation failure; nothing was persisted.
	OutcomeRejected
	// OutcomeFailed is a transient store failure; the chain stopped.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomePrompt:
		return "prompt"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Resolution is the state of one inbound event after it left the resolver.
type Resolution struct {
	Code    string
	Stage   Stage
	Outcome Outcome
	Product core.Product
	Prompt  string
	// Reason is the human-readable cause of a rejected or failed resolution.
	Reason  string
	Err     error
}

type Config struct {
	StoreTimeout      time.Duration
	CatalogTimeout    time.Duration
	DefaultExpiryDate string
	DefaultPrice      float64
}

type Resolver struct {
	store    core.ProductStore
	catalog  core.Catalog
	ids      IDSource
	cfg      Config
	validate *validator.Validate
	logger   *slog.Logger
}

func New(store core.ProductStore, catalog core.Catalog, ids IDSource, cfg Config, logger *slog.Logger) *Resolver {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 3 * time.Second
	}
	if cfg.CatalogTimeout <= 0 {
		cfg.CatalogTimeout = 5 * time.Second
	}
	if cfg.DefaultExpiryDate == "" {
		cfg.DefaultExpiryDate = "2025-06-30"
	}
	if ids == nil {
		ids = NewClockIDs(nil)
	}
	return &Resolver{
		store:    store,
		catalog:  catalog,
		ids:      ids,
		cfg:      cfg,
		validate: newValidator(),
		logger:   logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ResolveCode runs the tiered lookup for a scanned code.
func (r *Resolver) ResolveCode(ctx context.Context, code string) Resolution {
	res := Resolution{Code: code, Stage: StageStore}

	product, err := r.storeGet(ctx, code)
	switch {
	case err == nil:
		r.logger.Debug("code resolved from store", "code", code, "product_id", product.ID)
		return r.record(r.complete(res, product))
	case errors.Is(err, core.ErrNotFound):
	default:
		r.logger.Error("store lookup failed", "code", code, "error", err)
		return r.record(failed(res, err))
	}

	res.Stage = StageCatalog
	item, err := r.catalogLookup(ctx, code)
	if err != nil {
		r.logger.Info("catalog lookup failed, prompting manual entry", "code", code, "error", err)
		return r.record(manualEntry(res))
	}

	// Without a store record every rescan would mint a fresh id and the
	// second scan would add a duplicate instead of removing the first.
	product = r.fromCatalog(item)
	if err := r.storeSet(ctx, code, product); err != nil {
		r.logger.Warn("persisting catalog product failed, prompting manual entry", "code", code, "error", err)
		return r.record(manualEntry(res))
	}
	return r.record(r.complete(res, product))
}

func manualEntry(res Resolution) Resolution {
	res.Stage = StageManual
	res.Outcome = OutcomePrompt
	res.Prompt = fmt.Sprintf("No data found for barcode %s. Please enter details manually on the product page.", res.Code)
	return res
}

// ResolveSubmission validates a structured submission and persists it under
// its scan code when one is present.
func (r *Resolver) ResolveSubmission(ctx context.Context, sub core.Submission) Resolution {
	res := Resolution{Code: sub.ScanCode(), Stage: StageSubmission}

	if err := r.validate.Struct(sub); err != nil {
		return r.record(rejected(res, describe(err)))
	}

	product := sub.Product()
	if res.Code != "" {
		if err := r.storeSet(ctx, res.Code, product); err != nil {
			r.logger.Error("persisting submission failed", "code", res.Code, "error", err)
			return r.record(failed(res, err))
		}
	}

	res.Outcome = OutcomeResolved
	res.Product = product
	return r.record(res)
}

// complete fills a missing id and checks the fields the registry relies on.
func (r *Resolver) complete(res Resolution, product core.Product) Resolution {
	if product.ID == 0 {
		product.ID = r.ids.NextID()
	}
	var missing []string
	if product.Name == "" {
		missing = append(missing, "name")
	}
	if product.ExpiryDate == "" {
		missing = append(missing, "expiryDate")
	}
	if len(missing) > 0 {
		return rejected(res, "missing required fields: "+strings.Join(missing, ", "))
	}
	res.Outcome = OutcomeResolved
	res.Product = product
	return res
}

func rejected(res Resolution, reason string) Resolution {
	res.Outcome = OutcomeRejected
	res.Reason = reason
	res.Err = fmt.Errorf("%w: %s", core.ErrValidation, reason)
	return res
}

func failed(res Resolution, err error) Resolution {
	res.Outcome = OutcomeFailed
	res.Reason = err.Error()
	res.Err = fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	return res
}

func (r *Resolver) fromCatalog(item core.CatalogItem) core.Product {
	category, _, _ := strings.Cut(item.Categories, ",")
	return core.Product{
		ID:                r.ids.NextID(),
		Name:              orDefault(item.Name, "Unknown Product"),
		ExpiryDate:        r.cfg.DefaultExpiryDate,
		ManufacturingDate: core.Text(orDefault(item.ManufacturingPlaces, "Unknown")),
		Protein:           core.Text(orDefault(string(item.Proteins), "Unknown")),
		Vitamins:          core.Text(orDefault(string(item.Vitamins), "None")),
		Weight:            core.Text(orDefault(item.Quantity, "Unknown")),
		Category:          core.Text(orDefault(strings.TrimSpace(category), "Unknown")),
		Price:             r.cfg.DefaultPrice,
		Ingredients:       core.Text(orDefault(item.Ingredients, "Unknown")),
		Description:       core.Text(orDefault(item.GenericName, "No description available")),
	}
}

func (r *Resolver) storeGet(ctx context.Context, code string) (core.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()
	defer observe("store", "get")()
	return r.store.Get(ctx, code)
}

func (r *Resolver) storeSet(ctx context.Context, code string, product core.Product) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()
	defer observe("store", "set")()
	return r.store.Set(ctx, code, product)
}

func (r *Resolver) catalogLookup(ctx context.Context, code string) (core.CatalogItem, error) {
	if r.catalog == nil {
		return core.CatalogItem{}, core.ErrCatalogUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.CatalogTimeout)
	defer cancel()
	defer observe("catalog", "lookup")()
	return r.catalog.Lookup(ctx, code)
}

func (r *Resolver) record(res Resolution) Resolution {
	metrics.Resolutions.WithLabelValues(res.Stage.String(), res.Outcome.String()).Inc()
	return res
}

func observe(target, op string) func() {
	start := time.Now()
	return func() {
		metrics.ExternalCallDuration.WithLabelValues(target, op).Observe(time.Since(start).Seconds())
	}
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param()))
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(missing, ", "))
	}
	parts = append(parts, invalid...)
	return strings.Join(parts, "; ")
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
