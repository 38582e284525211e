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

// Package engine owns the product registry. Every mutation goes through a
// single goroutine (Run), which applies it, publishes the new snapshot and
// queues a near-expiry notification when the expiring set is non-empty.
//
// Thread-safety model:
//   - Apply, Delete, Sweep: safe from any goroutine, block until processed
//   - Run: must be called from exactly one goroutine
//   - Snapshot, Expiring: safe from any goroutine (read the registry directly)
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/freshvault/inventory-sync/internal/expiry"
	"github.com/freshvault/inventory-sync/internal/metrics"
	"github.com/freshvault/inventory-sync/internal/registry"
	"github.com/freshvault/inventory-sync/pkg/core"
)

const (
	DefaultQueueSize    = 64
	DefaultStoreTimeout = 3 * time.Second
)

// Publisher fans a registry snapshot out to every connected observer.
type Publisher interface {
	Publish(products []core.Product) int
}

// Notifier accepts a near-expiry set for delivery. It must not block.
type Notifier interface {
	Notify(products []core.Product, horizonDays int)
}

type commandKind int

const (
	cmdApply commandKind = iota
	cmdDelete
	cmdSweep
)

func (k commandKind) String() string {
	switch k {
	case cmdApply:
		return "apply"
	case cmdDelete:
		return "delete"
	case cmdSweep:
		return "sweep"
	default:
		return "unknown"
	}
}

type command struct {
	kind    commandKind
	product core.Product
	code    string
	id      int64
	reply   chan Outcome
}

// Outcome is what the event core did with one command.
type Outcome struct {
	Mutation  core.MutationResult
	Delivered int
	Expiring  []core.Product
}

type Engine struct {
	registry     *registry.Registry
	policy       *expiry.Policy
	publisher    Publisher
	notifier     Notifier
	store        core.ProductStore
	logger       *slog.Logger
	now          func() time.Time
	storeTimeout time.Duration

	cmds    chan command
	stopped chan struct{}
	tasks   sync.WaitGroup
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cmds = make(chan command, n)
		}
	}
}

func WithStoreTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.storeTimeout = d
		}
	}
}

// WithNotifier sets where expiring sets are sent. Without one they are only logged.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func New(
	reg *registry.Registry,
	policy *expiry.Policy,
	publisher Publisher,
	store core.ProductStore,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		registry:     reg,
		policy:       policy,
		publisher:    publisher,
		store:        store,
		logger:       logger,
		now:          time.Now,
		storeTimeout: DefaultStoreTimeout,
		cmds:         make(chan command, DefaultQueueSize),
		stopped:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes commands until ctx is cancelled, then waits for detached
// store deletions to finish.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "products", e.registry.Len())
	defer func() {
		close(e.stopped)
		e.tasks.Wait()
		e.logger.Info("engine stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-e.cmds:
			cmd.reply <- e.process(cmd)
		}
	}
}

// Apply toggles product in the registry: absent ids are added, present ids
// are removed.
func (e *Engine) Apply(ctx context.Context, product core.Product, code string) (Outcome, error) {
	return e.submit(ctx, command{kind: cmdApply, product: product, code: code})
}

// Delete removes the product with id. Unknown ids are a no-op.
func (e *Engine) Delete(ctx context.Context, id int64) (Outcome, error) {
	return e.submit(ctx, command{kind: cmdDelete, id: id})
}

// Sweep re-evaluates the expiring set without mutating the registry.
func (e *Engine) Sweep(ctx context.Context) (Outcome, error) {
	return e.submit(ctx, command{kind: cmdSweep})
}

func (e *Engine) Snapshot() []core.Product {
	return e.registry.Snapshot()
}

func (e *Engine) Expiring() []core.Product {
	return e.policy.Filter(e.registry.Snapshot(), e.now())
}

func (e *Engine) submit(ctx context.Context, cmd command) (Outcome, error) {
	cmd.reply = make(chan Outcome, 1)
	select {
	case e.cmds <- cmd:
	case <-e.stopped:
		return Outcome{}, core.ErrEngineStopped
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
	select {
	case out := <-cmd.reply:
		return out, nil
	case <-e.stopped:
		return Outcome{}, core.ErrEngineStopped
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (e *Engine) process(cmd command) Outcome {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("engine panic recovered", "command", cmd.kind.String(), "error", r)
		}
	}()

	var out Outcome
	switch cmd.kind {
	case cmdApply:
		out.Mutation = e.registry.Apply(cmd.product, cmd.code)
	case cmdDelete:
		out.Mutation = e.registry.Delete(cmd.id)
		if out.Mutation.Kind == core.MutationNone {
			e.logger.Debug("delete of unknown product ignored", "product_id", cmd.id)
			return out
		}
	case cmdSweep:
		out.Expiring = e.checkExpiry(e.registry.Snapshot())
		return out
	default:
		e.logger.Error("unknown engine command", "command", cmd.kind.String())
		return out
	}

	metrics.Mutations.WithLabelValues(out.Mutation.Kind.String()).Inc()
	metrics.RegistrySize.Set(float64(e.registry.Len()))
	e.logger.Info("registry mutated",
		"kind", out.Mutation.Kind.String(),
		"product_id", out.Mutation.Product.ID,
		"products", e.registry.Len(),
	)

	if out.Mutation.Kind == core.MutationRemoved {
		// The toggling submission may carry a code the stored entry never had.
		for _, code := range removedCodes(out.Mutation.Code, cmd.code) {
			e.deleteFromStore(code)
		}
	}

	snapshot := e.registry.Snapshot()
	out.Delivered = e.publisher.Publish(snapshot)
	out.Expiring = e.checkExpiry(snapshot)
	return out
}

func removedCodes(entry, submitted string) []string {
	var codes []string
	if entry != "" {
		codes = append(codes, entry)
	}
	if submitted != "" && submitted != entry {
		codes = append(codes, submitted)
	}
	return codes
}

func (e *Engine) checkExpiry(snapshot []core.Product) []core.Product {
	expiring := e.policy.Filter(snapshot, e.now())
	if len(expiring) == 0 {
		return nil
	}
	if e.notifier == nil {
		e.logger.Info("products expiring soon", "count", len(expiring))
		return expiring
	}
	e.notifier.Notify(expiring, e.policy.Horizon())
	return expiring
}

// deleteFromStore removes a consumed product's persisted record off the event
// loop. A re-scan of the same code racing this deletion may find the record
// gone and fall through to the catalog.
func (e *Engine) deleteFromStore(code string) {
	if e.store == nil {
		return
	}
	e.tasks.Add(1)
	go func() {
		defer e.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("store delete panic recovered", "code", code, "error", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), e.storeTimeout)
		defer cancel()
		if err := e.store.Delete(ctx, code); err != nil {
			e.logger.Warn("store delete failed", "code", code, "error", fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err))
			return
		}
		e.logger.Debug("store record deleted", "code", code)
	}()
}
