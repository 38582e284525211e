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

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/freshvault/inventory-sync/internal/catalog"
	"github.com/freshvault/inventory-sync/internal/engine"
	"github.com/freshvault/inventory-sync/internal/expiry"
	"github.com/freshvault/inventory-sync/internal/handler"
	"github.com/freshvault/inventory-sync/internal/logging"
	"github.com/freshvault/inventory-sync/internal/notify"
	"github.com/freshvault/inventory-sync/internal/registry"
	"github.com/freshvault/inventory-sync/internal/resolver"
	"github.com/freshvault/inventory-sync/internal/server"
	"github.com/freshvault/inventory-sync/internal/session"
	"github.com/freshvault/inventory-sync/internal/store"
	"github.com/freshvault/inventory-sync/pkg/config"
	"github.com/freshvault/inventory-sync/pkg/core"
	"github.com/freshvault/inventory-sync/pkg/plugins"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sync engine, client entrypoints and admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	logger := opts.logger
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	productStore, err := store.New(ctx, cfg.Store, logger.With("component", "store"))
	if err != nil {
		return err
	}
	defer productStore.Close()

	frameLog := logging.NewFrameLogger(logger.With("component", "frames"))
	plugs := plugins.NewRegistry(logger)
	registerEntrypoints(cfg, plugs, logger)
	if err := registerSinks(cfg, plugs, logger); err != nil {
		return err
	}

	res := newResolver(cfg, productStore, logger)
	policy := expiry.NewPolicy(cfg.Expiry.HorizonDays, logger.With("component", "expiry"))
	shelf := registry.New()
	mgr := session.NewManager(shelf, cfg.Session.OutboundBuffer, logger.With("component", "session"), frameLog)
	dispatcher := notify.NewDispatcher(
		plugs.ConnectSinks(ctx),
		cfg.Notifications.QueueSize,
		cfg.Notifications.Timeout,
		logger.With("component", "notify"),
	)
	eng := engine.New(shelf, policy, mgr, productStore, logger.With("component", "engine"),
		engine.WithQueueSize(cfg.Engine.QueueSize),
		engine.WithStoreTimeout(cfg.Store.Timeout),
		engine.WithNotifier(dispatcher),
	)
	h := handler.New(res, eng, logger.With("component", "handler"), frameLog)
	admin := server.New(cfg.Admin.Port, eng, mgr, policy, logger.With("component", "admin"))
	watcher := config.NewWatcher(opts.configPath, opts.level, policy, logger.With("component", "config"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })
	g.Go(func() error {
		dispatcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		watcher.Watch(gctx)
		return nil
	})
	if cfg.Expiry.SweepInterval > 0 {
		g.Go(func() error {
			eng.RunSweeper(gctx, cfg.Expiry.SweepInterval)
			return nil
		})
	}
	g.Go(admin.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down freshvault")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		mgr.DestroyAll()
		plugs.StopAll(shutdownCtx)
		return admin.Shutdown(shutdownCtx)
	})

	plugs.StartEntrypoints(gctx, mgr, h)
	logger.Info("freshvault started",
		"config", opts.configPath,
		"store", cfg.Store.Type,
		"horizon_days", policy.Horizon(),
		"entrypoints", len(cfg.Entrypoints),
	)

	err = g.Wait()
	logger.Info("freshvault stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newResolver(cfg *config.Config, productStore core.ProductStore, logger *slog.Logger) *resolver.Resolver {
	off := catalog.NewOpenFoodFacts(catalog.Config{
		BaseURL:   cfg.Catalog.BaseURL,
		Timeout:   cfg.Catalog.Timeout,
		UserAgent: cfg.Catalog.UserAgent,
	})
	return resolver.New(productStore, off, resolver.NewClockIDs(nil), resolver.Config{
		StoreTimeout:      cfg.Store.Timeout,
		CatalogTimeout:    cfg.Catalog.Timeout,
		DefaultExpiryDate: cfg.Catalog.Defaults.ExpiryDate,
		DefaultPrice:      cfg.Catalog.Defaults.Price,
	}, logger.With("component", "resolver"))
}
