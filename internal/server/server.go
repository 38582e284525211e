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

// Package server exposes the admin HTTP API: liveness, prometheus metrics
// and read-only views of the shelf.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freshvault/inventory-sync/pkg/core"
)

type Inventory interface {
	Snapshot() []core.Product
	Expiring() []core.Product
}

type SessionCounter interface {
	ActiveCount() int
}

type HorizonSource interface {
	Horizon() int
}

type Server struct {
	echo      *echo.Echo
	port      int
	inventory Inventory
	sessions  SessionCounter
	horizon   HorizonSource
	logger    *slog.Logger
}

func New(port int, inventory Inventory, sessions SessionCounter, horizon HorizonSource, logger *slog.Logger) *Server {
	s := &Server{
		echo:      echo.New(),
		port:      port,
		inventory: inventory,
		sessions:  sessions,
		horizon:   horizon,
		logger:    logger,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" || path == "/metrics"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("admin request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error,
			)
			return nil
		},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.Error("admin handler panic", "error", err, "stack", string(stack))
			return err
		},
	}))

	e.GET("/health", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.GET("/products", s.products)
	api.GET("/products/expiring", s.expiring)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Start blocks serving the admin API until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("admin server starting", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type healthResponse struct {
	Status   string `json:"status"`
	Products int    `json:"products"`
	Sessions int    `json:"sessions"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:   "ok",
		Products: len(s.inventory.Snapshot()),
		Sessions: s.sessions.ActiveCount(),
	})
}

func (s *Server) products(c echo.Context) error {
	return c.JSON(http.StatusOK, nonNil(s.inventory.Snapshot()))
}

type expiringResponse struct {
	HorizonDays int            `json:"horizonDays"`
	Products    []core.Product `json:"products"`
}

func (s *Server) expiring(c echo.Context) error {
	return c.JSON(http.StatusOK, expiringResponse{
		HorizonDays: s.horizon.Horizon(),
		Products:    nonNil(s.inventory.Expiring()),
	})
}

func nonNil(products []core.Product) []core.Product {
	if products == nil {
		return []core.Product{}
	}
	return products
}
