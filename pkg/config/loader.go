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

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath      = "/etc/freshvault/config.yaml"
	EnvPrefix        = "FRESHVAULT_"
	DefaultAdminPort = 9090
)

type Config struct {
	LogLevel      string              `yaml:"log_level"`
	Admin         AdminConfig         `yaml:"admin"`
	Entrypoints   []EntrypointConfig  `yaml:"entrypoints"`
	Store         StoreConfig         `yaml:"store"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Expiry        ExpiryConfig        `yaml:"expiry"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Session       SessionConfig       `yaml:"session"`
	Engine        EngineConfig        `yaml:"engine"`
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

type EntrypointConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Port int    `yaml:"port"`
}

type StoreConfig struct {
	Type    string        `yaml:"type"`
	Timeout time.Duration `yaml:"timeout"`
	Redis   RedisConfig   `yaml:"redis"`
	MongoDB MongoConfig   `yaml:"mongodb"`
	SQLite  SQLiteConfig  `yaml:"sqlite"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type CatalogConfig struct {
	BaseURL   string          `yaml:"base_url"`
	Timeout   time.Duration   `yaml:"timeout"`
	UserAgent string          `yaml:"user_agent"`
	Defaults  CatalogDefaults `yaml:"defaults"`
}

// CatalogDefaults fill product fields the catalog does not carry.
type CatalogDefaults struct {
	ExpiryDate string  `yaml:"expiry_date"`
	Price      float64 `yaml:"price"`
}

type ExpiryConfig struct {
	HorizonDays   int           `yaml:"horizon_days"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type NotificationsConfig struct {
	QueueSize int           `yaml:"queue_size"`
	Timeout   time.Duration `yaml:"timeout"`
	Sinks     []SinkConfig  `yaml:"sinks"`
}

type SinkConfig struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"`
	Config map[string]string `yaml:"config"`
}

type SessionConfig struct {
	OutboundBuffer int `yaml:"outbound_buffer"`
}

type EngineConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// overrides are the settings that can be set from the environment. Unset
// variables leave the file value untouched.
type overrides struct {
	LogLevel       *string        `env:"LOG_LEVEL"`
	AdminPort      *int           `env:"ADMIN_PORT"`
	StoreType      *string        `env:"STORE_TYPE"`
	StoreTimeout   *time.Duration `env:"STORE_TIMEOUT"`
	RedisAddr      *string        `env:"REDIS_ADDR"`
	RedisPassword  *string        `env:"REDIS_PASSWORD"`
	MongoURI       *string        `env:"MONGODB_URI"`
	MongoDatabase  *string        `env:"MONGODB_DATABASE"`
	SQLitePath     *string        `env:"SQLITE_PATH"`
	CatalogBaseURL *string        `env:"CATALOG_BASE_URL"`
	CatalogTimeout *time.Duration `env:"CATALOG_TIMEOUT"`
	HorizonDays    *int           `env:"EXPIRY_HORIZON_DAYS"`
	SweepInterval  *time.Duration `env:"EXPIRY_SWEEP_INTERVAL"`
}

var (
	knownEntrypoints = map[string]bool{"websocket": true, "sse": true, "http_post": true, "http_get": true}
	knownStores      = map[string]bool{"memory": true, "redis": true, "mongodb": true, "sqlite": true}
	knownSinks       = map[string]bool{"log": true, "kafka": true, "rabbitmq": true, "amqp1": true, "mqtt5": true, "smtp": true, "solace": true}
)

// Load reads the YAML file at path, applies FRESHVAULT_* environment
// overrides and defaults, and validates the result. With required unset a
// missing file yields a default configuration.
func Load(path string, required bool) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var o overrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return err
	}
	set(&c.LogLevel, o.LogLevel)
	set(&c.Admin.Port, o.AdminPort)
	set(&c.Store.Type, o.StoreType)
	set(&c.Store.Timeout, o.StoreTimeout)
	set(&c.Store.Redis.Addr, o.RedisAddr)
	set(&c.Store.Redis.Password, o.RedisPassword)
	set(&c.Store.MongoDB.URI, o.MongoURI)
	set(&c.Store.MongoDB.Database, o.MongoDatabase)
	set(&c.Store.SQLite.Path, o.SQLitePath)
	set(&c.Catalog.BaseURL, o.CatalogBaseURL)
	set(&c.Catalog.Timeout, o.CatalogTimeout)
	set(&c.Expiry.HorizonDays, o.HorizonDays)
	set(&c.Expiry.SweepInterval, o.SweepInterval)
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Admin.Port == 0 {
		c.Admin.Port = DefaultAdminPort
	}
	if len(c.Entrypoints) == 0 {
		c.Entrypoints = []EntrypointConfig{{Name: "ws", Type: "websocket", Port: 8080}}
	}
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.Store.Timeout == 0 {
		c.Store.Timeout = 3 * time.Second
	}
	if c.Store.Redis.KeyPrefix == "" {
		c.Store.Redis.KeyPrefix = "freshvault:products:"
	}
	if c.Store.MongoDB.Database == "" {
		c.Store.MongoDB.Database = "freshvault"
	}
	if c.Store.MongoDB.Collection == "" {
		c.Store.MongoDB.Collection = "products"
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = "freshvault.db"
	}
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = "https://world.openfoodfacts.net"
	}
	if c.Catalog.Timeout == 0 {
		c.Catalog.Timeout = 5 * time.Second
	}
	if c.Catalog.UserAgent == "" {
		c.Catalog.UserAgent = "FreshVault/1.0"
	}
	if c.Catalog.Defaults.ExpiryDate == "" {
		c.Catalog.Defaults.ExpiryDate = "2025-06-30"
	}
	if c.Catalog.Defaults.Price == 0 {
		c.Catalog.Defaults.Price = 1.0
	}
	if c.Expiry.HorizonDays == 0 {
		c.Expiry.HorizonDays = 5
	}
	if c.Notifications.QueueSize == 0 {
		c.Notifications.QueueSize = 16
	}
	if c.Notifications.Timeout == 0 {
		c.Notifications.Timeout = 10 * time.Second
	}
	if c.Session.OutboundBuffer == 0 {
		c.Session.OutboundBuffer = 16
	}
	if c.Engine.QueueSize == 0 {
		c.Engine.QueueSize = 64
	}
}

func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for _, ep := range c.Entrypoints {
		if ep.Name == "" {
			errs = append(errs, errors.New("entrypoint without name"))
		}
		if seen[ep.Name] {
			errs = append(errs, fmt.Errorf("duplicate entrypoint %q", ep.Name))
		}
		seen[ep.Name] = true
		if !knownEntrypoints[ep.Type] {
			errs = append(errs, fmt.Errorf("entrypoint %q: unknown type %q", ep.Name, ep.Type))
		}
		if ep.Port <= 0 || ep.Port > 65535 {
			errs = append(errs, fmt.Errorf("entrypoint %q: invalid port %d", ep.Name, ep.Port))
		}
	}
	if !knownStores[c.Store.Type] {
		errs = append(errs, fmt.Errorf("unknown store type %q", c.Store.Type))
	}
	for _, s := range c.Notifications.Sinks {
		if !knownSinks[s.Type] {
			errs = append(errs, fmt.Errorf("sink %q: unknown type %q", s.Name, s.Type))
		}
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Store.Timeout < 0 || c.Catalog.Timeout < 0 || c.Notifications.Timeout < 0 || c.Expiry.SweepInterval < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.Expiry.HorizonDays < 0 {
		errs = append(errs, fmt.Errorf("expiry.horizon_days must not be negative, got %d", c.Expiry.HorizonDays))
	}
	if c.Catalog.Defaults.Price < 0 {
		errs = append(errs, errors.New("catalog.defaults.price must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
