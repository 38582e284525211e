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
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/freshvault/inventory-sync/pkg/config"
)

type rootOptions struct {
	configPath string
	level      *slog.LevelVar
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{level: new(slog.LevelVar)}
	opts.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: opts.level}))

	cmd := &cobra.Command{
		Use:           "freshvault",
		Short:         "FreshVault inventory sync engine",
		Long:          "Keeps a shared shelf of perishable products in sync across scanners and dashboards, and flags items nearing expiry.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = config.DefaultPath
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", path, "path to the YAML config file (env CONFIG_PATH)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newLookupCommand(opts))
	return cmd
}

// loadConfig reads the config file and applies its log level. The file is
// optional only when the default path is in use.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	required := cmd.Flags().Changed("config") || os.Getenv("CONFIG_PATH") != ""
	cfg, err := config.Load(o.configPath, required)
	if err != nil {
		return nil, err
	}
	lvl, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	o.level.Set(lvl)
	return cfg, nil
}
