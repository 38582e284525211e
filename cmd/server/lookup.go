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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/freshvault/inventory-sync/internal/resolver"
	"github.com/freshvault/inventory-sync/internal/store"
)

func newLookupCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <code>",
		Short: "Resolve a scan code against the configured store and catalog",
		Long: `Run the store -> catalog lookup once for a scan code and print the result.

A catalog hit is persisted to the store exactly as it would be for a scan.

Example:
  freshvault lookup 3017620422003
  freshvault lookup --config ./config.yaml 737628064502`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, opts, args[0])
		},
	}
}

func runLookup(cmd *cobra.Command, opts *rootOptions, code string) error {
	if !resolver.IsCode(code) {
		return fmt.Errorf("%q is not a scan code: expected 12 or 13 digits", code)
	}
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	productStore, err := store.New(ctx, cfg.Store, opts.logger)
	if err != nil {
		return err
	}
	defer productStore.Close()

	res := newResolver(cfg, productStore, opts.logger).ResolveCode(ctx, code)
	out := cmd.OutOrStdout()
	switch res.Outcome {
	case resolver.OutcomeResolved:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		fmt.Fprintf(out, "resolved from %s:\n", res.Stage)
		return enc.Encode(res.Product)
	case resolver.OutcomePrompt:
		fmt.Fprintf(out, "manual entry required: %s\n", res.Prompt)
		return nil
	default:
		return res.Err
	}
}
