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

// Package expiry classifies products as expiring soon.
package expiry

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/freshvault/inventory-sync/pkg/core"
)

const (
	DateLayout         = "2006-01-02"
	DefaultHorizonDays = 5
)

// DaysUntil returns the whole number of days from today's calendar date to
// expiryDate, rounding partial days up.
func DaysUntil(expiryDate string, today time.Time) (int, error) {
	exp, err := time.Parse(DateLayout, expiryDate)
	if err != nil {
		return 0, fmt.Errorf("parse expiry date %q: %w", expiryDate, err)
	}
	y, m, d := today.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(exp.Sub(midnight).Hours() / 24)), nil
}

// IsExpiringSoon reports whether expiryDate falls within [0, horizonDays]
// days of today. Unparseable dates never expire.
func IsExpiringSoon(expiryDate string, today time.Time, horizonDays int) bool {
	days, err := DaysUntil(expiryDate, today)
	if err != nil {
		return false
	}
	return days >= 0 && days <= horizonDays
}

// Policy applies IsExpiringSoon with a runtime-adjustable horizon and logs
// dates it cannot parse.
type Policy struct {
	horizon atomic.Int32
	logger  *slog.Logger
}

func NewPolicy(horizonDays int, logger *slog.Logger) *Policy {
	p := &Policy{logger: logger}
	p.SetHorizon(horizonDays)
	return p
}

func (p *Policy) Horizon() int { return int(p.horizon.Load()) }

func (p *Policy) SetHorizon(days int) {
	if days < 0 {
		days = DefaultHorizonDays
	}
	p.horizon.Store(int32(days))
}

func (p *Policy) ExpiringSoon(product core.Product, today time.Time) bool {
	days, err := DaysUntil(product.ExpiryDate, today)
	if err != nil {
		p.logger.Warn("invalid expiry date", "product_id", product.ID, "expiry_date", product.ExpiryDate, "error", err)
		return false
	}
	return days >= 0 && days <= p.Horizon()
}

// Filter returns the expiring subset of products, preserving order.
func (p *Policy) Filter(products []core.Product, today time.Time) []core.Product {
	var out []core.Product
	for _, product := range products {
		if p.ExpiringSoon(product, today) {
			out = append(out, product)
		}
	}
	return out
}
