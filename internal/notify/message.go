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

package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freshvault/inventory-sync/pkg/core"
)

const Subject = "FreshVault: Products Expiring Soon"

// RenderBody lists the expiring products, one per line.
func RenderBody(products []core.Product, horizonDays int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following products are expiring within %d days:\n\n", horizonDays)
	for i, p := range products {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s (Expires: %s)", p.Name, p.ExpiryDate)
	}
	return b.String()
}

func NewAlert(products []core.Product, horizonDays int, now time.Time) core.Alert {
	return core.Alert{
		ID:          uuid.New().String(),
		Subject:     Subject,
		Body:        RenderBody(products, horizonDays),
		Products:    products,
		HorizonDays: horizonDays,
		GeneratedAt: now.UTC(),
	}
}
