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

package engine

import (
	"context"
	"time"
)

// RunSweeper calls Sweep every interval until ctx is done. Expiry is
// date-based, so the expiring set can change without any mutation.
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("expiry sweeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			out, err := e.Sweep(ctx)
			if err != nil {
				if ctx.Err() == nil {
					e.logger.Warn("expiry sweep failed", "error", err)
				}
				continue
			}
			e.logger.Debug("expiry sweep done", "expiring", len(out.Expiring))
		}
	}
}
