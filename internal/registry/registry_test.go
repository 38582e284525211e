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

package registry

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshvault/inventory-sync/pkg/core"
)

func TestApplyAddsThenTogglesOff(t *testing.T) {
	reg := New()
	milk := core.Product{ID: 1, Name: "Milk", ExpiryDate: "2026-03-13"}

	res := reg.Apply(milk, "")
	assert.Equal(t, core.MutationAdded, res.Kind)
	require.Len(t, reg.Snapshot(), 1)

	res = reg.Apply(milk, "")
	assert.Equal(t, core.MutationRemoved, res.Kind)
	assert.Empty(t, reg.Snapshot())
}

func TestToggleRestoresPriorState(t *testing.T) {
	reg := New()
	reg.Apply(core.Product{ID: 1, Name: "Milk"}, "")
	reg.Apply(core.Product{ID: 2, Name: "Eggs"}, "")
	before := reg.Snapshot()

	reg.Apply(core.Product{ID: 3, Name: "Bread"}, "1234567890123")
	reg.Apply(core.Product{ID: 3, Name: "Bread"}, "")

	if diff := cmp.Diff(before, reg.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestRemovalReportsStoredCode(t *testing.T) {
	reg := New()
	reg.Apply(core.Product{ID: 9, Name: "Yogurt"}, "400638133393")

	res := reg.Apply(core.Product{ID: 9, Name: "Yogurt (rescanned)"}, "")
	assert.Equal(t, core.MutationRemoved, res.Kind)
	assert.Equal(t, "400638133393", res.Code)
	assert.Equal(t, "Yogurt", res.Product.Name)
}

func TestInsertionOrderPreserved(t *testing.T) {
	reg := New()
	for _, id := range []int64{5, 3, 8, 1} {
		reg.Apply(core.Product{ID: id}, "")
	}
	reg.Delete(8)

	var ids []int64
	for _, p := range reg.Snapshot() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{5, 3, 1}, ids)
}

func TestDeleteUnknown(t *testing.T) {
	reg := New()
	reg.Apply(core.Product{ID: 1}, "")

	res := reg.Delete(42)
	assert.Equal(t, core.MutationNone, res.Kind)
	assert.Equal(t, 1, reg.Len())
}

func TestSnapshotIsACopy(t *testing.T) {
	reg := New()
	reg.Apply(core.Product{ID: 1, Name: "Milk"}, "")

	snap := reg.Snapshot()
	snap[0].Name = "changed"
	assert.Equal(t, "Milk", reg.Snapshot()[0].Name)
}

func TestConcurrentSnapshotsDuringMutation(t *testing.T) {
	reg := New()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(0); i < 200; i++ {
			reg.Apply(core.Product{ID: i % 10}, "")
		}
	}()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = reg.Snapshot()
			}
		}()
	}
	wg.Wait()
}
