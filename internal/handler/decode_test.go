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

package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshvault/inventory-sync/pkg/core"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		kind    core.InboundKind
		code    string
		id      int64
		subName string
	}{
		{name: "quoted ean13", frame: `"1234567890123"`, kind: core.InboundCode, code: "1234567890123"},
		{name: "bare upc", frame: `123456789012`, kind: core.InboundCode, code: "123456789012"},
		{name: "padded", frame: "  \"1234567890123\"\n", kind: core.InboundCode, code: "1234567890123"},
		{name: "tagged scan", frame: `{"type":"scan","code":"1234567890123"}`, kind: core.InboundCode, code: "1234567890123"},
		{name: "eleven digits", frame: `"12345678901"`, kind: core.InboundSubmission},
		{name: "fourteen digits", frame: `12345678901234`, kind: core.InboundSubmission},
		{name: "plain text", frame: `"hello"`, kind: core.InboundSubmission},
		{name: "qr json", frame: `"{\"id\":3,\"name\":\"Kefir\",\"expiryDate\":\"2026-03-15\"}"`, kind: core.InboundSubmission, id: 3, subName: "Kefir"},
		{name: "submission", frame: `{"id":4,"name":"Tofu","expiryDate":"2026-03-15","protein":8}`, kind: core.InboundSubmission, id: 4, subName: "Tofu"},
		{name: "delete number", frame: `{"type":"delete","productId":1741600000000}`, kind: core.InboundDelete, id: 1741600000000},
		{name: "delete string", frame: `{"type":"delete","productId":"12"}`, kind: core.InboundDelete, id: 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := DecodeInbound([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, in.Kind)
			assert.Equal(t, tt.code, in.Code)
			switch tt.kind {
			case core.InboundDelete:
				assert.Equal(t, tt.id, in.ProductID)
			case core.InboundSubmission:
				assert.Equal(t, tt.id, in.Submission.ID)
				assert.Equal(t, tt.subName, in.Submission.Name)
			}
		})
	}
}

func TestDecodeSubmissionCodeAliases(t *testing.T) {
	in, err := DecodeInbound([]byte(`{"id":1,"name":"Milk","expiryDate":"2026-03-13","barcode":"1234567890123"}`))
	require.NoError(t, err)
	assert.Equal(t, "1234567890123", in.Submission.ScanCode())

	in, err = DecodeInbound([]byte(`{"id":1,"name":"Milk","expiryDate":"2026-03-13","code":"123456789012","barcode":"1234567890123"}`))
	require.NoError(t, err)
	assert.Equal(t, "123456789012", in.Submission.ScanCode())
}

func TestDecodeMalformed(t *testing.T) {
	for _, frame := range []string{``, `   `, `{"id":`, `[1]`, `false`, `null`, `{"type":"delete","productId":"abc"}`, `{"type":"scan"}`} {
		_, err := DecodeInbound([]byte(frame))
		assert.ErrorIs(t, err, core.ErrMalformedEvent, frame)
	}
}
