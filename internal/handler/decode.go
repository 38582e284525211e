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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/freshvault/inventory-sync/internal/resolver"
	"github.com/freshvault/inventory-sync/pkg/core"
)

type envelope struct {
	Type      string          `json:"type"`
	ProductID json.RawMessage `json:"productId"`
	Code      json.RawMessage `json:"code"`
}

// DecodeInbound classifies one client frame. Bare JSON strings and numbers
// are scan payloads, objects are deletion requests, tagged scans or product
// submissions. Anything else is core.ErrMalformedEvent.
func DecodeInbound(payload []byte) (core.Inbound, error) {
	data := bytes.TrimSpace(payload)
	if len(data) == 0 {
		return core.Inbound{}, fmt.Errorf("%w: empty frame", core.ErrMalformedEvent)
	}

	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return core.Inbound{}, fmt.Errorf("%w: %v", core.ErrMalformedEvent, err)
		}
		return fromText(s)
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return core.Inbound{}, fmt.Errorf("%w: %v", core.ErrMalformedEvent, err)
		}
		return fromText(n.String())
	case c == '{':
		return fromObject(data)
	default:
		return core.Inbound{}, fmt.Errorf("%w: unsupported frame", core.ErrMalformedEvent)
	}
}

// fromText classifies a scan payload. Optical codes may carry a product
// record as JSON text.
func fromText(s string) (core.Inbound, error) {
	s = strings.TrimSpace(s)
	if resolver.IsCode(s) {
		return core.Inbound{Kind: core.InboundCode, Code: s}, nil
	}
	if strings.HasPrefix(s, "{") {
		var sub core.Submission
		if err := json.Unmarshal([]byte(s), &sub); err == nil {
			return core.Inbound{Kind: core.InboundSubmission, Submission: sub}, nil
		}
	}
	return core.Inbound{Kind: core.InboundSubmission}, nil
}

func fromObject(data []byte) (core.Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return core.Inbound{}, fmt.Errorf("%w: %v", core.ErrMalformedEvent, err)
	}

	switch env.Type {
	case "delete":
		id, err := parseID(env.ProductID)
		if err != nil {
			return core.Inbound{}, fmt.Errorf("%w: productId: %v", core.ErrMalformedEvent, err)
		}
		return core.Inbound{Kind: core.InboundDelete, ProductID: id}, nil
	case "scan":
		code, err := scalarText(env.Code)
		if err != nil {
			return core.Inbound{}, fmt.Errorf("%w: code: %v", core.ErrMalformedEvent, err)
		}
		return fromText(code)
	}

	var sub core.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return core.Inbound{}, fmt.Errorf("%w: %v", core.ErrMalformedEvent, err)
	}
	return core.Inbound{Kind: core.InboundSubmission, Submission: sub}, nil
}

func parseID(raw json.RawMessage) (int64, error) {
	s, err := scalarText(raw)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}

// scalarText returns the text of a JSON string or number.
func scalarText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", errors.New("missing")
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return strings.TrimSpace(s), err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
