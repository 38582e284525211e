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

package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Text is a free-form product attribute. Catalogs and scanners send these as
// strings, numbers or booleans; they are normalized to their textual form.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*t = Text(strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		*t = Text(strconv.FormatBool(val))
	default:
		*t = Text(data)
	}
	return nil
}

// Product is a single shelf item. ExpiryDate is a calendar date (2006-01-02).
type Product struct {
	ID                int64   `json:"id" bson:"id"`
	Name              string  `json:"name" bson:"name"`
	ExpiryDate        string  `json:"expiryDate" bson:"expiryDate"`
	ManufacturingDate Text    `json:"manufacturingDate" bson:"manufacturingDate"`
	Protein           Text    `json:"protein" bson:"protein"`
	Vitamins          Text    `json:"vitamins" bson:"vitamins"`
	Weight            Text    `json:"weight" bson:"weight"`
	Category          Text    `json:"category" bson:"category"`
	Price             float64 `json:"price" bson:"price"`
	Ingredients       Text    `json:"ingredients" bson:"ingredients"`
	Description       Text    `json:"description" bson:"description"`
}

// Submission is a structured product record sent by a client, optionally
// carrying the scan code it was entered for.
type Submission struct {
	ID                int64   `json:"id" validate:"required"`
	Name              string  `json:"name" validate:"required"`
	ExpiryDate        string  `json:"expiryDate" validate:"required"`
	ManufacturingDate Text    `json:"manufacturingDate"`
	Protein           Text    `json:"protein"`
	Vitamins          Text    `json:"vitamins"`
	Weight            Text    `json:"weight"`
	Category          Text    `json:"category"`
	Price             float64 `json:"price" validate:"gte=0"`
	Ingredients       Text    `json:"ingredients"`
	Description       Text    `json:"description"`
	Code              string  `json:"code,omitempty"`
	Barcode           string  `json:"barcode,omitempty"`
}

// ScanCode returns the code the submission was entered for, if any.
func (s Submission) ScanCode() string {
	if s.Code != "" {
		return s.Code
	}
	return s.Barcode
}

// Product strips the scan code; once resolved the code is only a lookup key.
func (s Submission) Product() Product {
	return Product{
		ID:                s.ID,
		Name:              s.Name,
		ExpiryDate:        s.ExpiryDate,
		ManufacturingDate: s.ManufacturingDate,
		Protein:           s.Protein,
		Vitamins:          s.Vitamins,
		Weight:            s.Weight,
		Category:          s.Category,
		Price:             s.Price,
		Ingredients:       s.Ingredients,
		Description:       s.Description,
	}
}

// CatalogItem is the subset of external catalog metadata mapped onto a Product.
type CatalogItem struct {
	Code                string
	Name                string
	ManufacturingPlaces string
	Proteins            Text
	Vitamins            Text
	Quantity            string
	Categories          string
	Ingredients         string
	GenericName         string
}

type InboundKind int

const (
	InboundCode InboundKind = iota
	InboundSubmission
	InboundDelete
)

func (k InboundKind) String() string {
	switch k {
	case InboundCode:
		return "code"
	case InboundSubmission:
		return "submission"
	case InboundDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Inbound is a decoded client frame.
type Inbound struct {
	Kind       InboundKind
	Code       string
	Submission Submission
	ProductID  int64
}

type MessageType string

const (
	MessageInitial     MessageType = "initial"
	MessageUpdate      MessageType = "update"
	MessageManualInput MessageType = "manualInput"
	MessageError       MessageType = "error"
)

// Message is an outbound protocol envelope. Its wire shape depends on Type.
type Message struct {
	Type     MessageType
	Products []Product
	Barcode  string
	Text     string
}

func SnapshotMessage(t MessageType, products []Product) Message {
	return Message{Type: t, Products: products}
}

func ManualInputMessage(code, text string) Message {
	return Message{Type: MessageManualInput, Barcode: code, Text: text}
}

func ErrorMessage(text string) Message {
	return Message{Type: MessageError, Text: text}
}

func (m Message) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case MessageInitial, MessageUpdate:
		products := m.Products
		if products == nil {
			products = []Product{}
		}
		return json.Marshal(struct {
			Type     MessageType `json:"type"`
			Products []Product   `json:"products"`
		}{m.Type, products})
	case MessageManualInput:
		return json.Marshal(struct {
			Type    MessageType `json:"type"`
			Barcode string      `json:"barcode"`
			Message string      `json:"message"`
		}{m.Type, m.Barcode, m.Text})
	default:
		return json.Marshal(struct {
			Type    MessageType `json:"type"`
			Message string      `json:"message"`
		}{m.Type, m.Text})
	}
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     MessageType `json:"type"`
		Products []Product   `json:"products"`
		Barcode  string      `json:"barcode"`
		Message  string      `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Message{Type: raw.Type, Products: raw.Products, Barcode: raw.Barcode, Text: raw.Message}
	return nil
}

type MutationKind int

const (
	MutationNone MutationKind = iota
	MutationAdded
	MutationRemoved
)

func (k MutationKind) String() string {
	switch k {
	case MutationAdded:
		return "added"
	case MutationRemoved:
		return "removed"
	default:
		return "none"
	}
}

// MutationResult reports what a registry mutation did.
type MutationResult struct {
	Kind    MutationKind
	Product Product
	Code    string
}

// Alert is a rendered near-expiry notification handed to sinks.
type Alert struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Products    []Product `json:"products"`
	HorizonDays int       `json:"horizonDays"`
	GeneratedAt time.Time `json:"generatedAt"`
}
