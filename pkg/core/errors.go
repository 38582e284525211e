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

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrStoreUnavailable   = errors.New("product store unavailable")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrValidation         = errors.New("validation failed")
	ErrMalformedEvent     = errors.New("malformed event")
	ErrSessionNotFound    = errors.New("session not found")
	ErrEngineStopped      = errors.New("engine stopped")
	ErrUnknownStoreType   = errors.New("unknown store type")
	ErrUnknownSinkType    = errors.New("unknown sink type")
)
