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
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ClientIDHeader lets scanner devices and browser tabs identify themselves.
const ClientIDHeader = "X-FreshVault-Client-ID"

// GenerateClientID derives a stable label for the connecting client. It is
// only used for logging; sessions are keyed by their own id.
func GenerateClientID(r *http.Request) string {
	if clientID := strings.TrimSpace(r.Header.Get(ClientIDHeader)); clientID != "" {
		return clientID
	}

	host := remoteHost(r)
	if host == "" {
		return uuid.New().String()
	}

	hash := sha256.Sum256([]byte(host + "|" + r.Header.Get("User-Agent")))
	return hex.EncodeToString(hash[:])[:12]
}

func remoteHost(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if r.RemoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		host = ip.String()
	}
	return host
}
