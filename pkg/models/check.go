/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CheckType identifies the execution strategy for a check.
type CheckType string

const (
	CheckTypeHTTP    CheckType = "HTTP"
	CheckTypeTLS     CheckType = "TLS"
	CheckTypeBrowser CheckType = "BROWSER"
)

// ParseCheckType normalizes a stored check type. SSL is accepted as an alias of TLS.
func ParseCheckType(s string) (CheckType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HTTP":
		return CheckTypeHTTP, true
	case "TLS", "SSL":
		return CheckTypeTLS, true
	case "BROWSER":
		return CheckTypeBrowser, true
	default:
		return CheckType(s), false
	}
}

// CheckStatus is the last-known outcome recorded on a check row.
type CheckStatus string

const (
	CheckStatusOK      CheckStatus = "ok"
	CheckStatusFail    CheckStatus = "fail"
	CheckStatusUnknown CheckStatus = "unknown"
)

// CheckStatusFromSuccess maps an execution outcome to a check status.
func CheckStatusFromSuccess(success bool) CheckStatus {
	if success {
		return CheckStatusOK
	}

	return CheckStatusFail
}

// ServiceStatus returns the aggregate service status a check status maps to.
func (s CheckStatus) ServiceStatus() ServiceStatus {
	switch s {
	case CheckStatusOK:
		return ServiceStatusOK
	case CheckStatusFail:
		return ServiceStatusCrit
	default:
		return ServiceStatusUnknown
	}
}

// CheckConfig is the type-specific configuration document of a check.
type CheckConfig map[string]interface{}

// String returns the trimmed string value for key, or "" when absent.
func (c CheckConfig) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}

	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

// Int returns the integer value for key, or def when absent or unparsable.
// JSON numbers and numeric strings are both accepted.
func (c CheckConfig) Int(key string, def int) int {
	v, ok := c[key]
	if !ok || v == nil {
		return def
	}

	switch value := v.(type) {
	case float64:
		return int(value)
	case int:
		return value
	case int64:
		return int(value)
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}

	return def
}

// CheckDefinition is a configured, schedulable health probe.
type CheckDefinition struct {
	ID            string      `json:"id"`
	ServiceID     string      `json:"service_id"`
	Type          CheckType   `json:"type"`
	Enabled       bool        `json:"enabled"`
	Schedule      string      `json:"schedule"`
	Config        CheckConfig `json:"config"`
	LastStatus    CheckStatus `json:"last_status"`
	LastLatencyMs *int64      `json:"last_latency_ms,omitempty"`
	LastExecution *time.Time  `json:"last_execution,omitempty"`
}

// EffectiveType returns the strategy that actually measures the check.
// HTTP checks configured with check_mode=browser run as browser checks.
func (c *CheckDefinition) EffectiveType() CheckType {
	if c.Type == CheckTypeHTTP && strings.EqualFold(c.Config.String("check_mode"), "browser") {
		return CheckTypeBrowser
	}

	return c.Type
}
