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

import "time"

// Classification names the failure mode of a check execution.
type Classification string

const (
	ClassOK             Classification = "ok"
	ClassHTTPError      Classification = "http_error"
	ClassTransportError Classification = "transport_error"
	ClassInvalidConfig  Classification = "invalid_config"
	ClassTLSExpiring    Classification = "tls_expiring"
	ClassTLSError       Classification = "tls_error"
	ClassBlocked        Classification = "blocked"
	ClassPoolExhausted  Classification = "pool_exhausted"
	ClassBrowserError   Classification = "browser_error"
)

// CheckResult is the normalized outcome of one check execution.
type CheckResult struct {
	Success          bool           `json:"success"`
	ResponseCode     int            `json:"response_code"`
	StatusText       string         `json:"status_text"`
	LatencyMs        int64          `json:"latency_ms"`
	DOMLoadTimeMs    *int64         `json:"dom_load_time_ms,omitempty"`
	TTFBMs           *int64         `json:"ttfb_ms,omitempty"`
	SSLExpiresInDays *int           `json:"ssl_expires_in_days,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	Details          string         `json:"details,omitempty"`
	Classification   Classification `json:"classification"`
}

// Detail returns the error message when present, otherwise the free-text details.
func (r *CheckResult) Detail() string {
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}

	return r.Details
}

// FailedResult builds a failed result with the latency measured since start.
func FailedResult(start time.Time, code int, statusText string, class Classification, msg string) *CheckResult {
	return &CheckResult{
		Success:        false,
		ResponseCode:   code,
		StatusText:     statusText,
		LatencyMs:      time.Since(start).Milliseconds(),
		ErrorMessage:   msg,
		Classification: class,
	}
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
