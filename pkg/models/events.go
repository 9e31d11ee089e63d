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

// Broker subjects.
const (
	SubjectRawMeasurements = "raw-measurements"
	SubjectStatusUpdates   = "service-status-updates"
	SubjectAlerts          = "alerts"
)

// CloudEvent types.
const (
	EventTypeRawMeasurement = "io.pingtower.measurement.raw"
	EventTypeStatusChange   = "io.pingtower.service.status"
	EventTypeAlert          = "io.pingtower.alert"
)

// CloudEvent represents a CloudEvents v1.0 compliant event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// RawMeasurement is emitted once per executed check.
type RawMeasurement struct {
	CheckID          string    `json:"checkId"`
	ServiceID        string    `json:"serviceId"`
	CheckType        CheckType `json:"checkType,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	LatencyMs        int64     `json:"latencyMs"`
	DOMLoadTimeMs    *int64    `json:"domLoadTimeMs,omitempty"`
	TTFBMs           *int64    `json:"ttfbMs,omitempty"`
	SSLExpiresInDays *int      `json:"sslExpiresInDays,omitempty"`
	ResponseCode     int       `json:"responseCode"`
	StatusText       string    `json:"statusText"`
	Success          bool      `json:"success"`
	ErrorMessage     string    `json:"errorMessage,omitempty"`
}

// NewRawMeasurement builds the measurement event for a finished execution.
func NewRawMeasurement(check *CheckDefinition, result *CheckResult, ts time.Time) *RawMeasurement {
	return &RawMeasurement{
		CheckID:          check.ID,
		ServiceID:        check.ServiceID,
		CheckType:        check.EffectiveType(),
		Timestamp:        ts.UTC(),
		LatencyMs:        result.LatencyMs,
		DOMLoadTimeMs:    result.DOMLoadTimeMs,
		TTFBMs:           result.TTFBMs,
		SSLExpiresInDays: result.SSLExpiresInDays,
		ResponseCode:     result.ResponseCode,
		StatusText:       result.StatusText,
		Success:          result.Success,
		ErrorMessage:     result.ErrorMessage,
	}
}

// MeasuredType returns the check type of the measurement. Events from older
// producers carry no type, so it is inferred from the metrics present.
func (m *RawMeasurement) MeasuredType() CheckType {
	if m.CheckType != "" {
		if t, ok := ParseCheckType(string(m.CheckType)); ok {
			return t
		}
	}

	switch {
	case m.SSLExpiresInDays != nil:
		return CheckTypeTLS
	case m.DOMLoadTimeMs != nil:
		return CheckTypeBrowser
	default:
		return CheckTypeHTTP
	}
}

// StatusChange is emitted only when a check's status differs from the
// previously recorded one.
type StatusChange struct {
	CheckID        string        `json:"checkId"`
	ServiceID      string        `json:"serviceId"`
	PreviousStatus ServiceStatus `json:"previousStatus,omitempty"`
	NewStatus      ServiceStatus `json:"newStatus"`
	Timestamp      time.Time     `json:"timestamp"`
	Details        string        `json:"details,omitempty"`
}

// AlertEvent is the enriched, human-facing form of a status change.
type AlertEvent struct {
	ServiceID      string        `json:"serviceId"`
	ServiceName    string        `json:"serviceName"`
	Environment    string        `json:"environment"`
	PreviousStatus ServiceStatus `json:"previousStatus"`
	NewStatus      ServiceStatus `json:"newStatus"`
	Timestamp      time.Time     `json:"timestamp"`
	Message        string        `json:"message"`
}
