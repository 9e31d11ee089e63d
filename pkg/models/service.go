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

// ServiceStatus is the aggregate health of a monitored service.
type ServiceStatus string

const (
	ServiceStatusOK      ServiceStatus = "OK"
	ServiceStatusCrit    ServiceStatus = "CRIT"
	ServiceStatusUnknown ServiceStatus = "UNKNOWN"
)

// ServiceStatusFromSuccess maps an execution outcome to a service status.
func ServiceStatusFromSuccess(success bool) ServiceStatus {
	if success {
		return ServiceStatusOK
	}

	return ServiceStatusCrit
}

// Valid reports whether s is one of the known statuses.
func (s ServiceStatus) Valid() bool {
	switch s {
	case ServiceStatusOK, ServiceStatusCrit, ServiceStatusUnknown:
		return true
	default:
		return false
	}
}

// ServiceSummary is the operational-store row for a monitored service.
type ServiceSummary struct {
	ID                     string        `json:"id"`
	Name                   string        `json:"name"`
	Environment            string        `json:"environment"`
	Enabled                bool          `json:"enabled"`
	Status                 ServiceStatus `json:"status"`
	LastCheck              *time.Time    `json:"last_check,omitempty"`
	LastDOMLoadTimeMs      *int64        `json:"last_dom_load_time_ms,omitempty"`
	LastTTFBMs             *int64        `json:"last_ttfb_ms,omitempty"`
	SSLExpiresInDays       *int          `json:"ssl_expires_in_days,omitempty"`
	LastStatusText         string        `json:"last_status_text,omitempty"`
	URL                    string        `json:"url,omitempty"`
	IntervalSec            int           `json:"interval_sec"`
	TimeoutSec             int           `json:"timeout_sec"`
	DegradationThresholdMs int           `json:"degradation_threshold_ms"`
}

// SummaryField names a ServiceSummary column written by measurement ingestion.
type SummaryField string

const (
	FieldLastCheck      SummaryField = "last_check"
	FieldLastTTFB       SummaryField = "last_ttfb_ms"
	FieldLastStatusText SummaryField = "last_status_text"
	FieldLastDOMLoad    SummaryField = "last_dom_load_time_ms"
	FieldSSLExpiresDays SummaryField = "ssl_expires_in_days"
)

// SummaryFieldOwners names the check type authoritative for each measurement
// field. An empty owner means every check type may write the field.
//
//nolint:gochecknoglobals // static ownership table
var SummaryFieldOwners = map[SummaryField]CheckType{
	FieldLastCheck:      "",
	FieldLastTTFB:       CheckTypeHTTP,
	FieldLastStatusText: CheckTypeHTTP,
	FieldLastDOMLoad:    CheckTypeBrowser,
	FieldSSLExpiresDays: CheckTypeTLS,
}

// summaryFieldOrder keeps generated statements deterministic.
//
//nolint:gochecknoglobals // static ordering
var summaryFieldOrder = []SummaryField{
	FieldLastCheck,
	FieldLastTTFB,
	FieldLastStatusText,
	FieldLastDOMLoad,
	FieldSSLExpiresDays,
}

// OwnedFields returns the summary fields a measurement of type t may write.
func OwnedFields(t CheckType) []SummaryField {
	fields := make([]SummaryField, 0, len(summaryFieldOrder))

	for _, f := range summaryFieldOrder {
		owner := SummaryFieldOwners[f]
		if owner == "" || owner == t {
			fields = append(fields, f)
		}
	}

	return fields
}
