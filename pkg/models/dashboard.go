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
	"math"
	"time"
)

// WindowMetrics is the windowed analytics aggregate for one service.
type WindowMetrics struct {
	ServiceID string
	P95Ms     float64
	AvgMs     float64
	OKCount   uint64
	Total     uint64
}

// Uptime returns the success percentage, or 0 when nothing was measured.
func (m WindowMetrics) Uptime() float64 {
	if m.Total == 0 {
		return 0
	}

	return float64(m.OKCount) / float64(m.Total) * 100
}

// DashboardView is the compact read model pushed to dashboard subscribers.
type DashboardView struct {
	ID          string        `json:"id"`
	Name        string        `json:"n"`
	Environment string        `json:"e"`
	Status      ServiceStatus `json:"st"`
	P95         float64       `json:"p95"`
	Avg         float64       `json:"avg"`
	Uptime      float64       `json:"up"`
	OK          uint64        `json:"ok"`
	DOMLoad     *int64        `json:"dlt"`
	TTFB        *int64        `json:"ttfb"`
	SSLDays     *int          `json:"ssl"`
	LastCheck   *time.Time    `json:"lc"`
	IsOK        bool          `json:"io"`
}

// NewDashboardView joins a service row with its window metrics. Pass a zero
// WindowMetrics for services without analytics data.
func NewDashboardView(s *ServiceSummary, m WindowMetrics) DashboardView {
	status := s.Status
	if status == "" {
		status = ServiceStatusUnknown
	}

	return DashboardView{
		ID:          s.ID,
		Name:        s.Name,
		Environment: s.Environment,
		Status:      status,
		P95:         round2(m.P95Ms),
		Avg:         round2(m.AvgMs),
		Uptime:      round2(m.Uptime()),
		OK:          m.OKCount,
		DOMLoad:     s.LastDOMLoadTimeMs,
		TTFB:        s.LastTTFBMs,
		SSLDays:     s.SSLExpiresInDays,
		LastCheck:   s.LastCheck,
		IsOK:        status == ServiceStatusOK,
	}
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return math.Round(v*100) / 100
}
