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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "string", input: `"30s"`, want: 30 * time.Second},
		{name: "nanoseconds", input: `1000000000`, want: time.Second},
		{name: "bad string", input: `"soon"`, wantErr: true},
		{name: "bool", input: `true`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var d Duration

			err := json.Unmarshal([]byte(tc.input), &d)
			if tc.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, time.Duration(d))
		})
	}
}

func TestCheckConfigAccessors(t *testing.T) {
	t.Parallel()

	var cfg CheckConfig
	require.NoError(t, json.Unmarshal([]byte(`{"url":" https://a.example ","timeout_ms":"2500","expected_code":201}`), &cfg))

	assert.Equal(t, "https://a.example", cfg.String("url"))
	assert.Equal(t, 2500, cfg.Int("timeout_ms", 5000))
	assert.Equal(t, 201, cfg.Int("expected_code", 200))
	assert.Equal(t, 7, cfg.Int("missing", 7))
	assert.Empty(t, cfg.String("missing"))
}

func TestEffectiveType(t *testing.T) {
	t.Parallel()

	httpCheck := &CheckDefinition{Type: CheckTypeHTTP, Config: CheckConfig{"check_mode": "Browser"}}
	assert.Equal(t, CheckTypeBrowser, httpCheck.EffectiveType())

	plain := &CheckDefinition{Type: CheckTypeHTTP, Config: CheckConfig{}}
	assert.Equal(t, CheckTypeHTTP, plain.EffectiveType())

	tlsCheck := &CheckDefinition{Type: CheckTypeTLS, Config: CheckConfig{"check_mode": "browser"}}
	assert.Equal(t, CheckTypeTLS, tlsCheck.EffectiveType())
}

func TestOwnedFields(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []SummaryField{FieldLastCheck, FieldLastTTFB, FieldLastStatusText}, OwnedFields(CheckTypeHTTP))
	assert.Equal(t, []SummaryField{FieldLastCheck, FieldSSLExpiresDays}, OwnedFields(CheckTypeTLS))
	assert.Equal(t, []SummaryField{FieldLastCheck, FieldLastDOMLoad}, OwnedFields(CheckTypeBrowser))
}

func TestMeasuredTypeInference(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CheckTypeTLS, (&RawMeasurement{SSLExpiresInDays: IntPtr(10)}).MeasuredType())
	assert.Equal(t, CheckTypeBrowser, (&RawMeasurement{DOMLoadTimeMs: Int64Ptr(120)}).MeasuredType())
	assert.Equal(t, CheckTypeHTTP, (&RawMeasurement{TTFBMs: Int64Ptr(20)}).MeasuredType())
	assert.Equal(t, CheckTypeTLS, (&RawMeasurement{CheckType: "ssl"}).MeasuredType())
}

func TestRawMeasurementWireFormat(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	check := &CheckDefinition{ID: "c1", ServiceID: "s1", Type: CheckTypeHTTP}
	result := &CheckResult{Success: false, ResponseCode: 500, StatusText: "500 Internal Server Error", LatencyMs: 42}

	b, err := json.Marshal(NewRawMeasurement(check, result, ts))
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &fields))

	assert.Equal(t, "c1", fields["checkId"])
	assert.Equal(t, "s1", fields["serviceId"])
	assert.Equal(t, "2025-03-01T12:00:00Z", fields["timestamp"])
	assert.InDelta(t, 500, fields["responseCode"], 0)
	assert.Equal(t, false, fields["success"])
	assert.NotContains(t, fields, "sslExpiresInDays")
}

func TestWindowMetricsUptime(t *testing.T) {
	t.Parallel()

	m := WindowMetrics{OKCount: 7, Total: 10}
	assert.InDelta(t, 70.0, m.Uptime(), 1e-9)
	assert.InDelta(t, 0.0, WindowMetrics{}.Uptime(), 0)
}

func TestNewDashboardView(t *testing.T) {
	t.Parallel()

	svc := &ServiceSummary{ID: "s1", Name: "Shop", Environment: "prod", Status: ServiceStatusOK, LastTTFBMs: Int64Ptr(33)}
	view := NewDashboardView(svc, WindowMetrics{ServiceID: "s1", P95Ms: 123.456, AvgMs: 80.004, OKCount: 7, Total: 10})

	assert.Equal(t, "Shop", view.Name)
	assert.InDelta(t, 70.0, view.Uptime, 1e-9)
	assert.Equal(t, uint64(7), view.OK)
	assert.InDelta(t, 123.46, view.P95, 1e-9)
	assert.True(t, view.IsOK)
	assert.Equal(t, int64(33), *view.TTFB)

	empty := NewDashboardView(&ServiceSummary{ID: "s2"}, WindowMetrics{})
	assert.Equal(t, ServiceStatusUnknown, empty.Status)
	assert.False(t, empty.IsOK)
	assert.Zero(t, empty.Uptime)
}

func TestCheckStatusMapping(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ServiceStatusOK, CheckStatusFromSuccess(true).ServiceStatus())
	assert.Equal(t, ServiceStatusCrit, CheckStatusFromSuccess(false).ServiceStatus())
	assert.Equal(t, ServiceStatusUnknown, CheckStatus("").ServiceStatus())
}
