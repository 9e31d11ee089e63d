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

package db

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

var errConnReset = errors.New("connection reset by peer")

type recordedCall struct {
	sql  string
	args []any
}

// fakeQuerier serves canned results and records every statement.
type fakeQuerier struct {
	calls   []recordedCall
	execTag string
	execErr error
	row     *fakeRow
	rows    *fakeRows
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, recordedCall{sql: sql, args: args})
	return pgconn.NewCommandTag(f.execTag), f.execErr
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, recordedCall{sql: sql, args: args})
	return f.rows, nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.calls = append(f.calls, recordedCall{sql: sql, args: args})
	return f.row
}

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	return assign(dest, r.values)
}

type fakeRows struct {
	data [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.idx-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}

	r.idx++

	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.idx-1])
}

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}

	for i, v := range values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}

	return nil
}

func newTestStore(q pgxQuerier) *CNPGStore {
	return &CNPGStore{pool: q, logger: logger.NewTestLogger()}
}

func TestListEnabledChecksDecodesRows(t *testing.T) {
	t.Parallel()

	last := time.Date(2025, 3, 10, 9, 55, 0, 0, time.UTC)
	q := &fakeQuerier{rows: &fakeRows{data: [][]any{
		{"chk-1", "svc-1", "SSL", true, "*/5 * * * *", []byte(`{"url":"https://example.com","critical_days":14}`),
			"ok", models.Int64Ptr(120), &last},
		{"chk-2", "svc-1", "HTTP", true, "* * * * *", []byte(`{`), "unknown", (*int64)(nil), (*time.Time)(nil)},
		{"chk-3", "svc-2", "BROWSER", true, "@hourly", []byte(nil), "fail", (*int64)(nil), (*time.Time)(nil)},
	}}}

	checks, err := newTestStore(q).ListEnabledChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, checks, 2)

	assert.Equal(t, "chk-1", checks[0].ID)
	assert.Equal(t, models.CheckTypeTLS, checks[0].Type)
	assert.Equal(t, models.CheckStatusOK, checks[0].LastStatus)
	assert.Equal(t, "https://example.com", checks[0].Config.String("url"))
	assert.Equal(t, 14, checks[0].Config.Int("critical_days", 0))
	require.NotNil(t, checks[0].LastExecution)
	assert.Equal(t, last, *checks[0].LastExecution)

	assert.Equal(t, "chk-3", checks[1].ID)
	assert.Equal(t, models.CheckTypeBrowser, checks[1].Type)
	assert.NotNil(t, checks[1].Config)
	assert.Nil(t, checks[1].LastExecution)

	assert.Contains(t, q.calls[0].sql, "WHERE c.enabled AND s.enabled")
}

func TestMarkExecuted(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	q := &fakeQuerier{execTag: "UPDATE 1"}
	require.NoError(t, newTestStore(q).MarkExecuted(context.Background(), "chk-1", at))
	assert.Equal(t, []any{"chk-1", at}, q.calls[0].args)

	q = &fakeQuerier{execTag: "UPDATE 0"}
	err := newTestStore(q).MarkExecuted(context.Background(), "chk-1", at)
	require.ErrorIs(t, err, ErrCheckAlreadyMarked)

	q = &fakeQuerier{execErr: errConnReset}
	err = newTestStore(q).MarkExecuted(context.Background(), "chk-1", at)
	require.ErrorIs(t, err, ErrFailedToUpdate)
	require.ErrorIs(t, err, errConnReset)
}

func TestRecordResultReturnsPreviousStatus(t *testing.T) {
	t.Parallel()

	executedAt := time.Date(2025, 3, 10, 10, 0, 3, 0, time.UTC)
	q := &fakeQuerier{row: &fakeRow{values: []any{"fail"}}}

	previous, applied, err := newTestStore(q).
		RecordResult(context.Background(), "chk-1", models.CheckStatusOK, 87, executedAt)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.CheckStatusFail, previous)

	require.Len(t, q.calls, 1)
	assert.Contains(t, q.calls[0].sql, "FOR UPDATE")
	assert.Contains(t, q.calls[0].sql, "c.last_execution <= $4")
	assert.Equal(t, []any{"chk-1", "ok", int64(87), executedAt}, q.calls[0].args)
}

func TestRecordResultStaleWriteIsNotApplied(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{row: &fakeRow{err: pgx.ErrNoRows}}

	previous, applied, err := newTestStore(q).
		RecordResult(context.Background(), "chk-1", models.CheckStatusFail, 10, time.Now())
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, models.CheckStatusUnknown, previous)
}

func TestRecordResultPropagatesErrors(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{row: &fakeRow{err: errConnReset}}

	_, applied, err := newTestStore(q).
		RecordResult(context.Background(), "chk-1", models.CheckStatusFail, 10, time.Now())
	require.ErrorIs(t, err, errConnReset)
	assert.False(t, applied)
}

func TestBuildMeasurementUpdateWritesOnlyOwnedFields(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		m         *models.RawMeasurement
		wantSQL   string
		wantValue []any
	}{
		{
			name: "http",
			m: &models.RawMeasurement{
				ServiceID: "svc-1", CheckType: models.CheckTypeHTTP, Timestamp: ts,
				TTFBMs: models.Int64Ptr(35), StatusText: "200 OK",
			},
			wantSQL: "UPDATE services SET last_check = GREATEST(COALESCE(last_check, $2), $2), " +
				"last_ttfb_ms = $3, last_status_text = $4 WHERE id = $1",
			wantValue: []any{"svc-1", ts, int64(35), "200 OK"},
		},
		{
			name: "http failure keeps last ttfb",
			m: &models.RawMeasurement{
				ServiceID: "svc-1", CheckType: models.CheckTypeHTTP, Timestamp: ts, StatusText: "Exception",
			},
			wantSQL: "UPDATE services SET last_check = GREATEST(COALESCE(last_check, $2), $2), " +
				"last_status_text = $3 WHERE id = $1",
			wantValue: []any{"svc-1", ts, "Exception"},
		},
		{
			name: "browser",
			m: &models.RawMeasurement{
				ServiceID: "svc-1", CheckType: models.CheckTypeBrowser, Timestamp: ts,
				DOMLoadTimeMs: models.Int64Ptr(900), StatusText: "Page Loaded",
			},
			wantSQL: "UPDATE services SET last_check = GREATEST(COALESCE(last_check, $2), $2), " +
				"last_dom_load_time_ms = $3 WHERE id = $1",
			wantValue: []any{"svc-1", ts, int64(900)},
		},
		{
			name: "tls inferred from metrics",
			m: &models.RawMeasurement{
				ServiceID: "svc-1", Timestamp: ts, SSLExpiresInDays: models.IntPtr(42), StatusText: "Valid",
			},
			wantSQL: "UPDATE services SET last_check = GREATEST(COALESCE(last_check, $2), $2), " +
				"ssl_expires_in_days = $3 WHERE id = $1",
			wantValue: []any{"svc-1", ts, 42},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sql, args := buildMeasurementUpdate(tc.m)
			assert.Equal(t, tc.wantSQL, sql)
			assert.Equal(t, tc.wantValue, args)
			assert.NotContains(t, sql, "status =")
		})
	}
}

func TestApplyMeasurement(t *testing.T) {
	t.Parallel()

	m := &models.RawMeasurement{CheckID: "chk-1", ServiceID: "svc-1", CheckType: models.CheckTypeHTTP, Timestamp: time.Now()}

	q := &fakeQuerier{execTag: "UPDATE 1"}
	require.NoError(t, newTestStore(q).ApplyMeasurement(context.Background(), m))

	q = &fakeQuerier{execTag: "UPDATE 0"}
	require.ErrorIs(t, newTestStore(q).ApplyMeasurement(context.Background(), m), ErrServiceNotFound)

	require.ErrorIs(t, newTestStore(q).ApplyMeasurement(context.Background(), &models.RawMeasurement{}), ErrMeasurementInvalid)
}

func TestApplyStatus(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	change := &models.StatusChange{ServiceID: "svc-1", NewStatus: models.ServiceStatusCrit, Timestamp: ts}

	q := &fakeQuerier{execTag: "UPDATE 1"}
	applied, err := newTestStore(q).ApplyStatus(context.Background(), change)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []any{"svc-1", "CRIT", ts}, q.calls[0].args)
	assert.Contains(t, q.calls[0].sql, "status_changed_at < $3")
	assert.Contains(t, q.calls[0].sql, "status <> $2")

	q = &fakeQuerier{execTag: "UPDATE 0"}
	applied, err = newTestStore(q).ApplyStatus(context.Background(), change)
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = newTestStore(q).ApplyStatus(context.Background(), &models.StatusChange{ServiceID: "svc-1", NewStatus: "DOWN"})
	require.ErrorIs(t, err, ErrFailedToUpdate)
}

func TestGetService(t *testing.T) {
	t.Parallel()

	lastCheck := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	statusText := "200 OK"

	q := &fakeQuerier{row: &fakeRow{values: []any{
		"svc-1", "Checkout", "prod", true, "OK", &lastCheck,
		(*int64)(nil), models.Int64Ptr(41), models.IntPtr(30), &statusText,
		(*string)(nil), 60, 10, 1500,
	}}}

	svc, err := newTestStore(q).GetService(context.Background(), "svc-1")
	require.NoError(t, err)
	assert.Equal(t, "Checkout", svc.Name)
	assert.Equal(t, models.ServiceStatusOK, svc.Status)
	assert.Equal(t, "200 OK", svc.LastStatusText)
	assert.Empty(t, svc.URL)
	assert.Equal(t, int64(41), *svc.LastTTFBMs)
	assert.Equal(t, 30, *svc.SSLExpiresInDays)
	assert.Equal(t, 1500, svc.DegradationThresholdMs)

	q = &fakeQuerier{row: &fakeRow{err: pgx.ErrNoRows}}
	_, err = newTestStore(q).GetService(context.Background(), "missing")
	require.ErrorIs(t, err, ErrServiceNotFound)
}
