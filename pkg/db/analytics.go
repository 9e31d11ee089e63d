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
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/timeplus-io/proton-go-driver/v2"
	"github.com/timeplus-io/proton-go-driver/v2/lib/driver"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

const (
	defaultProtonMaxConns    = 10
	defaultProtonIdleConns   = 5
	defaultProtonDialTimeout = 5 * time.Second
)

// ProtonAnalytics is the Timeplus Proton implementation of AnalyticsStore.
type ProtonAnalytics struct {
	conn   driver.Conn
	logger logger.Logger
}

var _ AnalyticsStore = (*ProtonAnalytics)(nil)

// NewProtonAnalytics opens the analytics connection and ensures the
// measurement stream exists.
func NewProtonAnalytics(ctx context.Context, cfg *models.ProtonDatabase, log logger.Logger) (*ProtonAnalytics, error) {
	if cfg == nil || len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("%w: proton addresses missing", ErrFailedOpenDB)
	}

	tlsConfig, err := createProtonTLSConfig(cfg.Security)
	if err != nil {
		return nil, err
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = defaultProtonMaxConns
	}

	idleConns := cfg.IdleConns
	if idleConns <= 0 {
		idleConns = defaultProtonIdleConns
	}

	conn, err := proton.Open(&proton.Options{
		Addr: cfg.Addresses,
		TLS:  tlsConfig,
		Auth: proton.Auth{
			Database: cfg.Name,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &proton.Compression{
			Method: proton.CompressionLZ4,
		},
		Settings: proton.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     cfg.DialTimeout.OrDefault(defaultProtonDialTimeout),
		MaxOpenConns:    maxConns,
		MaxIdleConns:    idleConns,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("%w: proton ping: %w", ErrFailedOpenDB, err)
	}

	if err := RunProtonMigrations(ctx, conn, log); err != nil {
		_ = conn.Close()

		return nil, err
	}

	return &ProtonAnalytics{conn: conn, logger: log}, nil
}

// createProtonTLSConfig builds the mTLS client config, or nil when security
// is not configured.
func createProtonTLSConfig(sec *models.SecurityConfig) (*tls.Config, error) {
	if sec == nil || sec.Mode != models.SecurityModeMTLS {
		return nil, nil
	}

	resolve := func(path string) string {
		if sec.CertDir != "" && !filepath.IsAbs(path) {
			return filepath.Join(sec.CertDir, path)
		}

		return path
	}

	cert, err := tls.LoadX509KeyPair(resolve(sec.TLS.CertFile), resolve(sec.TLS.KeyFile))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load client certificate: %w", ErrFailedOpenDB, err)
	}

	caCert, err := os.ReadFile(resolve(sec.TLS.CAFile))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CA certificate: %w", ErrFailedOpenDB, err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("%w: failed to append CA certificate to pool", ErrFailedOpenDB)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caCertPool,
		MinVersion:   tls.VersionTLS13,
		ServerName:   sec.ServerName,
	}, nil
}

// InsertMeasurement appends one measurement row.
func (a *ProtonAnalytics) InsertMeasurement(ctx context.Context, m *models.RawMeasurement) error {
	if m == nil || m.CheckID == "" || m.ServiceID == "" {
		return ErrMeasurementInvalid
	}

	batch, err := a.conn.PrepareBatch(ctx, "INSERT INTO measurements (* except _tp_time)")
	if err != nil {
		return fmt.Errorf("%w: prepare measurement batch: %w", ErrFailedToInsert, err)
	}

	if err := batch.Append(measurementRow(m)...); err != nil {
		return fmt.Errorf("%w: append measurement: %w", ErrFailedToInsert, err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("%w: send measurement batch: %w", ErrFailedToInsert, err)
	}

	return nil
}

// measurementRow orders values as the measurements stream declares them.
func measurementRow(m *models.RawMeasurement) []any {
	var sslDays *int32

	if m.SSLExpiresInDays != nil {
		days := clampInt32(*m.SSLExpiresInDays)
		sslDays = &days
	}

	return []any{
		m.CheckID,
		m.ServiceID,
		string(m.MeasuredType()),
		m.Timestamp.UTC(),
		m.Success,
		m.LatencyMs,
		clampInt32(m.ResponseCode),
		m.StatusText,
		m.ErrorMessage,
		m.DOMLoadTimeMs,
		m.TTFBMs,
		sslDays,
	}
}

func clampInt32(v int) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	default:
		return int32(v)
	}
}

// WindowMetrics runs one grouped aggregate over measurements newer than since.
func (a *ProtonAnalytics) WindowMetrics(
	ctx context.Context, since time.Time, serviceIDs ...string,
) (map[string]models.WindowMetrics, error) {
	query, args := buildWindowMetricsQuery(since, serviceIDs)

	rows, err := a.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: window metrics: %w", ErrFailedToQuery, err)
	}
	defer CloseRows(rows)

	metrics := make(map[string]models.WindowMetrics)

	for rows.Next() {
		var m models.WindowMetrics

		if err := rows.Scan(&m.ServiceID, &m.P95Ms, &m.AvgMs, &m.OKCount, &m.Total); err != nil {
			return nil, fmt.Errorf("%w: window metrics row: %w", ErrFailedToScan, err)
		}

		metrics[m.ServiceID] = m
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate window metrics: %w", ErrFailedToQuery, err)
	}

	return metrics, nil
}

// buildWindowMetricsQuery renders the grouped aggregate. $1 is the window
// start; each requested service id gets its own placeholder.
func buildWindowMetricsQuery(since time.Time, serviceIDs []string) (string, []any) {
	args := make([]any, 0, len(serviceIDs)+1)
	args = append(args, since.UTC())

	var filter string

	if len(serviceIDs) > 0 {
		placeholders := make([]string, 0, len(serviceIDs))

		for _, id := range serviceIDs {
			args = append(args, id)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}

		filter = " AND service_id IN (" + strings.Join(placeholders, ", ") + ")"
	}

	// A redelivered measurement is appended twice. Each execution is
	// identified by its check and its mark, so duplicates collapse before
	// aggregation.
	query := `SELECT
		service_id,
		quantile(latency_ms, 0.95) AS p95,
		avg(latency_ms) AS avg_latency,
		count_if(success) AS ok_count,
		count() AS total_count
	FROM (
		SELECT
			service_id,
			check_id,
			timestamp,
			any(latency_ms) AS latency_ms,
			any(success) AS success
		FROM table(measurements)
		WHERE timestamp > $1` + filter + `
		GROUP BY service_id, check_id, timestamp
	)
	GROUP BY service_id`

	return query, args
}

// Close closes the analytics connection.
func (a *ProtonAnalytics) Close() error {
	return a.conn.Close()
}
