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
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/GERONlMO/pingtower/pkg/models"
)

const serviceColumns = `id, name, environment, enabled, status, last_check,
       last_dom_load_time_ms, last_ttfb_ms, ssl_expires_in_days, last_status_text,
       url, interval_sec, timeout_sec, degradation_threshold_ms`

// ListServices returns every service ordered by name.
func (s *CNPGStore) ListServices(ctx context.Context) ([]*models.ServiceSummary, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: services: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var services []*models.ServiceSummary

	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}

		services = append(services, svc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate services: %w", ErrFailedToQuery, err)
	}

	return services, nil
}

// GetService returns one service or ErrServiceNotFound.
func (s *CNPGStore) GetService(ctx context.Context, serviceID string) (*models.ServiceSummary, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, serviceID)

	svc, err := scanService(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, serviceID)
	}

	return svc, err
}

func scanService(row pgx.Row) (*models.ServiceSummary, error) {
	var (
		svc        models.ServiceSummary
		status     string
		statusText *string
		url        *string
	)

	err := row.Scan(
		&svc.ID,
		&svc.Name,
		&svc.Environment,
		&svc.Enabled,
		&status,
		&svc.LastCheck,
		&svc.LastDOMLoadTimeMs,
		&svc.LastTTFBMs,
		&svc.SSLExpiresInDays,
		&statusText,
		&url,
		&svc.IntervalSec,
		&svc.TimeoutSec,
		&svc.DegradationThresholdMs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("%w: service row: %w", ErrFailedToScan, err)
	}

	svc.Status = models.ServiceStatus(status)

	if statusText != nil {
		svc.LastStatusText = *statusText
	}

	if url != nil {
		svc.URL = *url
	}

	return &svc, nil
}

// ApplyMeasurement writes the summary fields owned by the measurement's check
// type. last_check only moves forward.
func (s *CNPGStore) ApplyMeasurement(ctx context.Context, m *models.RawMeasurement) error {
	if m == nil || m.ServiceID == "" || m.CheckID == "" {
		return ErrMeasurementInvalid
	}

	query, args := buildMeasurementUpdate(m)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: apply measurement for %s: %w", ErrFailedToUpdate, m.ServiceID, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, m.ServiceID)
	}

	return nil
}

// buildMeasurementUpdate renders the UPDATE for the fields OwnedFields grants
// the measurement's type. Absent optional metrics keep their stored value.
// $1 is always the service id.
func buildMeasurementUpdate(m *models.RawMeasurement) (string, []any) {
	args := []any{m.ServiceID}
	sets := make([]string, 0, len(models.SummaryFieldOwners))

	for _, field := range models.OwnedFields(m.MeasuredType()) {
		var value any

		switch field {
		case models.FieldLastCheck:
			args = append(args, m.Timestamp.UTC())
			sets = append(sets, fmt.Sprintf("last_check = GREATEST(COALESCE(last_check, $%d), $%d)", len(args), len(args)))

			continue
		case models.FieldLastTTFB:
			if m.TTFBMs == nil {
				continue
			}

			value = *m.TTFBMs
		case models.FieldLastStatusText:
			value = m.StatusText
		case models.FieldLastDOMLoad:
			if m.DOMLoadTimeMs == nil {
				continue
			}

			value = *m.DOMLoadTimeMs
		case models.FieldSSLExpiresDays:
			if m.SSLExpiresInDays == nil {
				continue
			}

			value = *m.SSLExpiresInDays
		default:
			continue
		}

		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", field, len(args)))
	}

	return "UPDATE services SET " + strings.Join(sets, ", ") + " WHERE id = $1", args
}

const applyStatusSQL = `
UPDATE services
SET status = $2,
    status_changed_at = $3,
    last_check = GREATEST(COALESCE(last_check, $3), $3)
WHERE id = $1
  AND (
    status_changed_at IS NULL
    OR status_changed_at < $3
    OR (status_changed_at = $3 AND status <> $2)
  )`

// ApplyStatus sets the aggregate status from a transition event. A redelivered
// event and an event older than the last applied one both report
// applied=false and leave the row untouched.
func (s *CNPGStore) ApplyStatus(ctx context.Context, change *models.StatusChange) (bool, error) {
	if !change.NewStatus.Valid() {
		return false, fmt.Errorf("%w: invalid status %q", ErrFailedToUpdate, change.NewStatus)
	}

	tag, err := s.pool.Exec(ctx, applyStatusSQL, change.ServiceID, string(change.NewStatus), change.Timestamp.UTC())
	if err != nil {
		return false, fmt.Errorf("%w: apply status for %s: %w", ErrFailedToUpdate, change.ServiceID, err)
	}

	return tag.RowsAffected() > 0, nil
}
