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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

// CNPGStore implements CheckStore and ServiceStore on Postgres.
type CNPGStore struct {
	pool   pgxQuerier
	logger logger.Logger
}

var (
	_ CheckStore   = (*CNPGStore)(nil)
	_ ServiceStore = (*CNPGStore)(nil)
)

// NewCNPGStore wraps an open pool.
func NewCNPGStore(pool *pgxpool.Pool, log logger.Logger) *CNPGStore {
	return &CNPGStore{pool: pool, logger: log}
}

const listEnabledChecksSQL = `
SELECT c.id, c.service_id, c.type, c.enabled, c.schedule, c.config,
       c.last_status, c.last_latency_ms, c.last_execution
FROM checks c
JOIN services s ON s.id = c.service_id
WHERE c.enabled AND s.enabled
ORDER BY c.id`

// ListEnabledChecks returns the enabled checks of enabled services. Rows with
// an unreadable config document are skipped with a warning.
func (s *CNPGStore) ListEnabledChecks(ctx context.Context) ([]*models.CheckDefinition, error) {
	rows, err := s.pool.Query(ctx, listEnabledChecksSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: enabled checks: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var checks []*models.CheckDefinition

	for rows.Next() {
		var (
			check      models.CheckDefinition
			checkType  string
			lastStatus string
			rawConfig  []byte
		)

		if err := rows.Scan(
			&check.ID,
			&check.ServiceID,
			&checkType,
			&check.Enabled,
			&check.Schedule,
			&rawConfig,
			&lastStatus,
			&check.LastLatencyMs,
			&check.LastExecution,
		); err != nil {
			return nil, fmt.Errorf("%w: check row: %w", ErrFailedToScan, err)
		}

		check.Type, _ = models.ParseCheckType(checkType)
		check.LastStatus = models.CheckStatus(lastStatus)

		cfg, err := decodeCheckConfig(rawConfig)
		if err != nil {
			s.logger.Warn().Err(err).Str("check_id", check.ID).Msg("Skipping check with unreadable config")
			continue
		}

		check.Config = cfg
		checks = append(checks, &check)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate checks: %w", ErrFailedToQuery, err)
	}

	return checks, nil
}

func decodeCheckConfig(raw []byte) (models.CheckConfig, error) {
	cfg := models.CheckConfig{}

	if len(raw) == 0 {
		return cfg, nil
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode check config: %w", err)
	}

	if cfg == nil {
		cfg = models.CheckConfig{}
	}

	return cfg, nil
}

const markExecutedSQL = `
UPDATE checks
SET last_execution = $2
WHERE id = $1 AND (last_execution IS NULL OR last_execution < $2)`

// MarkExecuted moves last_execution forward to at. It fails with
// ErrCheckAlreadyMarked when the row already carries at or a later mark,
// which lets several schedulers share one store without double firing.
func (s *CNPGStore) MarkExecuted(ctx context.Context, checkID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, markExecutedSQL, checkID, at.UTC())
	if err != nil {
		return fmt.Errorf("%w: mark check %s: %w", ErrFailedToUpdate, checkID, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrCheckAlreadyMarked, checkID)
	}

	return nil
}

// recordResultSQL locks the row, captures the status it is about to replace
// and writes the new one in one statement. The write only lands when no
// newer execution has been recorded.
const recordResultSQL = `
UPDATE checks AS c
SET last_status = $2,
    last_latency_ms = $3,
    last_execution = $4
FROM (
    SELECT id, last_status
    FROM checks
    WHERE id = $1
    FOR UPDATE
) AS prev
WHERE c.id = prev.id
  AND (c.last_execution IS NULL OR c.last_execution <= $4)
RETURNING prev.last_status`

// RecordResult persists one execution outcome and returns the previous status.
func (s *CNPGStore) RecordResult(
	ctx context.Context, checkID string, status models.CheckStatus, latencyMs int64, executedAt time.Time,
) (models.CheckStatus, bool, error) {
	var previous string

	err := s.pool.QueryRow(ctx, recordResultSQL, checkID, string(status), latencyMs, executedAt.UTC()).Scan(&previous)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return models.CheckStatusUnknown, false, nil
	case err != nil:
		return "", false, fmt.Errorf("%w: record result for %s: %w", ErrFailedToUpdate, checkID, err)
	}

	return models.CheckStatus(previous), true, nil
}
