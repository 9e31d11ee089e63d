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

// Package db pkg/db/interfaces.go
package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/GERONlMO/pingtower/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/GERONlMO/pingtower/pkg/db CheckStore,ServiceStore,AnalyticsStore

// CheckStore holds check definitions and the per-check execution state.
type CheckStore interface {
	// ListEnabledChecks returns enabled checks of enabled services.
	ListEnabledChecks(ctx context.Context) ([]*models.CheckDefinition, error)
	// MarkExecuted moves last_execution forward to at.
	MarkExecuted(ctx context.Context, checkID string, at time.Time) error
	// RecordResult writes the outcome of one execution and returns the
	// status it replaced. applied is false when a newer execution already
	// wrote the row.
	RecordResult(
		ctx context.Context, checkID string, status models.CheckStatus, latencyMs int64, executedAt time.Time,
	) (previous models.CheckStatus, applied bool, err error)
}

// ServiceStore holds the operational service summaries.
type ServiceStore interface {
	ListServices(ctx context.Context) ([]*models.ServiceSummary, error)
	GetService(ctx context.Context, serviceID string) (*models.ServiceSummary, error)

	// ApplyMeasurement folds the fields owned by the measurement's check type
	// into the service row. The status column is never touched.
	ApplyMeasurement(ctx context.Context, m *models.RawMeasurement) error
	// ApplyStatus sets the aggregate status. Redelivered events and events
	// older than the last applied transition are reported as not applied.
	ApplyStatus(ctx context.Context, change *models.StatusChange) (applied bool, err error)
}

// AnalyticsStore is the append-only measurement history.
type AnalyticsStore interface {
	InsertMeasurement(ctx context.Context, m *models.RawMeasurement) error
	// WindowMetrics aggregates measurements newer than since. An empty
	// serviceIDs slice aggregates every service.
	WindowMetrics(ctx context.Context, since time.Time, serviceIDs ...string) (map[string]models.WindowMetrics, error)
	Close() error
}

// pgxQuerier is the subset of *pgxpool.Pool used by the CNPG stores.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
