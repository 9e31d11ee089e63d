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

package results

//go:generate mockgen -destination=mock_results.go -package=results github.com/GERONlMO/pingtower/pkg/results ResultStore,EventPublisher,Executor

import (
	"context"
	"time"

	"github.com/GERONlMO/pingtower/pkg/models"
)

// ResultStore persists the outcome of one execution on the check row and
// returns the status it replaced. applied is false when a newer execution
// already wrote the row.
type ResultStore interface {
	RecordResult(
		ctx context.Context, checkID string, status models.CheckStatus, latencyMs int64, executedAt time.Time,
	) (previous models.CheckStatus, applied bool, err error)
}

// EventPublisher emits pipeline events.
type EventPublisher interface {
	PublishMeasurement(ctx context.Context, m *models.RawMeasurement) error
	PublishStatusChange(ctx context.Context, c *models.StatusChange) error
}

// Executor runs a check and reports whether it was handled.
type Executor interface {
	Execute(ctx context.Context, check *models.CheckDefinition) (*models.CheckResult, bool)
}
