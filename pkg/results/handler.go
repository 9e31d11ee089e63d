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

// Package results persists check outcomes and emits measurement and status
// transition events.
package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

var errNilResult = errors.New("nil check result")

// Handler turns a finished execution into a persisted check status plus events.
type Handler struct {
	store     ResultStore
	publisher EventPublisher
	now       func() time.Time
	logger    logger.Logger
}

// NewHandler creates a result handler.
func NewHandler(store ResultStore, publisher EventPublisher, log logger.Logger) *Handler {
	return &Handler{
		store:     store,
		publisher: publisher,
		now:       time.Now,
		logger:    log,
	}
}

// Handle records result for check. The measurement event is always attempted;
// a status-change event follows only when the stored status actually changed.
// Only the persistence failure is returned.
func (h *Handler) Handle(ctx context.Context, check *models.CheckDefinition, result *models.CheckResult) error {
	if result == nil {
		return errNilResult
	}

	executedAt := h.executedAt(check)

	if err := h.publisher.PublishMeasurement(ctx, models.NewRawMeasurement(check, result, executedAt)); err != nil {
		h.logger.Warn().Err(err).Str("check_id", check.ID).Msg("Failed to publish raw measurement")
	}

	newStatus := models.CheckStatusFromSuccess(result.Success)

	previous, applied, err := h.store.RecordResult(ctx, check.ID, newStatus, result.LatencyMs, executedAt)
	if err != nil {
		h.logger.Error().Err(err).Str("check_id", check.ID).Msg("Failed to persist check result")

		return fmt.Errorf("record result for check %s: %w", check.ID, err)
	}

	if !applied {
		h.logger.Debug().
			Str("check_id", check.ID).
			Time("executed_at", executedAt).
			Msg("Newer execution already recorded, dropping stale result")

		return nil
	}

	if !isTransition(previous, newStatus) {
		return nil
	}

	change := &models.StatusChange{
		CheckID:        check.ID,
		ServiceID:      check.ServiceID,
		PreviousStatus: previous.ServiceStatus(),
		NewStatus:      newStatus.ServiceStatus(),
		Timestamp:      executedAt,
		Details:        result.Detail(),
	}

	recordTransition(ctx, change)

	h.logger.Info().
		Str("check_id", check.ID).
		Str("service_id", check.ServiceID).
		Str("previous", string(change.PreviousStatus)).
		Str("new", string(change.NewStatus)).
		Msg("Check status changed")

	if err := h.publisher.PublishStatusChange(ctx, change); err != nil {
		h.logger.Warn().Err(err).Str("check_id", check.ID).Msg("Failed to publish status change")
	}

	return nil
}

// executedAt is the scheduler's mark for this execution. Ordering results by
// the mark keeps a slow older execution from overwriting a newer one.
func (h *Handler) executedAt(check *models.CheckDefinition) time.Time {
	if check.LastExecution != nil {
		return check.LastExecution.UTC()
	}

	return h.now().UTC()
}

// isTransition reports whether moving from previous to next is a change worth
// announcing. A check without a known previous status always announces.
func isTransition(previous, next models.CheckStatus) bool {
	switch previous {
	case models.CheckStatusOK, models.CheckStatusFail:
		return previous != next
	default:
		return true
	}
}

// Runner executes a check and hands the outcome to the Handler.
type Runner struct {
	executor Executor
	handler  *Handler
	logger   logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(executor Executor, handler *Handler, log logger.Logger) *Runner {
	return &Runner{executor: executor, handler: handler, logger: log}
}

// Run executes check end to end. Failures are logged; nothing is returned to
// the scheduler.
func (r *Runner) Run(ctx context.Context, check *models.CheckDefinition) {
	result, ok := r.executor.Execute(ctx, check)
	if !ok {
		return
	}

	if err := r.handler.Handle(ctx, check, result); err != nil {
		r.logger.Error().Err(err).Str("check_id", check.ID).Msg("Check result was not recorded")
	}
}
