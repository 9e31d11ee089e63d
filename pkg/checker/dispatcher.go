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

// Package checker executes health checks. Every strategy turns its outcome,
// including failures, into a models.CheckResult.
package checker

import (
	"context"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

// Strategy runs one kind of check. Implementations never return errors or
// panic; failures are encoded in the result.
type Strategy interface {
	Execute(ctx context.Context, check *models.CheckDefinition) *models.CheckResult
}

// Dispatcher routes a check to the strategy for its effective type.
type Dispatcher struct {
	http    Strategy
	tls     Strategy
	browser Strategy
	logger  logger.Logger
}

// NewDispatcher wires the strategies. A nil strategy disables that check type
// on this worker.
func NewDispatcher(httpStrategy, tlsStrategy, browserStrategy Strategy, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		http:    httpStrategy,
		tls:     tlsStrategy,
		browser: browserStrategy,
		logger:  log,
	}
}

// Execute runs check and reports whether any strategy handled it.
func (d *Dispatcher) Execute(ctx context.Context, check *models.CheckDefinition) (*models.CheckResult, bool) {
	checkType := check.EffectiveType()

	var strategy Strategy

	switch checkType {
	case models.CheckTypeHTTP:
		strategy = d.http
	case models.CheckTypeTLS:
		strategy = d.tls
	case models.CheckTypeBrowser:
		strategy = d.browser
	default:
		d.logger.Warn().
			Str("check_id", check.ID).
			Str("type", string(check.Type)).
			Msg("Unknown check type, skipping")

		return nil, false
	}

	if strategy == nil {
		d.logger.Warn().
			Str("check_id", check.ID).
			Str("type", string(checkType)).
			Msg("No strategy configured for check type, skipping")

		return nil, false
	}

	result := strategy.Execute(ctx, check)

	recordExecution(ctx, checkType, result)

	d.logger.Debug().
		Str("check_id", check.ID).
		Str("type", string(checkType)).
		Bool("success", result.Success).
		Int("code", result.ResponseCode).
		Int64("latency_ms", result.LatencyMs).
		Str("classification", string(result.Classification)).
		Msg("Check executed")

	return result, true
}
