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

// Package measurements ingests raw measurement events into the analytics
// store and the operational service summaries.
package measurements

import (
	"context"
	"errors"
	"fmt"

	"github.com/GERONlMO/pingtower/pkg/db"
	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
	"github.com/GERONlMO/pingtower/pkg/natsutil"
)

// ConsumerName is the durable JetStream consumer for raw measurements.
const ConsumerName = "control-tower-measurements"

// Refresher pushes the current view of one service to dashboard observers.
type Refresher interface {
	RefreshAndPush(ctx context.Context, serviceID string)
}

// Processor handles raw-measurements messages.
type Processor struct {
	analytics db.AnalyticsStore
	services  db.ServiceStore
	dashboard Refresher
	logger    logger.Logger
}

var _ natsutil.Processor = (*Processor)(nil)

// NewProcessor creates a measurement ingestion processor.
func NewProcessor(analytics db.AnalyticsStore, services db.ServiceStore, dashboard Refresher, log logger.Logger) *Processor {
	return &Processor{
		analytics: analytics,
		services:  services,
		dashboard: dashboard,
		logger:    log,
	}
}

// Process appends the measurement to analytics, folds the owned fields into
// the service summary and pushes the refreshed view. Storage failures are
// logged; only undecodable payloads are rejected.
func (p *Processor) Process(ctx context.Context, _ string, data []byte) error {
	var m models.RawMeasurement

	if err := natsutil.DecodeEvent(data, &m); err != nil {
		return fmt.Errorf("%w: %w", natsutil.ErrMalformedEvent, err)
	}

	if m.ServiceID == "" || m.CheckID == "" {
		return fmt.Errorf("%w: measurement without check or service id", natsutil.ErrMalformedEvent)
	}

	if err := p.analytics.InsertMeasurement(ctx, &m); err != nil {
		p.logger.Error().Err(err).Str("service_id", m.ServiceID).Msg("Failed to write measurement to analytics")
	}

	if err := p.services.ApplyMeasurement(ctx, &m); err != nil {
		if errors.Is(err, db.ErrServiceNotFound) {
			p.logger.Warn().Str("service_id", m.ServiceID).Msg("Measurement for unknown service")
			return nil
		}

		p.logger.Error().Err(err).Str("service_id", m.ServiceID).Msg("Failed to update service summary")

		return nil
	}

	p.logger.Debug().
		Str("service_id", m.ServiceID).
		Str("check_type", string(m.MeasuredType())).
		Bool("success", m.Success).
		Msg("Measurement applied")

	p.dashboard.RefreshAndPush(ctx, m.ServiceID)

	return nil
}
