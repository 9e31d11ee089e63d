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

// Package status applies service status transitions and raises alerts.
package status

import (
	"context"
	"fmt"

	"github.com/GERONlMO/pingtower/pkg/db"
	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
	"github.com/GERONlMO/pingtower/pkg/natsutil"
)

// ConsumerName is the durable JetStream consumer for status transitions.
const ConsumerName = "control-tower-status"

// Refresher pushes the current view of one service to dashboard observers.
type Refresher interface {
	RefreshAndPush(ctx context.Context, serviceID string)
}

// AlertPublisher emits enriched alert events.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, a *models.AlertEvent) error
}

// Processor handles service-status-updates messages.
type Processor struct {
	services  db.ServiceStore
	dashboard Refresher
	alerts    AlertPublisher
	logger    logger.Logger
}

var _ natsutil.Processor = (*Processor)(nil)

// NewProcessor creates a status transition processor.
func NewProcessor(services db.ServiceStore, dashboard Refresher, alerts AlertPublisher, log logger.Logger) *Processor {
	return &Processor{
		services:  services,
		dashboard: dashboard,
		alerts:    alerts,
		logger:    log,
	}
}

// Process sets the service status. A transition that actually changed the
// row is pushed to observers and announced on the alerts subject. A failed
// status write is returned for redelivery.
func (p *Processor) Process(ctx context.Context, _ string, data []byte) error {
	var change models.StatusChange

	if err := natsutil.DecodeEvent(data, &change); err != nil {
		return fmt.Errorf("%w: %w", natsutil.ErrMalformedEvent, err)
	}

	if change.ServiceID == "" || !change.NewStatus.Valid() {
		return fmt.Errorf("%w: status change for %q to %q", natsutil.ErrMalformedEvent, change.ServiceID, change.NewStatus)
	}

	applied, err := p.services.ApplyStatus(ctx, &change)
	if err != nil {
		return fmt.Errorf("apply status for %s: %w", change.ServiceID, err)
	}

	if !applied {
		p.logger.Debug().
			Str("service_id", change.ServiceID).
			Time("timestamp", change.Timestamp).
			Msg("Status change already applied or superseded")

		return nil
	}

	p.logger.Info().
		Str("service_id", change.ServiceID).
		Str("previous", string(change.PreviousStatus)).
		Str("new", string(change.NewStatus)).
		Msg("Service status updated")

	p.dashboard.RefreshAndPush(ctx, change.ServiceID)

	p.raiseAlert(ctx, &change)

	return nil
}

func (p *Processor) raiseAlert(ctx context.Context, change *models.StatusChange) {
	alert := &models.AlertEvent{
		ServiceID:      change.ServiceID,
		ServiceName:    change.ServiceID,
		PreviousStatus: change.PreviousStatus,
		NewStatus:      change.NewStatus,
		Timestamp:      change.Timestamp,
		Message:        change.Details,
	}

	if alert.PreviousStatus == "" {
		alert.PreviousStatus = models.ServiceStatusUnknown
	}

	svc, err := p.services.GetService(ctx, change.ServiceID)
	if err != nil {
		p.logger.Warn().Err(err).Str("service_id", change.ServiceID).Msg("Alerting without service details")
	} else {
		alert.ServiceName = svc.Name
		alert.Environment = svc.Environment
	}

	if err := p.alerts.PublishAlert(ctx, alert); err != nil {
		p.logger.Error().Err(err).Str("service_id", change.ServiceID).Msg("Failed to publish alert")
	}
}
