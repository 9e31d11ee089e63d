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

// Package alerts delivers alert events to the configured notification sink.
package alerts

import (
	"context"
	"fmt"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
	"github.com/GERONlMO/pingtower/pkg/natsutil"
	"github.com/GERONlMO/pingtower/pkg/notify"
)

// ConsumerName is the durable JetStream consumer for alerts.
const ConsumerName = "control-tower-alerts"

// Processor handles alerts messages.
type Processor struct {
	sink   notify.Sink
	logger logger.Logger
}

var _ natsutil.Processor = (*Processor)(nil)

// NewProcessor creates an alert delivery processor.
func NewProcessor(sink notify.Sink, log logger.Logger) *Processor {
	return &Processor{sink: sink, logger: log}
}

// Process formats the alert and hands it to the sink. Delivery failures are
// logged and the message is acknowledged.
func (p *Processor) Process(ctx context.Context, _ string, data []byte) error {
	var alert models.AlertEvent

	if err := natsutil.DecodeEvent(data, &alert); err != nil {
		return fmt.Errorf("%w: %w", natsutil.ErrMalformedEvent, err)
	}

	if alert.ServiceID == "" {
		return fmt.Errorf("%w: alert without service id", natsutil.ErrMalformedEvent)
	}

	if err := p.sink.Send(ctx, notify.FormatAlert(&alert)); err != nil {
		p.logger.Error().Err(err).Str("service_id", alert.ServiceID).Msg("Failed to deliver alert")
		return nil
	}

	p.logger.Info().
		Str("service_id", alert.ServiceID).
		Str("new_status", string(alert.NewStatus)).
		Msg("Alert delivered")

	return nil
}
