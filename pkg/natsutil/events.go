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

package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/GERONlMO/pingtower/pkg/models"
)

var errEmptyPayload = errors.New("empty event payload")

// JetStreamPublisher is the publish side of jetstream.JetStream.
type JetStreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EventPublisher publishes pipeline events as CloudEvents to JetStream.
type EventPublisher struct {
	js     JetStreamPublisher
	source string
	now    func() time.Time
}

// NewEventPublisher creates a publisher stamping events with source.
func NewEventPublisher(js JetStreamPublisher, source string) *EventPublisher {
	return &EventPublisher{js: js, source: source, now: time.Now}
}

// PublishMeasurement publishes a raw measurement.
func (p *EventPublisher) PublishMeasurement(ctx context.Context, m *models.RawMeasurement) error {
	return p.publish(ctx, models.SubjectRawMeasurements, models.EventTypeRawMeasurement, m.Timestamp, m)
}

// PublishStatusChange publishes a status transition.
func (p *EventPublisher) PublishStatusChange(ctx context.Context, c *models.StatusChange) error {
	return p.publish(ctx, models.SubjectStatusUpdates, models.EventTypeStatusChange, c.Timestamp, c)
}

// PublishAlert publishes an enriched alert.
func (p *EventPublisher) PublishAlert(ctx context.Context, a *models.AlertEvent) error {
	return p.publish(ctx, models.SubjectAlerts, models.EventTypeAlert, a.Timestamp, a)
}

func (p *EventPublisher) publish(ctx context.Context, subject, eventType string, ts time.Time, data interface{}) error {
	if ts.IsZero() {
		ts = p.now()
	}

	ts = ts.UTC()

	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          p.source,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         subject,
		Time:            &ts,
		Data:            data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", subject, err)
	}

	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", subject, err)
	}

	return nil
}

// DecodeEvent unmarshals the data of a CloudEvent into dst. Payloads that
// are not wrapped in an envelope are decoded directly.
func DecodeEvent(payload []byte, dst interface{}) error {
	if len(payload) == 0 {
		return errEmptyPayload
	}

	var envelope struct {
		SpecVersion string          `json:"specversion"`
		Data        json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}

	if envelope.SpecVersion != "" && len(envelope.Data) > 0 {
		payload = envelope.Data
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}

	return nil
}
