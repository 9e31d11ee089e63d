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

// Package notify delivers formatted alert text to external channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

const defaultSendTimeout = 10 * time.Second

var errNotifyFailed = errors.New("failed to deliver notification")

// Sink sends one already formatted message.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// Header is a custom HTTP header added to webhook requests.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Config selects the notification channels.
type Config struct {
	Telegram *TelegramConfig `json:"telegram,omitempty"`
	Webhooks []WebhookConfig `json:"webhooks,omitempty"`
}

// New builds the sink for cfg. Without any enabled channel the result only
// logs the messages it is given.
func New(cfg Config, log logger.Logger) Sink {
	client := &http.Client{Timeout: defaultSendTimeout}

	var sinks []Sink

	if cfg.Telegram != nil && cfg.Telegram.Enabled() {
		sinks = append(sinks, NewTelegramSink(*cfg.Telegram, client))
	}

	for _, wh := range cfg.Webhooks {
		if !wh.Enabled || wh.URL == "" {
			continue
		}

		sinks = append(sinks, NewWebhookSink(wh, client))
	}

	switch len(sinks) {
	case 0:
		log.Warn().Msg("No notification channel configured, alerts will only be logged")
		return NewLogSink(log)
	case 1:
		return sinks[0]
	default:
		return MultiSink(sinks)
	}
}

// MultiSink fans a message out to every sink. All sinks are attempted; the
// failures are joined.
type MultiSink []Sink

func (m MultiSink) Send(ctx context.Context, text string) error {
	var errs []error

	for _, sink := range m {
		if err := sink.Send(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", errNotifyFailed, errors.Join(errs...))
	}

	return nil
}

// LogSink writes messages to the log instead of delivering them.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Send(_ context.Context, text string) error {
	s.logger.Info().Str("text", text).Msg("Notification (no channel configured)")
	return nil
}

// FormatAlert renders an alert as a Telegram Markdown message.
func FormatAlert(a *models.AlertEvent) string {
	emoji := "🔴"
	if a.NewStatus == models.ServiceStatusOK {
		emoji = "✅"
	}

	return fmt.Sprintf(
		"%s *PingTower Alert* %s\n\n"+
			"*Service:* %s (`%s`)\n"+
			"*Environment:* %s\n"+
			"*Status Change:* `%s` ➡️ `%s`\n"+
			"*Message:* %s\n"+
			"*Timestamp:* %s",
		emoji, emoji,
		a.ServiceName, a.ServiceID,
		a.Environment,
		a.PreviousStatus, a.NewStatus,
		a.Message,
		a.Timestamp.UTC().Format(time.RFC1123),
	)
}
