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

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookConfig configures a generic JSON webhook.
type WebhookConfig struct {
	Enabled bool     `json:"enabled"`
	URL     string   `json:"url"`
	Headers []Header `json:"headers,omitempty"`
}

// WebhookSink posts {"text": ...} documents to a URL.
type WebhookSink struct {
	url     string
	headers []Header
	client  *http.Client
	now     func() time.Time
}

// NewWebhookSink creates a webhook sink.
func NewWebhookSink(cfg WebhookConfig, client *http.Client) *WebhookSink {
	return &WebhookSink{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  client,
		now:     time.Now,
	}
}

type webhookPayload struct {
	Text      string `json:"text"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

func (s *WebhookSink) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(webhookPayload{
		Text:      text,
		Source:    "pingtower",
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for _, h := range s.headers {
		req.Header.Set(h.Key, h.Value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: webhook: %w", errNotifyFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: webhook returned status %d", errNotifyFailed, resp.StatusCode)
	}

	return nil
}
