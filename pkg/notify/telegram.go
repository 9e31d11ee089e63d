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
	"strings"

	"golang.org/x/time/rate"
)

const (
	defaultTelegramAPI  = "https://api.telegram.org"
	defaultTelegramRate = 30
	telegramBodyLimit   = 64 << 10
)

// TelegramConfig configures the bot API channel.
type TelegramConfig struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
	// APIURL overrides the bot API base URL.
	APIURL string `json:"api_url,omitempty"`
	// RatePerSecond caps sendMessage calls. Defaults to the bot API limit.
	RatePerSecond float64 `json:"rate_per_second,omitempty"`
}

// Enabled reports whether both the token and the chat are configured.
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// TelegramSink posts Markdown messages through the bot API.
type TelegramSink struct {
	endpoint string
	chatID   string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewTelegramSink creates a rate-limited Telegram sink.
func NewTelegramSink(cfg TelegramConfig, client *http.Client) *TelegramSink {
	base := strings.TrimRight(cfg.APIURL, "/")
	if base == "" {
		base = defaultTelegramAPI
	}

	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = defaultTelegramRate
	}

	return &TelegramSink{
		endpoint: fmt.Sprintf("%s/bot%s/sendMessage", base, cfg.BotToken),
		chatID:   cfg.ChatID,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (s *TelegramSink) Send(ctx context.Context, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit: %w", err)
	}

	body, err := json.Marshal(telegramMessage{ChatID: s.chatID, Text: text, ParseMode: "Markdown"})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: telegram: %w", errNotifyFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result telegramResponse

	if err := json.NewDecoder(io.LimitReader(resp.Body, telegramBodyLimit)).Decode(&result); err != nil {
		return fmt.Errorf("%w: telegram returned status %d", errNotifyFailed, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK || !result.OK {
		return fmt.Errorf("%w: telegram returned status %d: %s", errNotifyFailed, resp.StatusCode, result.Description)
	}

	return nil
}
