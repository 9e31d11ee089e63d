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

package controltower

import (
	"errors"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
	"github.com/GERONlMO/pingtower/pkg/notify"
)

var (
	ErrMissingListenAddr   = errors.New("listen_addr is required")
	ErrMissingNATSURL      = errors.New("nats.url is required")
	ErrMissingCNPG         = errors.New("cnpg configuration is required")
	ErrMissingCNPGHost     = errors.New("cnpg.host is required")
	ErrMissingProton       = errors.New("proton configuration is required")
	ErrMissingProtonAddr   = errors.New("proton.addresses must not be empty")
	ErrInvalidWebhookURL   = errors.New("enabled webhook requires a url")
	ErrIncompleteTelegram  = errors.New("telegram requires both bot_token and chat_id")
	errConsumerLoopStopped = errors.New("consumer loop stopped")
)

// Config is the control-tower configuration.
type Config struct {
	ListenAddr      string                 `json:"listen_addr"`
	NATS            *models.NATSConfig     `json:"nats"`
	CNPG            *models.CNPGDatabase   `json:"cnpg"`
	Proton          *models.ProtonDatabase `json:"proton"`
	Notify          notify.Config          `json:"notify"`
	DashboardWindow models.Duration        `json:"dashboard_window"`
	AllowedOrigins  []string               `json:"allowed_origins,omitempty"`
	ConnectTimeout  models.Duration        `json:"connect_timeout"`
	Logging         *logger.Config         `json:"logging,omitempty"`
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	var errs []error

	if c.ListenAddr == "" {
		errs = append(errs, ErrMissingListenAddr)
	}

	if c.NATS == nil || c.NATS.URL == "" {
		errs = append(errs, ErrMissingNATSURL)
	}

	if c.CNPG == nil {
		errs = append(errs, ErrMissingCNPG)
	} else if c.CNPG.Host == "" {
		errs = append(errs, ErrMissingCNPGHost)
	}

	if c.Proton == nil {
		errs = append(errs, ErrMissingProton)
	} else if len(c.Proton.Addresses) == 0 {
		errs = append(errs, ErrMissingProtonAddr)
	}

	if tg := c.Notify.Telegram; tg != nil && (tg.BotToken == "") != (tg.ChatID == "") {
		errs = append(errs, ErrIncompleteTelegram)
	}

	for _, wh := range c.Notify.Webhooks {
		if wh.Enabled && wh.URL == "" {
			errs = append(errs, ErrInvalidWebhookURL)
		}
	}

	return errors.Join(errs...)
}
