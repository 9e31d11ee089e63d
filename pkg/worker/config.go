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

package worker

import (
	"errors"

	"github.com/GERONlMO/pingtower/pkg/browserpool"
	"github.com/GERONlMO/pingtower/pkg/checker"
	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
	"github.com/GERONlMO/pingtower/pkg/scheduler"
)

var (
	ErrMissingNATSURL      = errors.New("nats.url is required")
	ErrMissingCNPG         = errors.New("cnpg configuration is required")
	ErrMissingCNPGHost     = errors.New("cnpg.host is required")
	ErrMissingCNPGDatabase = errors.New("cnpg.database is required")
	ErrInvalidWorkers      = errors.New("scheduler.workers must not be negative")
	ErrInvalidPoolSize     = errors.New("browser_pool.max_sessions must not be negative")
)

// Config is the ping-worker configuration.
type Config struct {
	NATS           *models.NATSConfig       `json:"nats"`
	CNPG           *models.CNPGDatabase     `json:"cnpg"`
	Scheduler      scheduler.Config         `json:"scheduler"`
	HTTP           checker.HTTPConfig       `json:"http"`
	BrowserPool    browserpool.Config       `json:"browser_pool"`
	Chrome         browserpool.ChromeConfig `json:"chrome"`
	StatsInterval  models.Duration          `json:"stats_interval"`
	ConnectTimeout models.Duration          `json:"connect_timeout"`
	Logging        *logger.Config           `json:"logging,omitempty"`
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	var errs []error

	if c.NATS == nil || c.NATS.URL == "" {
		errs = append(errs, ErrMissingNATSURL)
	}

	if c.CNPG == nil {
		errs = append(errs, ErrMissingCNPG)
	} else {
		if c.CNPG.Host == "" {
			errs = append(errs, ErrMissingCNPGHost)
		}

		if c.CNPG.Database == "" {
			errs = append(errs, ErrMissingCNPGDatabase)
		}
	}

	if c.Scheduler.Workers < 0 {
		errs = append(errs, ErrInvalidWorkers)
	}

	if c.BrowserPool.MaxSessions < 0 {
		errs = append(errs, ErrInvalidPoolSize)
	}

	return errors.Join(errs...)
}
