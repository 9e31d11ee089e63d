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

package checker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/GERONlMO/pingtower/pkg/browserpool"
	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

const (
	defaultBrowserTimeout = 30 * time.Second
	bodyWaitCap           = 20 * time.Second

	statusTextBlocked       = "Blocked by Anti-bot"
	statusTextPageLoaded    = "Page Loaded"
	statusTextPoolExhausted = "Pool Exhausted"
)

// SessionPool lends browser sessions.
type SessionPool interface {
	Acquire(ctx context.Context) (*browserpool.Lease, error)
	Release(ctx context.Context, lease *browserpool.Lease) error
	Invalidate(lease *browserpool.Lease)
}

// BrowserStrategy loads a page in a pooled headless browser and reports DOM
// timing, flagging anti-bot interstitials as failures.
type BrowserStrategy struct {
	pool   SessionPool
	logger logger.Logger
}

// NewBrowserStrategy creates the strategy.
func NewBrowserStrategy(pool SessionPool, log logger.Logger) *BrowserStrategy {
	return &BrowserStrategy{pool: pool, logger: log}
}

// Execute implements Strategy.
func (s *BrowserStrategy) Execute(ctx context.Context, check *models.CheckDefinition) *models.CheckResult {
	start := time.Now()

	target := check.Config.String(keyURL)
	if target == "" {
		return models.FailedResult(start, 0, statusTextException, models.ClassInvalidConfig, errMissingURL.Error())
	}

	lease, err := s.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, browserpool.ErrPoolExhausted) {
			s.logger.Warn().Str("check_id", check.ID).Msg("No browser session available")

			return models.FailedResult(start, 0, statusTextPoolExhausted, models.ClassPoolExhausted, err.Error())
		}

		return models.FailedResult(start, 0, statusTextError, models.ClassBrowserError, err.Error())
	}

	timeout := timeoutFrom(check.Config, defaultBrowserTimeout)

	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	page, loadErr := lease.Session().Load(loadCtx, target, min(bodyWaitCap, timeout))
	cancel()

	latency := time.Since(start).Milliseconds()

	s.giveBack(ctx, check, lease, loadErr)

	if loadErr != nil {
		s.logger.Warn().Err(loadErr).Str("check_id", check.ID).Str("url", target).Msg("Browser check failed")

		statusText := statusTextError
		if errors.Is(loadErr, context.DeadlineExceeded) {
			statusText = statusTextTimeout
		}

		return &models.CheckResult{
			StatusText:     statusText,
			LatencyMs:      latency,
			ErrorMessage:   loadErr.Error(),
			Classification: models.ClassBrowserError,
		}
	}

	if isChallengeTitle(page.Title) {
		s.logger.Warn().Str("check_id", check.ID).Str("url", target).Str("title", page.Title).Msg("Anti-bot page detected")

		return &models.CheckResult{
			ResponseCode:   http.StatusForbidden,
			StatusText:     statusTextBlocked,
			LatencyMs:      latency,
			Details:        "Page title indicates an anti-bot challenge: " + page.Title,
			Classification: models.ClassBlocked,
		}
	}

	return &models.CheckResult{
		Success:        true,
		ResponseCode:   http.StatusOK,
		StatusText:     statusTextPageLoaded,
		LatencyMs:      latency,
		DOMLoadTimeMs:  models.Int64Ptr(page.DOMContentLoaded.Milliseconds()),
		Details:        "Page loaded successfully. Title: " + page.Title,
		Classification: models.ClassOK,
	}
}

// giveBack returns the session, or destroys it when the browser itself failed.
func (s *BrowserStrategy) giveBack(ctx context.Context, check *models.CheckDefinition, lease *browserpool.Lease, loadErr error) {
	if errors.Is(loadErr, browserpool.ErrSessionLost) {
		s.pool.Invalidate(lease)

		return
	}

	if err := s.pool.Release(ctx, lease); err != nil {
		s.logger.Warn().Err(err).Str("check_id", check.ID).Msg("Browser session discarded after failed reset")
	}
}
