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
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

const (
	userAgent = "PingTower/1.0"

	defaultHTTPTimeout    = 5 * time.Second
	defaultHTTPRetries    = 2
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 5 * time.Second
	defaultExpectedCode   = http.StatusOK

	// Response bodies are drained up to this size so connections can be reused.
	maxDrainBytes = 1 << 20

	statusTextException = "Exception"
	statusTextTimeout   = "Timeout"
)

// HTTPConfig tunes transport retries.
type HTTPConfig struct {
	Retries        int             `json:"retries"`
	InitialBackoff models.Duration `json:"initial_backoff"`
	MaxBackoff     models.Duration `json:"max_backoff"`
}

// HTTPStrategy issues one request and judges the status code. Transport
// errors are retried with exponential backoff; HTTP error statuses are not.
type HTTPStrategy struct {
	client         *http.Client
	retries        uint
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         logger.Logger
}

// NewHTTPClient returns the shared client used for HTTP checks. Redirects are
// followed.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 4

	return &http.Client{Transport: transport}
}

// NewHTTPStrategy creates the strategy around a shared client.
func NewHTTPStrategy(client *http.Client, cfg HTTPConfig, log logger.Logger) *HTTPStrategy {
	if client == nil {
		client = NewHTTPClient()
	}

	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = defaultHTTPRetries
	}

	return &HTTPStrategy{
		client:         client,
		retries:        uint(retries),
		initialBackoff: cfg.InitialBackoff.OrDefault(defaultInitialBackoff),
		maxBackoff:     cfg.MaxBackoff.OrDefault(defaultMaxBackoff),
		logger:         log,
	}
}

type httpAttempt struct {
	code int
	ttfb time.Duration
}

// Execute implements Strategy.
func (s *HTTPStrategy) Execute(ctx context.Context, check *models.CheckDefinition) *models.CheckResult {
	start := time.Now()

	target := check.Config.String(keyURL)
	if target == "" {
		return models.FailedResult(start, 0, statusTextException, models.ClassInvalidConfig, errMissingURL.Error())
	}

	method := strings.ToUpper(check.Config.String(keyMethod))
	if method == "" {
		method = http.MethodGet
	}

	timeout := timeoutFrom(check.Config, defaultHTTPTimeout)

	// Validate the request once up front; a malformed URL or method is a
	// configuration error, not something to retry.
	if _, err := http.NewRequestWithContext(ctx, method, target, http.NoBody); err != nil {
		return models.FailedResult(start, 0, statusTextException, models.ClassInvalidConfig, err.Error())
	}

	attempt, err := backoff.Retry(ctx,
		func() (httpAttempt, error) {
			return s.do(ctx, method, target, timeout)
		},
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.retries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Debug().
				Err(err).
				Str("check_id", check.ID).
				Dur("retry_in", next).
				Msg("HTTP check attempt failed, retrying")
		}),
	)
	if err != nil {
		return s.transportFailure(start, check, timeout, attempt, err)
	}

	code := attempt.code
	success := code >= 200 && code < 400

	result := &models.CheckResult{
		Success:        success,
		ResponseCode:   code,
		StatusText:     statusText(code),
		LatencyMs:      time.Since(start).Milliseconds(),
		TTFBMs:         models.Int64Ptr(attempt.ttfb.Milliseconds()),
		Classification: models.ClassOK,
		Details:        "Request successful",
	}

	if !success {
		result.Classification = models.ClassHTTPError
		result.Details = "Request failed with non-2xx/3xx status code"
		result.ErrorMessage = fmt.Sprintf("Expected status code 2xx or 3xx but got %d", code)
	}

	if expected := check.Config.Int(keyExpectedCode, defaultExpectedCode); expected != code {
		s.logger.Debug().
			Str("check_id", check.ID).
			Int("expected_code", expected).
			Int("code", code).
			Msg("Response code differs from expected code")
	}

	return result
}

func (s *HTTPStrategy) do(ctx context.Context, method, target string, timeout time.Duration) (httpAttempt, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		attempt      httpAttempt
		attemptStart time.Time
	)

	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			attempt.ttfb = time.Since(attemptStart)
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(attemptCtx, trace), method, target, http.NoBody)
	if err != nil {
		return attempt, backoff.Permanent(err)
	}

	req.Header.Set("User-Agent", userAgent)

	attemptStart = time.Now()

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return attempt, backoff.Permanent(err)
		}

		return attempt, err
	}

	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	attempt.code = resp.StatusCode

	return attempt, nil
}

func (s *HTTPStrategy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialBackoff
	b.MaxInterval = s.maxBackoff

	return b
}

func (s *HTTPStrategy) transportFailure(
	start time.Time, check *models.CheckDefinition, timeout time.Duration, attempt httpAttempt, err error,
) *models.CheckResult {
	s.logger.Warn().
		Err(err).
		Str("check_id", check.ID).
		Str("url", check.Config.String(keyURL)).
		Msg("HTTP check failed")

	statusText := statusTextException
	message := err.Error()

	if errors.Is(err, context.DeadlineExceeded) {
		statusText = statusTextTimeout
		message = fmt.Sprintf("Request timed out after %dms", timeout.Milliseconds())
	}

	result := models.FailedResult(start, 0, statusText, models.ClassTransportError, message)

	if attempt.ttfb > 0 {
		result.TTFBMs = models.Int64Ptr(attempt.ttfb.Milliseconds())
	}

	return result
}

func statusText(code int) string {
	text := http.StatusText(code)
	if text == "" {
		return fmt.Sprintf("%d", code)
	}

	return fmt.Sprintf("%d %s", code, text)
}
