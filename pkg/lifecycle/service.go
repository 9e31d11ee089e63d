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

// Package lifecycle runs long-lived services until a shutdown signal arrives.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GERONlMO/pingtower/pkg/logger"
)

// Service is a component with an explicit start/stop lifecycle.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Failer is implemented by services whose background components can stop on
// their own after Start returned. The first failure is sent on Done.
type Failer interface {
	Done() <-chan error
}

// ServerOptions configures RunService.
type ServerOptions struct {
	ServiceName     string
	Service         Service
	ShutdownTimeout time.Duration
	Logger          logger.Logger
	// Signals overrides the default SIGINT/SIGTERM set. Tests pass an empty,
	// non-nil slice to rely on context cancellation only.
	Signals []os.Signal
}

const defaultShutdownTimeout = 10 * time.Second

var (
	// ErrServiceFailed wraps the error a Failer reported while running.
	ErrServiceFailed = errors.New("service failed")

	errServiceRequired = errors.New("lifecycle: service is required")
)

// RunService starts the service and blocks until ctx is cancelled, a
// shutdown signal arrives or a Failer reports a failure, then stops it within
// the shutdown timeout. A reported failure is returned.
func RunService(ctx context.Context, opts *ServerOptions) error {
	if opts == nil || opts.Service == nil {
		return errServiceRequired
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	signals := opts.Signals
	if signals == nil {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := opts.Service.Start(runCtx); err != nil {
		return fmt.Errorf("failed to start %s: %w", opts.ServiceName, err)
	}

	log.Info().Str("service", opts.ServiceName).Msg("Service started")

	sigCh := make(chan os.Signal, 1)
	if len(signals) > 0 {
		signal.Notify(sigCh, signals...)
		defer signal.Stop(sigCh)
	}

	var failed <-chan error
	if f, ok := opts.Service.(Failer); ok {
		failed = f.Done()
	}

	var runErr error

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled, shutting down")
	case err := <-failed:
		log.Error().Err(err).Str("service", opts.ServiceName).Msg("Service failed, shutting down")

		runErr = fmt.Errorf("%w: %s: %w", ErrServiceFailed, opts.ServiceName, err)
	}

	cancel()

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), timeout)
	defer stopCancel()

	if err := opts.Service.Stop(stopCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("failed to stop %s: %w", opts.ServiceName, err))
	}

	log.Info().Str("service", opts.ServiceName).Msg("Service stopped")

	return runErr
}
