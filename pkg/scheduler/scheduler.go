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

// Package scheduler selects due checks on a fixed tick and hands them to a
// bounded worker pool.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

const (
	defaultTickInterval = 30 * time.Second
	defaultWorkers      = 20
	defaultQueueSize    = 500
)

var (
	errSourceRequired = errors.New("scheduler: check source is required")
	errRunnerRequired = errors.New("scheduler: runner is required")
)

// Config controls the tick cadence and the execution budget.
type Config struct {
	TickInterval models.Duration `json:"tick_interval"`
	Workers      int             `json:"workers"`
	QueueSize    int             `json:"queue_size"`
}

// Scheduler scans enabled checks on every tick, marks the due ones and
// submits them for execution.
type Scheduler struct {
	source    CheckSource
	runner    Runner
	clock     Clock
	logger    logger.Logger
	interval  time.Duration
	pool      *workerPool
	schedules *scheduleCache

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a scheduler. A nil clock uses wall time.
func New(cfg Config, source CheckSource, runner Runner, clock Clock, log logger.Logger) (*Scheduler, error) {
	if source == nil {
		return nil, errSourceRequired
	}

	if runner == nil {
		return nil, errRunnerRequired
	}

	if clock == nil {
		clock = realClock{}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Scheduler{
		source:    source,
		runner:    runner,
		clock:     clock,
		logger:    log,
		interval:  cfg.TickInterval.OrDefault(defaultTickInterval),
		pool:      newWorkerPool(workers, queueSize, log),
		schedules: newScheduleCache(),
		done:      make(chan struct{}),
	}, nil
}

// Start runs the tick loop until ctx is cancelled or Stop is called. The
// first scan happens immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	s.wg.Add(1)
	defer s.wg.Done()

	s.pool.start()

	s.logger.Info().
		Dur("interval", s.interval).
		Int("workers", s.pool.workers).
		Int("queue_size", cap(s.pool.queue)).
		Msg("Starting scheduler")

	// Checks outlive the tick loop; their own strategy timeouts bound them.
	taskCtx := context.WithoutCancel(ctx)

	s.tick(ctx, taskCtx, s.clock.Now())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case now := <-ticker.Chan():
			s.tick(ctx, taskCtx, now)
		}
	}
}

// Stop ends the tick loop, then drains the worker pool within ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	s.wg.Wait()

	if err := s.pool.stop(ctx); err != nil {
		s.logger.Warn().Err(err).Int("pending", s.pool.pending()).Msg("Scheduler stopped before in-flight checks finished")

		return err
	}

	s.logger.Info().Msg("Scheduler stopped")

	return nil
}

// tick performs one due scan. It runs on the loop goroutine only.
func (s *Scheduler) tick(ctx, taskCtx context.Context, now time.Time) {
	checks, err := s.source.ListEnabledChecks(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load enabled checks")

		return
	}

	var submitted, rejected int

	for _, check := range checks {
		if check == nil || !check.Enabled {
			continue
		}

		due, err := s.schedules.isDue(check.Schedule, check.LastExecution, now)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("check_id", check.ID).
				Str("schedule", check.Schedule).
				Msg("Skipping check with unusable schedule")
			recordDispatch(ctx, string(check.EffectiveType()), outcomeSkipped)

			continue
		}

		if !due {
			continue
		}

		if err := s.source.MarkExecuted(ctx, check.ID, now); err != nil {
			s.logger.Error().Err(err).Str("check_id", check.ID).Msg("Failed to mark check as executed")

			continue
		}

		executedAt := now
		check.LastExecution = &executedAt

		c := check
		if !s.pool.submit(func() { s.runner.Run(taskCtx, c) }) {
			rejected++

			s.logger.Warn().
				Str("check_id", check.ID).
				Str("service_id", check.ServiceID).
				Msg("Execution queue full, check deferred to its next fire time")
			recordDispatch(ctx, string(check.EffectiveType()), outcomeRejected)

			continue
		}

		submitted++

		recordDispatch(ctx, string(check.EffectiveType()), outcomeSubmitted)
	}

	if submitted > 0 || rejected > 0 {
		s.logger.Debug().
			Int("checks", len(checks)).
			Int("submitted", submitted).
			Int("rejected", rejected).
			Msg("Scheduler tick complete")
	}
}
