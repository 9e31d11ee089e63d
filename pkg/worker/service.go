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

// Package worker wires the scheduler, the check strategies and the result
// handler into the ping-worker service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"

	"github.com/GERONlMO/pingtower/pkg/browserpool"
	"github.com/GERONlMO/pingtower/pkg/checker"
	"github.com/GERONlMO/pingtower/pkg/db"
	"github.com/GERONlMO/pingtower/pkg/lifecycle"
	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/natsutil"
	"github.com/GERONlMO/pingtower/pkg/results"
	"github.com/GERONlMO/pingtower/pkg/scheduler"
)

const (
	// EventSource stamps the CloudEvents published by the worker.
	EventSource = "pingtower/ping-worker"

	defaultStatsInterval = time.Minute
)

type statsSource interface {
	Stats() browserpool.Stats
}

// Service implements lifecycle.Service for the ping worker.
type Service struct {
	cfg    *Config
	logger logger.Logger

	pg        *pgxpool.Pool
	nc        *nats.Conn
	factory   *browserpool.ChromeFactory
	pool      *browserpool.Pool
	scheduler *scheduler.Scheduler

	wg sync.WaitGroup
}

var _ lifecycle.Service = (*Service)(nil)

// NewService validates cfg and creates an unstarted worker.
func NewService(cfg *Config, log logger.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Service{cfg: cfg, logger: log}, nil
}

// Start connects the stores, builds the execution pipeline and starts the
// scheduler loop.
func (s *Service) Start(ctx context.Context) error {
	pg, err := db.NewCNPGPool(ctx, s.cfg.CNPG, s.logger)
	if err != nil {
		return err
	}

	s.pg = pg

	nc, js, err := natsutil.ConnectWithRetry(ctx, s.cfg.NATS, time.Duration(s.cfg.ConnectTimeout), s.logger)
	if err != nil {
		s.closeResources()
		return err
	}

	s.nc = nc

	streamName := s.cfg.NATS.Stream
	if streamName == "" {
		streamName = natsutil.DefaultStream
	}

	if err := natsutil.EnsureStream(ctx, js, streamName, natsutil.DefaultSubjects()); err != nil {
		s.closeResources()
		return err
	}

	s.factory = browserpool.NewChromeFactory(ctx, s.cfg.Chrome, s.logger)

	pool, err := browserpool.New(ctx, s.cfg.BrowserPool, s.factory, s.logger)
	if err != nil {
		s.closeResources()
		return err
	}

	s.pool = pool

	store := db.NewCNPGStore(pg, s.logger)

	dispatcher := checker.NewDispatcher(
		checker.NewHTTPStrategy(checker.NewHTTPClient(), s.cfg.HTTP, s.logger),
		checker.NewTLSStrategy(nil, s.logger),
		checker.NewBrowserStrategy(pool, s.logger),
		s.logger,
	)

	handler := results.NewHandler(store, natsutil.NewEventPublisher(js, EventSource), s.logger)

	sched, err := scheduler.New(s.cfg.Scheduler, store, results.NewRunner(dispatcher, handler, s.logger), nil, s.logger)
	if err != nil {
		s.closeResources()
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	s.scheduler = sched

	s.wg.Add(2)

	go func() {
		defer s.wg.Done()

		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("Scheduler loop exited")
		}
	}()

	go func() {
		defer s.wg.Done()

		logPoolStats(ctx, pool, s.cfg.StatsInterval.OrDefault(defaultStatsInterval), s.logger)
	}()

	s.logger.Info().Str("stream", streamName).Msg("Ping worker started")

	return nil
}

// Stop drains in-flight checks within ctx and releases every resource.
func (s *Service) Stop(ctx context.Context) error {
	var stopErr error

	if s.scheduler != nil {
		stopErr = s.scheduler.Stop(ctx)
	}

	s.wg.Wait()
	s.closeResources()

	s.logger.Info().Msg("Ping worker stopped")

	return stopErr
}

func (s *Service) closeResources() {
	if s.pool != nil {
		s.pool.Close()
	}

	if s.factory != nil {
		s.factory.Close()
	}

	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			s.nc.Close()
		}
	}

	if s.pg != nil {
		s.pg.Close()
	}
}

// logPoolStats reports browser pool occupancy until ctx ends.
func logPoolStats(ctx context.Context, pool statsSource, interval time.Duration, log logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := pool.Stats()

			log.Info().
				Int32("total", st.Total).
				Int32("idle", st.Idle).
				Int32("acquired", st.Acquired).
				Int32("max", st.Max).
				Int64("canceled_acquires", st.CanceledAcquire).
				Msg("Browser pool stats")
		}
	}
}
