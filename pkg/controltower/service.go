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

// Package controltower wires the event consumers, the dashboard and the
// notification sinks into the control-tower service.
package controltower

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/GERONlMO/pingtower/pkg/consumers/alerts"
	"github.com/GERONlMO/pingtower/pkg/consumers/measurements"
	"github.com/GERONlMO/pingtower/pkg/consumers/status"
	"github.com/GERONlMO/pingtower/pkg/dashboard"
	"github.com/GERONlMO/pingtower/pkg/db"
	"github.com/GERONlMO/pingtower/pkg/lifecycle"
	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
	"github.com/GERONlMO/pingtower/pkg/natsutil"
	"github.com/GERONlMO/pingtower/pkg/notify"
)

// EventSource stamps the CloudEvents published by the control tower.
const EventSource = "pingtower/control-tower"

// binding pairs a durable consumer with the processor for its subject.
type binding struct {
	name      string
	subject   string
	processor natsutil.Processor
}

// messageSource is the part of *natsutil.Consumer the run loop needs.
type messageSource interface {
	Name() string
	ProcessMessages(ctx context.Context, processor natsutil.Processor) error
}

type consumerLoop struct {
	consumer  messageSource
	processor natsutil.Processor
}

// Service implements lifecycle.Service for the control tower.
type Service struct {
	cfg    *Config
	logger logger.Logger

	pg        *pgxpool.Pool
	analytics db.AnalyticsStore
	nc        *nats.Conn

	cancel context.CancelFunc
	group  *errgroup.Group
	done   chan error
}

var (
	_ lifecycle.Service = (*Service)(nil)
	_ lifecycle.Failer  = (*Service)(nil)
)

// NewService validates cfg and creates an unstarted control tower.
func NewService(cfg *Config, log logger.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Service{cfg: cfg, logger: log, done: make(chan error, 1)}, nil
}

// Done reports the first component failure that was not caused by Stop.
func (s *Service) Done() <-chan error {
	return s.done
}

// Start migrates and opens both stores, binds the three durable consumers
// and starts the dashboard server.
func (s *Service) Start(ctx context.Context) error {
	pg, err := db.NewCNPGPool(ctx, s.cfg.CNPG, s.logger)
	if err != nil {
		return err
	}

	s.pg = pg

	if err := db.RunCNPGMigrations(ctx, pg, s.logger); err != nil {
		s.closeResources()
		return err
	}

	analytics, err := db.NewProtonAnalytics(ctx, s.cfg.Proton, s.logger)
	if err != nil {
		s.closeResources()
		return err
	}

	s.analytics = analytics

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

	store := db.NewCNPGStore(pg, s.logger)
	hub := dashboard.NewHub(s.cfg.AllowedOrigins, s.logger)
	dash := dashboard.NewService(store, analytics, hub, time.Duration(s.cfg.DashboardWindow), s.logger)
	publisher := natsutil.NewEventPublisher(js, EventSource)

	bindings := []binding{
		{
			name:      measurements.ConsumerName,
			subject:   models.SubjectRawMeasurements,
			processor: measurements.NewProcessor(analytics, store, dash, s.logger),
		},
		{
			name:      status.ConsumerName,
			subject:   models.SubjectStatusUpdates,
			processor: status.NewProcessor(store, dash, publisher, s.logger),
		},
		{
			name:      alerts.ConsumerName,
			subject:   models.SubjectAlerts,
			processor: alerts.NewProcessor(notify.New(s.cfg.Notify, s.logger), s.logger),
		},
	}

	loops := make([]consumerLoop, len(bindings))

	for i, b := range bindings {
		c, err := natsutil.NewConsumer(ctx, js, streamName, b.name, []string{b.subject}, s.logger)
		if err != nil {
			s.closeResources()
			return err
		}

		loops[i] = consumerLoop{consumer: c, processor: b.processor}
	}

	server := dashboard.NewServer(dash, hub, s.logger)

	s.run(ctx, func(ctx context.Context) error {
		return server.Serve(ctx, s.cfg.ListenAddr)
	}, loops)

	s.logger.Info().
		Str("stream", streamName).
		Str("listen_addr", s.cfg.ListenAddr).
		Msg("Control tower started")

	return nil
}

// run starts the dashboard server and every consumer loop. The first
// component to fail stops the others and the failure is sent on Done.
func (s *Service) run(ctx context.Context, serve func(context.Context) error, loops []consumerLoop) {
	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)

	s.cancel = cancel
	s.group = group

	group.Go(func() error {
		return serve(groupCtx)
	})

	for _, l := range loops {
		group.Go(func() error {
			if err := l.consumer.ProcessMessages(groupCtx, l.processor); err != nil {
				return fmt.Errorf("%w: %s: %w", errConsumerLoopStopped, l.consumer.Name(), err)
			}

			return nil
		})
	}

	go func() {
		err := group.Wait()
		if err == nil || runCtx.Err() != nil {
			return
		}

		s.logger.Error().Err(err).Msg("Control tower component failed")

		select {
		case s.done <- err:
		default:
		}
	}()
}

// Stop cancels every component, waits for them within ctx and closes the
// stores.
func (s *Service) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	var stopErr error

	if s.group != nil {
		done := make(chan error, 1)

		go func() { done <- s.group.Wait() }()

		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				stopErr = err
			}
		case <-ctx.Done():
			stopErr = ctx.Err()
		}
	}

	s.closeResources()

	s.logger.Info().Msg("Control tower stopped")

	return stopErr
}

func (s *Service) closeResources() {
	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			s.nc.Close()
		}
	}

	if s.analytics != nil {
		if err := s.analytics.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close analytics store")
		}
	}

	if s.pg != nil {
		s.pg.Close()
	}
}
