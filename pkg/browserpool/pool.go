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

// Package browserpool keeps a bounded set of reusable headless browser
// sessions for page-load checks.
package browserpool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/puddle/v2"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

const (
	defaultMaxSessions    = 4
	defaultWarmSessions   = 2
	defaultAcquireTimeout = 30 * time.Second
	defaultResetTimeout   = 10 * time.Second
	defaultProbeTimeout   = 5 * time.Second
)

var errFactoryRequired = errors.New("browserpool: session factory is required")

// Config bounds the pool.
type Config struct {
	MaxSessions    int32           `json:"max_sessions"`
	WarmSessions   int32           `json:"warm_sessions"`
	AcquireTimeout models.Duration `json:"acquire_timeout"`
	ResetTimeout   models.Duration `json:"reset_timeout"`
	ProbeTimeout   models.Duration `json:"probe_timeout"`
}

func (c Config) withDefaults() Config {
	if c.MaxSessions <= 0 {
		c.MaxSessions = defaultMaxSessions
	}

	if c.WarmSessions < 0 {
		c.WarmSessions = 0
	}

	if c.WarmSessions == 0 {
		c.WarmSessions = defaultWarmSessions
	}

	if c.WarmSessions > c.MaxSessions {
		c.WarmSessions = c.MaxSessions
	}

	c.AcquireTimeout = models.Duration(c.AcquireTimeout.OrDefault(defaultAcquireTimeout))
	c.ResetTimeout = models.Duration(c.ResetTimeout.OrDefault(defaultResetTimeout))
	c.ProbeTimeout = models.Duration(c.ProbeTimeout.OrDefault(defaultProbeTimeout))

	return c
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Total           int32 `json:"total"`
	Idle            int32 `json:"idle"`
	Acquired        int32 `json:"acquired"`
	Constructing    int32 `json:"constructing"`
	Max             int32 `json:"max"`
	AcquireCount    int64 `json:"acquire_count"`
	CanceledAcquire int64 `json:"canceled_acquire_count"`
}

// Lease is an exclusive hold on one session. It must be handed back with
// Release or Invalidate exactly once.
type Lease struct {
	res *puddle.Resource[Session]
}

// Session returns the leased browser session.
func (l *Lease) Session() Session {
	return l.res.Value()
}

// Pool hands out browser sessions, never more than MaxSessions at a time.
type Pool struct {
	pool   *puddle.Pool[Session]
	cfg    Config
	logger logger.Logger
}

// New creates the pool and pre-creates the warm sessions. Warm-up failures
// are logged; sessions are then created lazily.
func New(ctx context.Context, cfg Config, factory SessionFactory, log logger.Logger) (*Pool, error) {
	if factory == nil {
		return nil, errFactoryRequired
	}

	cfg = cfg.withDefaults()

	pool, err := puddle.NewPool(&puddle.Config[Session]{
		Constructor: func(ctx context.Context) (Session, error) {
			s, err := factory.NewSession(ctx)
			if err != nil {
				return nil, fmt.Errorf("create browser session: %w", err)
			}

			return s, nil
		},
		Destructor: func(s Session) {
			if err := s.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close browser session")
			}
		},
		MaxSize: cfg.MaxSessions,
	})
	if err != nil {
		return nil, fmt.Errorf("create browser pool: %w", err)
	}

	p := &Pool{pool: pool, cfg: cfg, logger: log}

	for i := int32(0); i < cfg.WarmSessions; i++ {
		if err := pool.CreateResource(ctx); err != nil {
			log.Warn().Err(err).Int32("warm", cfg.WarmSessions).Msg("Failed to pre-warm browser session")

			break
		}
	}

	log.Info().
		Int32("max_sessions", cfg.MaxSessions).
		Int32("warm_sessions", cfg.WarmSessions).
		Dur("acquire_timeout", time.Duration(cfg.AcquireTimeout)).
		Msg("Browser pool ready")

	return p, nil
}

// Acquire waits up to the acquire timeout for a live session. Sessions
// failing the liveness probe are destroyed and another one is tried.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.AcquireTimeout))
	defer cancel()

	for {
		res, err := p.pool.Acquire(acquireCtx)
		if err != nil {
			return nil, p.acquireError(ctx, err)
		}

		if err := p.probe(acquireCtx, res.Value()); err != nil {
			p.logger.Warn().Err(err).Msg("Browser session failed liveness probe on acquire")
			res.Destroy()
			recordSessionDestroyed(ctx, "probe_acquire")

			continue
		}

		return &Lease{res: res}, nil
	}
}

func (p *Pool) acquireError(parent context.Context, err error) error {
	switch {
	case errors.Is(err, puddle.ErrClosedPool):
		return ErrPoolClosed
	case parent.Err() != nil:
		return parent.Err()
	case errors.Is(err, context.DeadlineExceeded):
		recordAcquireTimeout(parent)

		return fmt.Errorf("%w: no session within %s", ErrPoolExhausted, time.Duration(p.cfg.AcquireTimeout))
	default:
		return err
	}
}

// Release resets the session and returns it to the pool. A session that
// fails to reset or to answer the probe is destroyed instead. Sessions above
// the warm count are closed rather than kept idle.
func (p *Pool) Release(ctx context.Context, lease *Lease) error {
	if lease == nil || lease.res == nil {
		return ErrNilLease
	}

	res := lease.res
	lease.res = nil

	resetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(p.cfg.ResetTimeout))
	defer cancel()

	if err := res.Value().Reset(resetCtx); err != nil {
		res.Destroy()
		recordSessionDestroyed(ctx, "reset")

		return fmt.Errorf("reset browser session: %w", err)
	}

	if err := p.probe(resetCtx, res.Value()); err != nil {
		res.Destroy()
		recordSessionDestroyed(ctx, "probe_release")

		return fmt.Errorf("probe browser session: %w", err)
	}

	if p.pool.Stat().IdleResources() >= p.cfg.WarmSessions {
		res.Destroy()

		return nil
	}

	res.Release()

	return nil
}

// Invalidate destroys the leased session without returning it.
func (p *Pool) Invalidate(lease *Lease) {
	if lease == nil || lease.res == nil {
		return
	}

	lease.res.Destroy()
	lease.res = nil

	recordSessionDestroyed(context.Background(), "invalidated")
}

// Stats reports pool occupancy.
func (p *Pool) Stats() Stats {
	s := p.pool.Stat()

	return Stats{
		Total:           s.TotalResources(),
		Idle:            s.IdleResources(),
		Acquired:        s.AcquiredResources(),
		Constructing:    s.ConstructingResources(),
		Max:             s.MaxResources(),
		AcquireCount:    s.AcquireCount(),
		CanceledAcquire: s.CanceledAcquireCount(),
	}
}

// Close destroys idle sessions and waits for leased ones to come back.
func (p *Pool) Close() {
	p.pool.Close()
}

func (p *Pool) probe(ctx context.Context, s Session) error {
	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.ProbeTimeout))
	defer cancel()

	return s.Probe(probeCtx)
}
