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

// Package natsutil holds the JetStream plumbing shared by both binaries.
package natsutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

// DefaultStream is used when no stream name is configured.
const DefaultStream = "PINGTOWER"

var errNATSURLRequired = errors.New("nats url is required")

// DefaultSubjects lists every subject carried by the pipeline stream.
func DefaultSubjects() []string {
	return []string{models.SubjectRawMeasurements, models.SubjectStatusUpdates, models.SubjectAlerts}
}

// Connect dials NATS with optional mTLS and returns the connection and a
// JetStream context (domain-scoped when configured).
func Connect(cfg *models.NATSConfig, log logger.Logger, extraOpts ...nats.Option) (*nats.Conn, jetstream.JetStream, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, nil, errNATSURLRequired
	}

	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	if cfg.Security != nil && cfg.Security.Mode == models.SecurityModeMTLS {
		tlsConf, err := TLSConfig(cfg.Security)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts,
			nats.Secure(tlsConf),
			nats.RootCAs(cfg.Security.TLS.CAFile),
			nats.ClientCert(cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile),
		)
	}

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	var js jetstream.JetStream

	if cfg.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, cfg.Domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	log.Info().Str("url", nc.ConnectedUrl()).Str("domain", cfg.Domain).Msg("Connected to NATS")

	return nc, js, nil
}

const (
	connectInitialBackoff = 500 * time.Millisecond
	connectMaxBackoff     = 10 * time.Second
	defaultConnectWindow  = 2 * time.Minute
)

type connection struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// ConnectWithRetry calls Connect with exponential backoff until it succeeds,
// ctx ends or maxElapsed passes. Configuration errors are not retried.
func ConnectWithRetry(
	ctx context.Context,
	cfg *models.NATSConfig,
	maxElapsed time.Duration,
	log logger.Logger,
	extraOpts ...nats.Option,
) (*nats.Conn, jetstream.JetStream, error) {
	if maxElapsed <= 0 {
		maxElapsed = defaultConnectWindow
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = connectInitialBackoff
	bo.MaxInterval = connectMaxBackoff

	operation := func() (connection, error) {
		nc, js, err := Connect(cfg, log, extraOpts...)
		if err != nil {
			if errors.Is(err, errNATSURLRequired) {
				return connection{}, backoff.Permanent(err)
			}

			return connection{}, err
		}

		return connection{nc: nc, js: js}, nil
	}

	conn, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Dur("retry_in", next).Msg("NATS not reachable, retrying")
		}),
	)
	if err != nil {
		return nil, nil, err
	}

	return conn.nc, conn.js, nil
}

// StreamManager is the subset of jetstream.JetStream needed to ensure a stream.
type StreamManager interface {
	Stream(ctx context.Context, stream string) (jetstream.Stream, error)
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// EnsureStream creates the stream when missing, or widens its subject list
// so every required subject is captured.
func EnsureStream(ctx context.Context, js StreamManager, name string, subjects []string) error {
	stream, err := js.Stream(ctx, name)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to get stream %s: %w", name, err)
		}

		if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{Name: name, Subjects: subjects}); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}

		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	current := append([]string(nil), info.Config.Subjects...)
	for _, subject := range subjects {
		current = ensureSubjectList(current, subject)
	}

	if len(current) == len(info.Config.Subjects) {
		return nil
	}

	cfg := info.Config
	cfg.Subjects = current

	if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to update stream %s subjects: %w", name, err)
	}

	return nil
}

// ensureSubjectList appends subject unless an existing pattern already covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, existing := range subjects {
		if matchesSubject(existing, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether a NATS subject pattern (with * and >
// wildcards) matches subject.
func matchesSubject(pattern, subject string) bool {
	if pattern == subject {
		return true
	}

	pTokens := strings.Split(pattern, ".")
	sTokens := strings.Split(subject, ".")

	for i, p := range pTokens {
		if p == ">" {
			return len(sTokens) > i
		}

		if i >= len(sTokens) {
			return false
		}

		if p != "*" && p != sTokens[i] {
			return false
		}
	}

	return len(pTokens) == len(sTokens)
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoResponders)
}
