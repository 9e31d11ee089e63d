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

package natsutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/GERONlMO/pingtower/pkg/logger"
)

// ErrMalformedEvent marks a message that can never be processed. Such
// messages are terminated instead of redelivered.
var ErrMalformedEvent = errors.New("malformed event")

const (
	defaultMaxPullMessages = 50
	defaultPullExpiry      = 5 * time.Second
	defaultMaxDeliver      = 3
	defaultAckWait         = 30 * time.Second
	defaultFetchRetryDelay = time.Second
)

// Processor handles the payload of a single delivered message. A nil return
// acks the message; an error naks it until the delivery budget is spent.
type Processor interface {
	Process(ctx context.Context, subject string, data []byte) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, subject string, data []byte) error

func (f ProcessorFunc) Process(ctx context.Context, subject string, data []byte) error {
	return f(ctx, subject, data)
}

type fetcher interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

// ConsumerManager is the subset of jetstream.JetStream used to bind consumers.
type ConsumerManager interface {
	Consumer(ctx context.Context, stream string, consumer string) (jetstream.Consumer, error)
	CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error)
}

// Consumer wraps a durable JetStream pull consumer.
type Consumer struct {
	streamName   string
	consumerName string
	consumer     fetcher
	maxDeliver   int
	retryDelay   time.Duration
	logger       logger.Logger
}

// NewConsumer creates or retrieves a durable pull consumer filtered to subjects.
func NewConsumer(
	ctx context.Context,
	js ConsumerManager,
	streamName, consumerName string,
	subjects []string,
	log logger.Logger,
) (*Consumer, error) {
	consumer, err := js.Consumer(ctx, streamName, consumerName)
	if err != nil {
		cfg := jetstream.ConsumerConfig{
			Durable:       consumerName,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       defaultAckWait,
			MaxDeliver:    defaultMaxDeliver,
			MaxAckPending: 1000,
		}

		if len(subjects) == 1 {
			cfg.FilterSubject = subjects[0]
		} else if len(subjects) > 1 {
			cfg.FilterSubjects = subjects
		}

		consumer, err = js.CreateOrUpdateConsumer(ctx, streamName, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create consumer %s: %w", consumerName, err)
		}
	}

	log.Info().
		Str("stream", streamName).
		Str("consumer", consumerName).
		Strs("subjects", subjects).
		Msg("Pull consumer ready")

	return &Consumer{
		streamName:   streamName,
		consumerName: consumerName,
		consumer:     consumer,
		maxDeliver:   defaultMaxDeliver,
		retryDelay:   defaultFetchRetryDelay,
		logger:       log,
	}, nil
}

// Name returns the durable consumer name.
func (c *Consumer) Name() string {
	return c.consumerName
}

// ProcessMessages fetches and processes messages until ctx is cancelled.
// Connection-level failures are returned so the caller can reconnect.
func (c *Consumer) ProcessMessages(ctx context.Context, processor Processor) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		msgs, err := c.consumer.Fetch(defaultMaxPullMessages, jetstream.FetchMaxWait(defaultPullExpiry))
		if err != nil {
			if isFatalFetchErr(err) {
				return err
			}

			c.logger.Warn().Err(err).Str("consumer", c.consumerName).Msg("Failed to fetch messages")

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay):
			}

			continue
		}

		for msg := range msgs.Messages() {
			c.handleMessage(ctx, msg, processor)
		}

		if fetchErr := msgs.Error(); fetchErr != nil {
			if isFatalFetchErr(fetchErr) {
				return fetchErr
			}

			if !errors.Is(fetchErr, nats.ErrTimeout) {
				c.logger.Debug().Err(fetchErr).Str("consumer", c.consumerName).Msg("Fetch completed with error")
			}
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg jetstream.Msg, processor Processor) {
	err := processor.Process(ctx, msg.Subject(), msg.Data())
	if err == nil {
		recordConsumed(ctx, c.consumerName, true)

		if ackErr := msg.Ack(); ackErr != nil {
			c.logger.Warn().Err(ackErr).Str("consumer", c.consumerName).Msg("Failed to ack message")
		}

		return
	}

	recordConsumed(ctx, c.consumerName, false)

	if errors.Is(err, ErrMalformedEvent) {
		c.logger.Error().Err(err).Str("consumer", c.consumerName).Msg("Dropping malformed message")

		_ = msg.Term()

		return
	}

	var delivered uint64
	if md, mdErr := msg.Metadata(); mdErr == nil && md != nil {
		delivered = md.NumDelivered
	}

	if delivered >= uint64(c.maxDeliver) {
		c.logger.Error().
			Err(err).
			Str("consumer", c.consumerName).
			Uint64("deliveries", delivered).
			Msg("Giving up on message after max deliveries")

		_ = msg.Ack()

		return
	}

	c.logger.Warn().Err(err).Str("consumer", c.consumerName).Msg("Message processing failed, requesting redelivery")

	_ = msg.Nak()
}

func isFatalFetchErr(err error) bool {
	return errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrNoResponders) ||
		errors.Is(err, jetstream.ErrConsumerNotFound)
}
