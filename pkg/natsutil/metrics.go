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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "pingtower.consumers"

var (
	//nolint:gochecknoglobals // metric instruments are shared singletons
	consumerMetricsOnce sync.Once
	//nolint:gochecknoglobals // metric instruments are shared singletons
	consumedCounter metric.Int64Counter
)

func initConsumerMetrics() {
	meter := otel.Meter(meterName)

	var err error

	consumedCounter, err = meter.Int64Counter(
		"pingtower_consumer_messages_total",
		metric.WithDescription("Messages handled by pipeline consumers, by outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

func recordConsumed(ctx context.Context, consumer string, ok bool) {
	consumerMetricsOnce.Do(initConsumerMetrics)

	if consumedCounter == nil {
		return
	}

	outcome := "failed"
	if ok {
		outcome = "processed"
	}

	consumedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("consumer", consumer),
		attribute.String("outcome", outcome),
	))
}
