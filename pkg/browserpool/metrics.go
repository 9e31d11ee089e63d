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

package browserpool

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "pingtower.browserpool"

var (
	//nolint:gochecknoglobals // metric instruments are shared singletons
	poolMetricsOnce sync.Once
	//nolint:gochecknoglobals // metric instruments are shared singletons
	acquireTimeouts metric.Int64Counter
	//nolint:gochecknoglobals // metric instruments are shared singletons
	sessionsDestroyed metric.Int64Counter
)

func initPoolMetrics() {
	meter := otel.Meter(meterName)

	var err error

	acquireTimeouts, err = meter.Int64Counter(
		"pingtower_browser_pool_acquire_timeouts_total",
		metric.WithDescription("Browser session acquisitions that timed out"),
	)
	if err != nil {
		otel.Handle(err)
	}

	sessionsDestroyed, err = meter.Int64Counter(
		"pingtower_browser_sessions_destroyed_total",
		metric.WithDescription("Browser sessions destroyed outside normal shutdown, by reason"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

func recordAcquireTimeout(ctx context.Context) {
	poolMetricsOnce.Do(initPoolMetrics)

	if acquireTimeouts != nil {
		acquireTimeouts.Add(ctx, 1)
	}
}

func recordSessionDestroyed(ctx context.Context, reason string) {
	poolMetricsOnce.Do(initPoolMetrics)

	if sessionsDestroyed != nil {
		sessionsDestroyed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}
