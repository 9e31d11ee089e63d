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

package scheduler

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "pingtower.scheduler"

const (
	outcomeSubmitted = "submitted"
	outcomeRejected  = "rejected"
	outcomeSkipped   = "skipped"
)

var (
	//nolint:gochecknoglobals // metric instruments are shared singletons
	schedulerMetricsOnce sync.Once
	//nolint:gochecknoglobals // metric instruments are shared singletons
	dispatchCounter metric.Int64Counter
)

func initSchedulerMetrics() {
	meter := otel.Meter(meterName)

	var err error

	dispatchCounter, err = meter.Int64Counter(
		"pingtower_scheduler_dispatch_total",
		metric.WithDescription("Due checks handled by the scheduler, by outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

func recordDispatch(ctx context.Context, checkType, outcome string) {
	schedulerMetricsOnce.Do(initSchedulerMetrics)

	if dispatchCounter == nil {
		return
	}

	dispatchCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check_type", checkType),
		attribute.String("outcome", outcome),
	))
}
