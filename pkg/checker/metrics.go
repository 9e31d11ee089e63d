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

package checker

import (
	"context"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/GERONlMO/pingtower/pkg/models"
)

const meterName = "pingtower.checker"

var (
	//nolint:gochecknoglobals // metric instruments are shared singletons
	checkerMetricsOnce sync.Once
	//nolint:gochecknoglobals // metric instruments are shared singletons
	executedCounter metric.Int64Counter
	//nolint:gochecknoglobals // metric instruments are shared singletons
	latencyHistogram metric.Int64Histogram
)

func initCheckerMetrics() {
	meter := otel.Meter(meterName)

	var err error

	executedCounter, err = meter.Int64Counter(
		"pingtower_checks_executed_total",
		metric.WithDescription("Executed checks, by type, success and classification"),
	)
	if err != nil {
		otel.Handle(err)
	}

	latencyHistogram, err = meter.Int64Histogram(
		"pingtower_check_latency_ms",
		metric.WithDescription("End-to-end check latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

func recordExecution(ctx context.Context, checkType models.CheckType, result *models.CheckResult) {
	checkerMetricsOnce.Do(initCheckerMetrics)

	attrs := metric.WithAttributes(
		attribute.String("check_type", string(checkType)),
		attribute.String("success", strconv.FormatBool(result.Success)),
		attribute.String("classification", string(result.Classification)),
	)

	if executedCounter != nil {
		executedCounter.Add(ctx, 1, attrs)
	}

	if latencyHistogram != nil {
		latencyHistogram.Record(ctx, result.LatencyMs, metric.WithAttributes(
			attribute.String("check_type", string(checkType)),
		))
	}
}
