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

package results

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/GERONlMO/pingtower/pkg/models"
)

var (
	//nolint:gochecknoglobals // metric instruments are shared singletons
	resultsMetricsOnce sync.Once
	//nolint:gochecknoglobals // metric instruments are shared singletons
	transitionCounter metric.Int64Counter
)

func initResultsMetrics() {
	var err error

	transitionCounter, err = otel.Meter("pingtower.results").Int64Counter(
		"pingtower_status_transitions_total",
		metric.WithDescription("Check status transitions, by target status"),
	)
	if err != nil {
		otel.Handle(err)
	}
}

func recordTransition(ctx context.Context, change *models.StatusChange) {
	resultsMetricsOnce.Do(initResultsMetrics)

	if transitionCounter == nil {
		return
	}

	transitionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(change.PreviousStatus)),
		attribute.String("to", string(change.NewStatus)),
	))
}
