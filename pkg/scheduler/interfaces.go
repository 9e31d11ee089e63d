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
	"time"

	"github.com/GERONlMO/pingtower/pkg/models"
)

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// CheckSource lists schedulable checks and records the dispatch mark.
type CheckSource interface {
	ListEnabledChecks(ctx context.Context) ([]*models.CheckDefinition, error)
	MarkExecuted(ctx context.Context, checkID string, at time.Time) error
}

// Runner executes one check end to end (strategy plus result handling).
type Runner interface {
	Run(ctx context.Context, check *models.CheckDefinition)
}
