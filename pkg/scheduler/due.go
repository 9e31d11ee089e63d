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
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	// ErrBlankSchedule is returned for checks without a schedule expression.
	ErrBlankSchedule = errors.New("schedule expression is blank")
	// ErrInvalidSchedule wraps cron parse failures.
	ErrInvalidSchedule = errors.New("invalid cron expression")
)

// scheduleCache parses cron expressions once. Both the classic five-field
// form and the six-field form with leading seconds are accepted, as are
// descriptors such as @every 1m.
type scheduleCache struct {
	parser cron.Parser
	mu     sync.Mutex
	parsed map[string]cron.Schedule
	failed map[string]error
}

func newScheduleCache() *scheduleCache {
	return &scheduleCache{
		parser: cron.NewParser(
			cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		),
		parsed: make(map[string]cron.Schedule),
		failed: make(map[string]error),
	}
}

func (c *scheduleCache) get(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrBlankSchedule
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.parsed[expr]; ok {
		return s, nil
	}

	if err, ok := c.failed[expr]; ok {
		return nil, err
	}

	s, err := c.parser.Parse(expr)
	if err != nil {
		wrapped := fmt.Errorf("%w %q: %w", ErrInvalidSchedule, expr, err)
		c.failed[expr] = wrapped

		return nil, wrapped
	}

	c.parsed[expr] = s

	return s, nil
}

// isDue reports whether a check with the given schedule and last execution
// should run at now. A check that never ran is due immediately; otherwise it
// is due once now is strictly after the first fire time following the last
// execution.
func (c *scheduleCache) isDue(expr string, lastExecution *time.Time, now time.Time) (bool, error) {
	schedule, err := c.get(expr)
	if err != nil {
		return false, err
	}

	if lastExecution == nil || lastExecution.IsZero() {
		return true, nil
	}

	next := schedule.Next(*lastExecution)
	if next.IsZero() {
		return false, nil
	}

	return now.After(next), nil
}
