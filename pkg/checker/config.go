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
	"errors"
	"time"

	"github.com/GERONlMO/pingtower/pkg/models"
)

// Check config keys.
const (
	keyURL           = "url"
	keyMethod        = "method"
	keyTimeoutMs     = "timeout_ms"
	keyTimeoutLegacy = "timeout"
	keyExpectedCode  = "expected_code"
	keyHost          = "host"
	keyPort          = "port"
	keyCriticalDays  = "critical_days"
)

var (
	errMissingURL  = errors.New("missing 'url' in check config")
	errMissingHost = errors.New("missing 'url' or 'host' in check config")
)

// timeoutFrom reads timeout_ms, falling back to the older timeout key.
// Non-positive values select def.
func timeoutFrom(cfg models.CheckConfig, def time.Duration) time.Duration {
	ms := cfg.Int(keyTimeoutMs, 0)
	if ms <= 0 {
		ms = cfg.Int(keyTimeoutLegacy, 0)
	}

	if ms <= 0 {
		return def
	}

	return time.Duration(ms) * time.Millisecond
}
