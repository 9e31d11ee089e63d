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

import "strings"

//nolint:gochecknoglobals // fixed phrase list
var challengePhrases = []string{
	"antibot",
	"challenge",
	"защита от роботов",
	"проверка",
	"are you a robot",
}

// isChallengeTitle reports whether a page title looks like an anti-bot
// interstitial. An empty title is never treated as a challenge.
func isChallengeTitle(title string) bool {
	if title == "" {
		return false
	}

	lower := strings.ToLower(title)

	for _, phrase := range challengePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	return false
}
