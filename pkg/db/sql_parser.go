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

package db

import "strings"

// sqlScanner tracks the lexical context of a migration file so semicolons
// inside comments, quotes and dollar-quoted bodies do not split statements.
type sqlScanner struct {
	content    string
	pos        int
	quote      byte
	dollarTag  string
	statements []string
	current    strings.Builder
}

// splitSQLStatements splits a migration file into executable statements.
// Comments are dropped; empty statements are skipped.
func splitSQLStatements(content string) []string {
	s := &sqlScanner{content: content}

	for s.pos < len(s.content) {
		s.step()
	}

	s.flush()

	return s.statements
}

func (s *sqlScanner) step() {
	rest := s.content[s.pos:]
	ch := rest[0]

	switch {
	case s.dollarTag != "":
		if strings.HasPrefix(rest, s.dollarTag) {
			s.emit(s.dollarTag)
			s.dollarTag = ""

			return
		}
	case s.quote != 0:
		if ch == s.quote {
			s.quote = 0
		}
	case strings.HasPrefix(rest, "--"):
		s.skipUntil("\n", false)
		return
	case strings.HasPrefix(rest, "/*"):
		s.skipUntil("*/", true)
		return
	case ch == '\'' || ch == '"':
		s.quote = ch
	case ch == '$':
		if tag := dollarTagAt(rest); tag != "" {
			s.dollarTag = tag
			s.emit(tag)

			return
		}
	case ch == ';':
		s.flush()
		s.pos++

		return
	}

	s.current.WriteByte(ch)
	s.pos++
}

func (s *sqlScanner) emit(text string) {
	s.current.WriteString(text)
	s.pos += len(text)
}

// skipUntil drops input up to marker. Line comments keep their newline so
// statement text keeps its line structure.
func (s *sqlScanner) skipUntil(marker string, consume bool) {
	idx := strings.Index(s.content[s.pos:], marker)
	if idx < 0 {
		s.pos = len(s.content)
		return
	}

	s.pos += idx
	if consume {
		s.pos += len(marker)
	}
}

func (s *sqlScanner) flush() {
	if stmt := strings.TrimSpace(s.current.String()); stmt != "" {
		s.statements = append(s.statements, stmt)
	}

	s.current.Reset()
}

// dollarTagAt returns the $tag$ opening content, or "" when content does not
// start with one. $1 style placeholders are not tags.
func dollarTagAt(content string) string {
	for i := 1; i < len(content); i++ {
		ch := content[i]

		if ch == '$' {
			return content[:i+1]
		}

		if !isDollarTagChar(ch) || (i == 1 && ch >= '0' && ch <= '9') {
			return ""
		}
	}

	return ""
}

func isDollarTagChar(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// extractVersion returns the migration version prefix of a file name,
// "00001" for "00001_pingtower.up.sql".
func extractVersion(filename string) string {
	version, _, _ := strings.Cut(filename, "_")
	return version
}
