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
	"errors"
	"time"
)

var (
	// ErrPoolExhausted is returned when no session frees up within the acquire timeout.
	ErrPoolExhausted = errors.New("browser pool exhausted")
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("browser pool closed")
	// ErrSessionLost marks load failures caused by the browser itself going away.
	ErrSessionLost = errors.New("browser session lost")
	// ErrNilLease is returned when releasing a nil lease.
	ErrNilLease = errors.New("nil browser lease")
)

// PageLoad is what a session observed while loading a page.
type PageLoad struct {
	Title            string
	DOMContentLoaded time.Duration
}

// Session is one exclusive headless browser context.
type Session interface {
	// Load navigates to url, waits up to bodyWait for the document body and
	// reads the title and DOM timing. ctx bounds the whole operation.
	Load(ctx context.Context, url string, bodyWait time.Duration) (*PageLoad, error)
	// Probe checks that the browser still responds.
	Probe(ctx context.Context) error
	// Reset clears cookies and navigates to a blank page.
	Reset(ctx context.Context) error
	// Close terminates the browser context.
	Close() error
}

// SessionFactory creates sessions on demand.
type SessionFactory interface {
	NewSession(ctx context.Context) (Session, error)
}
