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
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"
	blankPage = "about:blank"

	defaultStartTimeout = 30 * time.Second

	domContentLoadedScript = `(function() {
  var t = window.performance.timing;
  return t.domContentLoadedEventEnd - t.navigationStart;
})()`
)

// ChromeConfig selects how browsers are started.
type ChromeConfig struct {
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string `json:"exec_path"`
	// RemoteURL attaches to an already running browser (devtools websocket URL)
	// instead of launching one.
	RemoteURL string `json:"remote_url"`
	UserAgent string `json:"user_agent"`
	// StartTimeout bounds launching a browser and opening its first tab.
	StartTimeout models.Duration `json:"start_timeout"`
}

var errStartAborted = errors.New("browser start aborted")

// ChromeFactory creates one isolated browser per session from a shared
// allocator.
type ChromeFactory struct {
	allocCtx     context.Context
	cancelAlloc  context.CancelFunc
	startTimeout time.Duration
	logger       logger.Logger
}

// NewChromeFactory prepares the allocator. No browser is started until the
// first session is requested.
func NewChromeFactory(ctx context.Context, cfg ChromeConfig, log logger.Logger) *ChromeFactory {
	base := context.WithoutCancel(ctx)
	startTimeout := cfg.StartTimeout.OrDefault(defaultStartTimeout)

	if cfg.RemoteURL != "" {
		allocCtx, cancel := chromedp.NewRemoteAllocator(base, cfg.RemoteURL)

		return &ChromeFactory{allocCtx: allocCtx, cancelAlloc: cancel, startTimeout: startTimeout, logger: log}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(base, opts...)

	return &ChromeFactory{allocCtx: allocCtx, cancelAlloc: cancel, startTimeout: startTimeout, logger: log}
}

// NewSession starts a browser and opens its first tab.
//
// The first Run on a browser context allocates the browser, and the browser
// lives only as long as the context of that Run. It therefore runs on the
// session context itself; ctx and the start timeout can only abort it by
// cancelling the whole session.
func (f *ChromeFactory) NewSession(ctx context.Context) (Session, error) {
	browserCtx, cancel := chromedp.NewContext(f.allocCtx)

	s := &chromeSession{ctx: browserCtx, cancel: cancel}

	err := startBounded(ctx, f.startTimeout, func() error {
		return chromedp.Run(browserCtx)
	}, cancel)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("start browser: %w", err)
	}

	f.logger.Debug().Msg("Started browser session")

	return s, nil
}

// startBounded runs start and calls abort if ctx ends or timeout passes
// before start returns. abort is not called after startBounded returns.
func startBounded(ctx context.Context, timeout time.Duration, start func() error, abort func()) error {
	var (
		mu       sync.Mutex
		finished bool
		aborted  error
	)

	trigger := func(reason error) {
		mu.Lock()
		if finished || aborted != nil {
			mu.Unlock()
			return
		}

		aborted = reason
		mu.Unlock()

		abort()
	}

	timer := time.AfterFunc(timeout, func() {
		trigger(fmt.Errorf("%w: no response within %s", errStartAborted, timeout))
	})
	stopWatch := context.AfterFunc(ctx, func() {
		trigger(fmt.Errorf("%w: %w", errStartAborted, context.Cause(ctx)))
	})

	err := start()

	mu.Lock()
	finished = true
	reason := aborted
	mu.Unlock()

	timer.Stop()
	stopWatch()

	switch {
	case reason != nil && err != nil:
		return errors.Join(reason, err)
	case reason != nil:
		return reason
	default:
		return err
	}
}

// Close stops the allocator and every browser it launched.
func (f *ChromeFactory) Close() {
	f.cancelAlloc()
}

type chromeSession struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// bind derives a context that carries the session's browser target but is
// bounded by the caller's deadline and cancellation. It must only be used
// after the browser was allocated by NewSession.
func (s *chromeSession) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.ctx)

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc

		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		parentCancel := cancel
		cancel = func() {
			cancelDeadline()
			parentCancel()
		}
	}

	stop := context.AfterFunc(ctx, cancel)

	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *chromeSession) wrap(err error) error {
	if err == nil {
		return nil
	}

	if s.ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrSessionLost, err)
	}

	return err
}

func (s *chromeSession) Load(ctx context.Context, url string, bodyWait time.Duration) (*PageLoad, error) {
	runCtx, stop := s.bind(ctx)
	defer stop()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return nil, s.wrap(fmt.Errorf("navigate: %w", err))
	}

	waitCtx, cancelWait := context.WithTimeout(runCtx, bodyWait)
	defer cancelWait()

	if err := chromedp.Run(waitCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return nil, s.wrap(fmt.Errorf("wait for body: %w", err))
	}

	var (
		title string
		domMs float64
	)

	if err := chromedp.Run(runCtx,
		chromedp.Evaluate(domContentLoadedScript, &domMs),
		chromedp.Title(&title),
	); err != nil {
		return nil, s.wrap(fmt.Errorf("read page timing: %w", err))
	}

	if domMs < 0 || math.IsNaN(domMs) {
		domMs = 0
	}

	return &PageLoad{
		Title:            title,
		DOMContentLoaded: time.Duration(domMs) * time.Millisecond,
	}, nil
}

func (s *chromeSession) Probe(ctx context.Context) error {
	runCtx, stop := s.bind(ctx)
	defer stop()

	var location string

	return s.wrap(chromedp.Run(runCtx, chromedp.Location(&location)))
}

func (s *chromeSession) Reset(ctx context.Context) error {
	runCtx, stop := s.bind(ctx)
	defer stop()

	return s.wrap(chromedp.Run(runCtx,
		network.ClearBrowserCookies(),
		chromedp.Navigate(blankPage),
	))
}

func (s *chromeSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()

	return err
}
