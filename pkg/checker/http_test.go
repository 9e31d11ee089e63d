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
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

func fastRetries() HTTPConfig {
	return HTTPConfig{
		Retries:        2,
		InitialBackoff: models.Duration(time.Millisecond),
		MaxBackoff:     models.Duration(5 * time.Millisecond),
	}
}

func httpCheck(cfg models.CheckConfig) *models.CheckDefinition {
	return &models.CheckDefinition{
		ID:        "check-1",
		ServiceID: "svc-1",
		Type:      models.CheckTypeHTTP,
		Enabled:   true,
		Config:    cfg,
	}
}

func TestHTTPStrategyStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		code        int
		wantSuccess bool
		wantText    string
		wantClass   models.Classification
		wantError   string
	}{
		{name: "ok", code: http.StatusOK, wantSuccess: true, wantText: "200 OK", wantClass: models.ClassOK},
		{name: "no content", code: http.StatusNoContent, wantSuccess: true, wantText: "204 No Content", wantClass: models.ClassOK},
		{name: "not modified counts as success", code: http.StatusNotModified, wantSuccess: true, wantText: "304 Not Modified", wantClass: models.ClassOK},
		{
			name: "not found", code: http.StatusNotFound, wantText: "404 Not Found", wantClass: models.ClassHTTPError,
			wantError: "Expected status code 2xx or 3xx but got 404",
		},
		{
			name: "server error", code: http.StatusInternalServerError, wantText: "500 Internal Server Error",
			wantClass: models.ClassHTTPError, wantError: "Expected status code 2xx or 3xx but got 500",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.code)
			}))
			defer srv.Close()

			s := NewHTTPStrategy(srv.Client(), fastRetries(), logger.NewTestLogger())
			result := s.Execute(context.Background(), httpCheck(models.CheckConfig{"url": srv.URL}))

			require.NotNil(t, result)
			assert.Equal(t, tc.wantSuccess, result.Success)
			assert.Equal(t, tc.code, result.ResponseCode)
			assert.Equal(t, tc.wantText, result.StatusText)
			assert.Equal(t, tc.wantClass, result.Classification)
			assert.Equal(t, tc.wantError, result.ErrorMessage)
			require.NotNil(t, result.TTFBMs)
			assert.GreaterOrEqual(t, result.LatencyMs, *result.TTFBMs)

			// Error statuses are answers, not transport failures: no retries.
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestHTTPStrategySendsMethodAndUserAgent(t *testing.T) {
	t.Parallel()

	seen := make(chan *http.Request, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPStrategy(srv.Client(), fastRetries(), logger.NewTestLogger())
	result := s.Execute(context.Background(), httpCheck(models.CheckConfig{"url": srv.URL, "method": "head"}))

	require.True(t, result.Success)

	req := <-seen
	assert.Equal(t, http.MethodHead, req.Method)
	assert.Equal(t, "PingTower/1.0", req.Header.Get("User-Agent"))
}

func TestHTTPStrategyFollowsRedirects(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewHTTPStrategy(srv.Client(), fastRetries(), logger.NewTestLogger())
	result := s.Execute(context.Background(), httpCheck(models.CheckConfig{"url": srv.URL + "/old"}))

	assert.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.ResponseCode)
}

func TestHTTPStrategyRetriesTransportErrors(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) <= 2 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer does not support hijacking")
				return
			}

			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPStrategy(srv.Client(), fastRetries(), logger.NewTestLogger())
	result := s.Execute(context.Background(), httpCheck(models.CheckConfig{"url": srv.URL}))

	assert.True(t, result.Success)
	assert.GreaterOrEqual(t, attempts.Load(), int32(3))
}

func TestHTTPStrategyTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := NewHTTPStrategy(nil, fastRetries(), logger.NewTestLogger())
	result := s.Execute(context.Background(), httpCheck(models.CheckConfig{"url": url}))

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.ResponseCode)
	assert.Equal(t, "Exception", result.StatusText)
	assert.Equal(t, models.ClassTransportError, result.Classification)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestHTTPStrategyTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	s := NewHTTPStrategy(srv.Client(), HTTPConfig{Retries: -1}, logger.NewTestLogger())
	result := s.Execute(context.Background(), httpCheck(models.CheckConfig{"url": srv.URL, "timeout_ms": 50}))

	assert.False(t, result.Success)
	assert.Equal(t, "Timeout", result.StatusText)
	assert.Equal(t, "Request timed out after 50ms", result.ErrorMessage)
	assert.Equal(t, models.ClassTransportError, result.Classification)
}

func TestHTTPStrategyInvalidConfig(t *testing.T) {
	t.Parallel()

	s := NewHTTPStrategy(nil, fastRetries(), logger.NewTestLogger())

	tests := []struct {
		name string
		cfg  models.CheckConfig
	}{
		{name: "missing url", cfg: models.CheckConfig{}},
		{name: "bad method", cfg: models.CheckConfig{"url": "http://example.invalid", "method": "GE T"}},
		{name: "bad url", cfg: models.CheckConfig{"url": "http://[::1"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := s.Execute(context.Background(), httpCheck(tc.cfg))

			assert.False(t, result.Success)
			assert.Equal(t, models.ClassInvalidConfig, result.Classification)
			assert.NotEmpty(t, result.ErrorMessage)
		})
	}
}

func TestTimeoutFrom(t *testing.T) {
	t.Parallel()

	def := 5 * time.Second

	assert.Equal(t, def, timeoutFrom(models.CheckConfig{}, def))
	assert.Equal(t, 250*time.Millisecond, timeoutFrom(models.CheckConfig{"timeout_ms": 250.0}, def))
	assert.Equal(t, 900*time.Millisecond, timeoutFrom(models.CheckConfig{"timeout": "900"}, def))
	assert.Equal(t, def, timeoutFrom(models.CheckConfig{"timeout_ms": -1}, def))
}
