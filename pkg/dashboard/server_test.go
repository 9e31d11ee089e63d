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

package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/GERONlMO/pingtower/pkg/db"
	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

type wireMessage struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, services db.ServiceStore, analytics db.AnalyticsStore) (*httptest.Server, *Service, *Hub) {
	t.Helper()

	log := logger.NewTestLogger()
	hub := NewHub(nil, log)
	svc := newTestService(services, analytics, hub)
	srv := httptest.NewServer(NewServer(svc, hub, log).Handler())

	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return srv, svc, hub
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func TestWebSocketSnapshotRefreshAndUpdate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	services := db.NewMockServiceStore(ctrl)
	analytics := db.NewMockAnalyticsStore(ctrl)

	services.EXPECT().ListServices(gomock.Any()).Return(testServices(), nil).Times(2)
	analytics.EXPECT().WindowMetrics(gomock.Any(), gomock.Any()).
		Return(map[string]models.WindowMetrics{"svc-1": {OKCount: 7, Total: 10}}, nil).Times(2)

	srv, svc, hub := newTestServer(t, services, analytics)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/dashboard"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	defer func() { _ = conn.Close() }()
	defer func() { _ = resp.Body.Close() }()

	first := readMessage(t, conn)
	assert.Equal(t, TopicSnapshot, first.Topic)

	var views []models.DashboardView
	require.NoError(t, json.Unmarshal(first.Data, &views))
	require.Len(t, views, 2)
	assert.InDelta(t, 70.0, views[0].Uptime, 0.001)
	assert.Equal(t, uint64(7), views[0].OK)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "refresh"}))

	second := readMessage(t, conn)
	assert.Equal(t, TopicSnapshot, second.Topic)
	assert.Equal(t, 1, hub.ClientCount())

	services.EXPECT().GetService(gomock.Any(), "svc-2").Return(testServices()[1], nil)
	analytics.EXPECT().WindowMetrics(gomock.Any(), gomock.Any(), "svc-2").Return(map[string]models.WindowMetrics{}, nil)

	svc.RefreshAndPush(context.Background(), "svc-2")

	update := readMessage(t, conn)
	assert.Equal(t, TopicUpdate, update.Topic)

	var view models.DashboardView
	require.NoError(t, json.Unmarshal(update.Data, &view))
	assert.Equal(t, "svc-2", view.ID)
	assert.Equal(t, "Search", view.Name)
}

func TestRESTEndpoints(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	services := db.NewMockServiceStore(ctrl)
	analytics := db.NewMockAnalyticsStore(ctrl)

	services.EXPECT().ListServices(gomock.Any()).Return(testServices(), nil)
	services.EXPECT().GetService(gomock.Any(), "svc-1").Return(testServices()[0], nil)
	services.EXPECT().GetService(gomock.Any(), "nope").Return(nil, db.ErrServiceNotFound)
	analytics.EXPECT().WindowMetrics(gomock.Any(), gomock.Any()).Return(map[string]models.WindowMetrics{}, nil)
	analytics.EXPECT().WindowMetrics(gomock.Any(), gomock.Any(), "svc-1").Return(map[string]models.WindowMetrics{}, nil)

	srv, _, _ := newTestServer(t, services, analytics)

	tests := []struct {
		path   string
		status int
	}{
		{path: "/healthz", status: http.StatusOK},
		{path: "/api/dashboard", status: http.StatusOK},
		{path: "/api/dashboard/svc-1", status: http.StatusOK},
		{path: "/api/dashboard/nope", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+tt.path, http.NoBody)
		require.NoError(t, err)

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)

		assert.Equal(t, tt.status, resp.StatusCode, tt.path)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"), tt.path)

		_ = resp.Body.Close()
	}
}

func TestOriginAllowed(t *testing.T) {
	t.Parallel()

	assert.True(t, originAllowed("https://a.example", nil))
	assert.True(t, originAllowed("", []string{"https://a.example"}))
	assert.True(t, originAllowed("https://a.example", []string{"https://a.example"}))
	assert.True(t, originAllowed("https://b.example", []string{"*"}))
	assert.False(t, originAllowed("https://b.example", []string{"https://a.example"}))
}
