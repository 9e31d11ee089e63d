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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/GERONlMO/pingtower/pkg/db"
	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

var (
	errAnalytics = errors.New("proton unavailable")
	testNow      = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	topics   []string
	payloads []interface{}
}

func (b *recordingBroadcaster) Broadcast(topic string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.topics = append(b.topics, topic)
	b.payloads = append(b.payloads, data)
}

func newTestService(services db.ServiceStore, analytics db.AnalyticsStore, push Broadcaster) *Service {
	s := NewService(services, analytics, push, 0, logger.NewTestLogger())
	s.now = func() time.Time { return testNow }

	return s
}

func testServices() []*models.ServiceSummary {
	ttfb := int64(85)

	return []*models.ServiceSummary{
		{ID: "svc-1", Name: "Checkout", Environment: "prod", Status: models.ServiceStatusOK, LastTTFBMs: &ttfb},
		{ID: "svc-2", Name: "Search", Environment: "stage"},
	}
}

func TestSnapshotJoinsWindowMetrics(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	services := db.NewMockServiceStore(ctrl)
	analytics := db.NewMockAnalyticsStore(ctrl)

	services.EXPECT().ListServices(gomock.Any()).Return(testServices(), nil)
	analytics.EXPECT().WindowMetrics(gomock.Any(), testNow.Add(-24*time.Hour)).
		Return(map[string]models.WindowMetrics{
			"svc-1": {ServiceID: "svc-1", P95Ms: 123.456, AvgMs: 80, OKCount: 7, Total: 10},
		}, nil)

	views, err := newTestService(services, analytics, &recordingBroadcaster{}).Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "svc-1", views[0].ID)
	assert.InDelta(t, 70.0, views[0].Uptime, 0.001)
	assert.Equal(t, uint64(7), views[0].OK)
	assert.InDelta(t, 123.46, views[0].P95, 0.001)
	assert.True(t, views[0].IsOK)
	require.NotNil(t, views[0].TTFB)
	assert.Equal(t, int64(85), *views[0].TTFB)

	assert.Equal(t, "svc-2", views[1].ID)
	assert.Equal(t, models.ServiceStatusUnknown, views[1].Status)
	assert.Zero(t, views[1].Uptime)
	assert.Zero(t, views[1].OK)
	assert.False(t, views[1].IsOK)
}

func TestSnapshotDegradesWithoutAnalytics(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	services := db.NewMockServiceStore(ctrl)
	analytics := db.NewMockAnalyticsStore(ctrl)

	services.EXPECT().ListServices(gomock.Any()).Return(testServices(), nil)
	analytics.EXPECT().WindowMetrics(gomock.Any(), gomock.Any()).Return(nil, errAnalytics)

	views, err := newTestService(services, analytics, &recordingBroadcaster{}).Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	for _, v := range views {
		assert.Zero(t, v.P95)
		assert.Zero(t, v.Avg)
		assert.Zero(t, v.Uptime)
	}
}

func TestSnapshotFailsWhenServicesUnavailable(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	services := db.NewMockServiceStore(ctrl)
	errDB := errors.New("postgres down")

	services.EXPECT().ListServices(gomock.Any()).Return(nil, errDB)

	_, err := newTestService(services, db.NewMockAnalyticsStore(ctrl), &recordingBroadcaster{}).Snapshot(context.Background())
	require.ErrorIs(t, err, errDB)
}

func TestRefreshAndPushBroadcastsUpdate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	services := db.NewMockServiceStore(ctrl)
	analytics := db.NewMockAnalyticsStore(ctrl)
	push := &recordingBroadcaster{}

	services.EXPECT().GetService(gomock.Any(), "svc-1").Return(testServices()[0], nil)
	analytics.EXPECT().WindowMetrics(gomock.Any(), gomock.Any(), "svc-1").
		Return(map[string]models.WindowMetrics{"svc-1": {OKCount: 1, Total: 4}}, nil)

	newTestService(services, analytics, push).RefreshAndPush(context.Background(), "svc-1")

	require.Equal(t, []string{TopicUpdate}, push.topics)

	view, ok := push.payloads[0].(*models.DashboardView)
	require.True(t, ok)
	assert.Equal(t, "svc-1", view.ID)
	assert.InDelta(t, 25.0, view.Uptime, 0.001)
}

func TestRefreshAndPushSkipsUnknownService(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	services := db.NewMockServiceStore(ctrl)
	push := &recordingBroadcaster{}

	services.EXPECT().GetService(gomock.Any(), "missing").Return(nil, db.ErrServiceNotFound)

	newTestService(services, db.NewMockAnalyticsStore(ctrl), push).RefreshAndPush(context.Background(), "missing")

	assert.Empty(t, push.topics)
}
