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

package measurements

import (
	"context"
	"encoding/json"
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
	"github.com/GERONlMO/pingtower/pkg/natsutil"
)

type recordingRefresher struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingRefresher) RefreshAndPush(_ context.Context, serviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ids = append(r.ids, serviceID)
}

func measurementPayload(t *testing.T) []byte {
	t.Helper()

	ttfb := int64(120)

	payload, err := json.Marshal(models.CloudEvent{
		SpecVersion: "1.0",
		Type:        models.EventTypeRawMeasurement,
		Data: models.RawMeasurement{
			CheckID:      "check-1",
			ServiceID:    "svc-1",
			CheckType:    models.CheckTypeHTTP,
			Timestamp:    time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
			LatencyMs:    150,
			TTFBMs:       &ttfb,
			ResponseCode: 200,
			StatusText:   "200 OK",
			Success:      true,
		},
	})
	require.NoError(t, err)

	return payload
}

func TestProcessWritesBothStoresAndPushes(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	analytics := db.NewMockAnalyticsStore(ctrl)
	services := db.NewMockServiceStore(ctrl)
	refresher := &recordingRefresher{}

	analytics.EXPECT().InsertMeasurement(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m *models.RawMeasurement) error {
			assert.Equal(t, "check-1", m.CheckID)
			assert.Equal(t, int64(150), m.LatencyMs)
			require.NotNil(t, m.TTFBMs)
			assert.Equal(t, int64(120), *m.TTFBMs)

			return nil
		})
	services.EXPECT().ApplyMeasurement(gomock.Any(), gomock.Any()).Return(nil)

	p := NewProcessor(analytics, services, refresher, logger.NewTestLogger())

	require.NoError(t, p.Process(context.Background(), models.SubjectRawMeasurements, measurementPayload(t)))
	assert.Equal(t, []string{"svc-1"}, refresher.ids)
}

func TestProcessAnalyticsFailureStillAppliesSummary(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	analytics := db.NewMockAnalyticsStore(ctrl)
	services := db.NewMockServiceStore(ctrl)
	refresher := &recordingRefresher{}

	analytics.EXPECT().InsertMeasurement(gomock.Any(), gomock.Any()).Return(errors.New("proton down"))
	services.EXPECT().ApplyMeasurement(gomock.Any(), gomock.Any()).Return(nil)

	p := NewProcessor(analytics, services, refresher, logger.NewTestLogger())

	require.NoError(t, p.Process(context.Background(), models.SubjectRawMeasurements, measurementPayload(t)))
	assert.Equal(t, []string{"svc-1"}, refresher.ids)
}

func TestProcessSummaryFailureSkipsPush(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "unknown service", err: db.ErrServiceNotFound},
		{name: "database error", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			analytics := db.NewMockAnalyticsStore(ctrl)
			services := db.NewMockServiceStore(ctrl)
			refresher := &recordingRefresher{}

			analytics.EXPECT().InsertMeasurement(gomock.Any(), gomock.Any()).Return(nil)
			services.EXPECT().ApplyMeasurement(gomock.Any(), gomock.Any()).Return(tt.err)

			p := NewProcessor(analytics, services, refresher, logger.NewTestLogger())

			require.NoError(t, p.Process(context.Background(), models.SubjectRawMeasurements, measurementPayload(t)))
			assert.Empty(t, refresher.ids)
		})
	}
}

func TestProcessRejectsMalformedMeasurement(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	p := NewProcessor(db.NewMockAnalyticsStore(ctrl), db.NewMockServiceStore(ctrl), &recordingRefresher{}, logger.NewTestLogger())

	for _, payload := range [][]byte{nil, []byte("garbage"), []byte(`{"checkId":"check-1"}`)} {
		err := p.Process(context.Background(), models.SubjectRawMeasurements, payload)
		require.ErrorIs(t, err, natsutil.ErrMalformedEvent)
	}
}
