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

package status

import (
	"context"
	"encoding/json"
	"errors"
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

var errStore = errors.New("store unavailable")

type recordingRefresher struct {
	ids []string
}

func (r *recordingRefresher) RefreshAndPush(_ context.Context, serviceID string) {
	r.ids = append(r.ids, serviceID)
}

type recordingAlerts struct {
	alerts []*models.AlertEvent
	err    error
}

func (a *recordingAlerts) PublishAlert(_ context.Context, alert *models.AlertEvent) error {
	a.alerts = append(a.alerts, alert)
	return a.err
}

var changeTime = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func statusPayload(t *testing.T, previous models.ServiceStatus) []byte {
	t.Helper()

	payload, err := json.Marshal(models.CloudEvent{
		SpecVersion: "1.0",
		Type:        models.EventTypeStatusChange,
		Data: models.StatusChange{
			CheckID:        "check-1",
			ServiceID:      "svc-1",
			PreviousStatus: previous,
			NewStatus:      models.ServiceStatusCrit,
			Timestamp:      changeTime,
			Details:        "HTTP 503",
		},
	})
	require.NoError(t, err)

	return payload
}

func TestProcessAppliedTransitionPushesAndAlertsOnce(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	services := db.NewMockServiceStore(ctrl)
	refresher := &recordingRefresher{}
	alerts := &recordingAlerts{}

	services.EXPECT().ApplyStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c *models.StatusChange) (bool, error) {
			assert.Equal(t, "svc-1", c.ServiceID)
			assert.Equal(t, models.ServiceStatusCrit, c.NewStatus)

			return true, nil
		})
	services.EXPECT().GetService(gomock.Any(), "svc-1").
		Return(&models.ServiceSummary{ID: "svc-1", Name: "Checkout", Environment: "prod"}, nil)

	p := NewProcessor(services, refresher, alerts, logger.NewTestLogger())

	require.NoError(t, p.Process(context.Background(), models.SubjectStatusUpdates, statusPayload(t, models.ServiceStatusOK)))

	assert.Equal(t, []string{"svc-1"}, refresher.ids)
	require.Len(t, alerts.alerts, 1)

	alert := alerts.alerts[0]
	assert.Equal(t, "Checkout", alert.ServiceName)
	assert.Equal(t, "prod", alert.Environment)
	assert.Equal(t, models.ServiceStatusOK, alert.PreviousStatus)
	assert.Equal(t, models.ServiceStatusCrit, alert.NewStatus)
	assert.Equal(t, "HTTP 503", alert.Message)
	assert.True(t, changeTime.Equal(alert.Timestamp))
}

func TestProcessRedeliveryIsIgnored(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	services := db.NewMockServiceStore(ctrl)
	refresher := &recordingRefresher{}
	alerts := &recordingAlerts{}

	services.EXPECT().ApplyStatus(gomock.Any(), gomock.Any()).Return(false, nil)

	p := NewProcessor(services, refresher, alerts, logger.NewTestLogger())

	require.NoError(t, p.Process(context.Background(), models.SubjectStatusUpdates, statusPayload(t, models.ServiceStatusOK)))

	assert.Empty(t, refresher.ids)
	assert.Empty(t, alerts.alerts)
}

func TestProcessStoreErrorIsReturned(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	services := db.NewMockServiceStore(ctrl)
	refresher := &recordingRefresher{}
	alerts := &recordingAlerts{}

	services.EXPECT().ApplyStatus(gomock.Any(), gomock.Any()).Return(false, errStore)

	p := NewProcessor(services, refresher, alerts, logger.NewTestLogger())

	err := p.Process(context.Background(), models.SubjectStatusUpdates, statusPayload(t, models.ServiceStatusOK))
	require.ErrorIs(t, err, errStore)
	assert.NotErrorIs(t, err, natsutil.ErrMalformedEvent)
	assert.Empty(t, refresher.ids)
	assert.Empty(t, alerts.alerts)
}

func TestProcessAlertFallsBackWithoutServiceDetails(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	services := db.NewMockServiceStore(ctrl)
	refresher := &recordingRefresher{}
	alerts := &recordingAlerts{err: errors.New("nats unavailable")}

	services.EXPECT().ApplyStatus(gomock.Any(), gomock.Any()).Return(true, nil)
	services.EXPECT().GetService(gomock.Any(), "svc-1").Return(nil, errStore)

	p := NewProcessor(services, refresher, alerts, logger.NewTestLogger())

	require.NoError(t, p.Process(context.Background(), models.SubjectStatusUpdates, statusPayload(t, "")))

	require.Len(t, alerts.alerts, 1)
	assert.Equal(t, "svc-1", alerts.alerts[0].ServiceName)
	assert.Empty(t, alerts.alerts[0].Environment)
	assert.Equal(t, models.ServiceStatusUnknown, alerts.alerts[0].PreviousStatus)
}

func TestProcessRejectsInvalidStatusChange(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	p := NewProcessor(db.NewMockServiceStore(ctrl), &recordingRefresher{}, &recordingAlerts{}, logger.NewTestLogger())

	payloads := [][]byte{
		[]byte("{"),
		[]byte(`{"serviceId":"svc-1","newStatus":"DEGRADED"}`),
		[]byte(`{"newStatus":"OK"}`),
	}

	for _, payload := range payloads {
		err := p.Process(context.Background(), models.SubjectStatusUpdates, payload)
		require.ErrorIs(t, err, natsutil.ErrMalformedEvent)
	}
}
