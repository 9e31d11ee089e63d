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

// Package dashboard builds the service dashboard read model and pushes it to
// websocket subscribers.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/GERONlMO/pingtower/pkg/db"
	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

const (
	// TopicSnapshot carries the full dashboard.
	TopicSnapshot = "dashboard"
	// TopicUpdate carries a single refreshed service.
	TopicUpdate = "dashboard.update"

	defaultWindow = 24 * time.Hour
)

// Broadcaster delivers a message to every connected observer.
type Broadcaster interface {
	Broadcast(topic string, data interface{})
}

// Service joins service summaries with windowed analytics.
type Service struct {
	services  db.ServiceStore
	analytics db.AnalyticsStore
	push      Broadcaster
	window    time.Duration
	now       func() time.Time
	logger    logger.Logger
}

// NewService creates the dashboard service. window defaults to 24h.
func NewService(services db.ServiceStore, analytics db.AnalyticsStore, push Broadcaster, window time.Duration, log logger.Logger) *Service {
	if window <= 0 {
		window = defaultWindow
	}

	return &Service{
		services:  services,
		analytics: analytics,
		push:      push,
		window:    window,
		now:       time.Now,
		logger:    log,
	}
}

// Snapshot returns the view of every service using one aggregate query.
func (s *Service) Snapshot(ctx context.Context) ([]models.DashboardView, error) {
	services, err := s.services.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	metrics := s.windowMetrics(ctx)

	views := make([]models.DashboardView, 0, len(services))

	for _, svc := range services {
		views = append(views, models.NewDashboardView(svc, metrics[svc.ID]))
	}

	return views, nil
}

// Refresh returns the view of one service.
func (s *Service) Refresh(ctx context.Context, serviceID string) (*models.DashboardView, error) {
	svc, err := s.services.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	metrics := s.windowMetrics(ctx, serviceID)
	view := models.NewDashboardView(svc, metrics[serviceID])

	return &view, nil
}

// RefreshAndPush broadcasts the current view of one service. Failures are
// logged; observers simply miss the update.
func (s *Service) RefreshAndPush(ctx context.Context, serviceID string) {
	view, err := s.Refresh(ctx, serviceID)
	if err != nil {
		s.logger.Warn().Err(err).Str("service_id", serviceID).Msg("Failed to refresh dashboard view")
		return
	}

	s.push.Broadcast(TopicUpdate, view)
}

// windowMetrics degrades to an empty result when analytics is unavailable.
func (s *Service) windowMetrics(ctx context.Context, serviceIDs ...string) map[string]models.WindowMetrics {
	since := s.now().Add(-s.window)

	metrics, err := s.analytics.WindowMetrics(ctx, since, serviceIDs...)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Analytics unavailable, using zero metrics")
		return map[string]models.WindowMetrics{}
	}

	return metrics
}
