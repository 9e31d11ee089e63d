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

package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GERONlMO/pingtower/pkg/models"
)

var errTestFixture = errors.New("test fixture error")

type published struct {
	subject string
	payload []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, subject string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.msgs = append(f.msgs, published{subject: subject, payload: payload})

	return &jetstream.PubAck{Stream: DefaultStream, Sequence: uint64(len(f.msgs))}, nil
}

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		subject  string
		want     []string
	}{
		{
			name:    "adds subject when list empty",
			subject: "raw-measurements",
			want:    []string{"raw-measurements"},
		},
		{
			name:     "keeps list when exact match",
			subjects: []string{"raw-measurements", "alerts"},
			subject:  "alerts",
			want:     []string{"raw-measurements", "alerts"},
		},
		{
			name:     "keeps list when greater wildcard matches",
			subjects: []string{"pingtower.>"},
			subject:  "pingtower.alerts",
			want:     []string{"pingtower.>"},
		},
		{
			name:     "appends when unmatched",
			subjects: []string{"raw-measurements"},
			subject:  "service-status-updates",
			want:     []string{"raw-measurements", "service-status-updates"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ensureSubjectList(append([]string(nil), tc.subjects...), tc.subject)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		subject  string
		expected bool
	}{
		{"exact match", "alerts", "alerts", true},
		{"single wildcard", "pingtower.*.raw", "pingtower.eu.raw", true},
		{"greater wildcard", "pingtower.>", "pingtower.eu.raw", true},
		{"greater wildcard needs a token", "pingtower.>", "pingtower", false},
		{"no match length", "pingtower.*", "pingtower.eu.raw", false},
		{"no match tokens", "alerts.*", "pingtower.eu", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, matchesSubject(tc.pattern, tc.subject))
		})
	}
}

func TestIsStreamMissingErr(t *testing.T) {
	t.Parallel()

	assert.True(t, isStreamMissingErr(jetstream.ErrStreamNotFound))
	assert.True(t, isStreamMissingErr(nats.ErrStreamNotFound))
	assert.True(t, isStreamMissingErr(nats.ErrNoResponders))
	assert.False(t, isStreamMissingErr(errTestFixture))
}

func TestEventPublisherWrapsCloudEvent(t *testing.T) {
	t.Parallel()

	js := &fakePublisher{}
	pub := NewEventPublisher(js, "pingtower/ping-worker")

	ts := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	change := &models.StatusChange{CheckID: "c1", ServiceID: "s1", NewStatus: models.ServiceStatusCrit, Timestamp: ts, Details: "boom"}

	require.NoError(t, pub.PublishStatusChange(context.Background(), change))
	require.Len(t, js.msgs, 1)
	assert.Equal(t, models.SubjectStatusUpdates, js.msgs[0].subject)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(js.msgs[0].payload, &envelope))
	assert.Equal(t, "1.0", envelope["specversion"])
	assert.Equal(t, models.EventTypeStatusChange, envelope["type"])
	assert.Equal(t, "pingtower/ping-worker", envelope["source"])
	assert.NotEmpty(t, envelope["id"])

	var decoded models.StatusChange
	require.NoError(t, DecodeEvent(js.msgs[0].payload, &decoded))
	assert.Equal(t, *change, decoded)
}

func TestEventPublisherPropagatesError(t *testing.T) {
	t.Parallel()

	pub := NewEventPublisher(&fakePublisher{err: errTestFixture}, "test")

	err := pub.PublishMeasurement(context.Background(), &models.RawMeasurement{CheckID: "c1"})
	require.ErrorIs(t, err, errTestFixture)
}

func TestDecodeEventAcceptsBarePayload(t *testing.T) {
	t.Parallel()

	var m models.RawMeasurement
	require.NoError(t, DecodeEvent([]byte(`{"checkId":"c9","serviceId":"s9","success":true,"responseCode":200}`), &m))
	assert.Equal(t, "c9", m.CheckID)
	assert.True(t, m.Success)

	require.Error(t, DecodeEvent(nil, &m))
	require.Error(t, DecodeEvent([]byte(`not json`), &m))
}
