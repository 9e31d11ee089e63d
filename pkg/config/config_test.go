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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

var errMissingName = errors.New("name is required")

type testConfig struct {
	Name     string                 `json:"name"`
	Workers  int                    `json:"workers"`
	Debug    bool                   `json:"debug"`
	Interval models.Duration        `json:"interval"`
	Subjects []string               `json:"subjects"`
	NATS     models.NATSConfig      `json:"nats"`
	Security *models.SecurityConfig `json:"security"`
}

func (c *testConfig) Validate() error {
	if c.Name == "" {
		return errMissingName
	}

	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndValidateFromFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeFile(t, `{
		"name": "ping-worker",
		"workers": 20,
		"interval": "30s",
		"security": {"mode": "mtls", "cert_dir": "/etc/pingtower/certs", "tls": {"cert_file": "client.pem", "key_file": "/abs/key.pem", "ca_file": "ca.pem"}}
	}`)

	var cfg testConfig

	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "ping-worker", cfg.Name)
	assert.Equal(t, 20, cfg.Workers)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.Interval))
	assert.Equal(t, "/etc/pingtower/certs/client.pem", cfg.Security.TLS.CertFile)
	assert.Equal(t, "/abs/key.pem", cfg.Security.TLS.KeyFile)
	assert.Equal(t, "/etc/pingtower/certs/ca.pem", cfg.Security.TLS.CAFile)
}

func TestLoadAndValidateRunsValidator(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := writeFile(t, `{"workers": 1}`)

	var cfg testConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
	require.ErrorIs(t, err, errMissingName)
}

func TestLoadAndValidateRejectsUnknownSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	var cfg testConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg)
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestLoadAndValidateRequiresPointer(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	err := NewConfig(nil).LoadAndValidate(context.Background(), "", testConfig{})
	require.ErrorIs(t, err, errInvalidConfigPtr)
}

func TestEnvLoaderIndividualVariables(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("PINGTOWER_NAME", "control-tower")
	t.Setenv("PINGTOWER_WORKERS", "8")
	t.Setenv("PINGTOWER_DEBUG", "true")
	t.Setenv("PINGTOWER_INTERVAL", "45s")
	t.Setenv("PINGTOWER_SUBJECTS", "raw-measurements, alerts")
	t.Setenv("PINGTOWER_NATS_URL", "nats://nats:4222")
	t.Setenv("PINGTOWER_NATS_STREAM", "PINGTOWER")

	var cfg testConfig

	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "control-tower", cfg.Name)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 45*time.Second, time.Duration(cfg.Interval))
	assert.Equal(t, []string{"raw-measurements", "alerts"}, cfg.Subjects)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, "PINGTOWER", cfg.NATS.Stream)
	assert.Nil(t, cfg.Security)
}

func TestEnvLoaderConfigJSON(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("PINGTOWER_CONFIG_JSON", `{"name":"from-json","workers":3}`)

	var cfg testConfig

	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))
	assert.Equal(t, "from-json", cfg.Name)
	assert.Equal(t, 3, cfg.Workers)
}

func TestReadPasswordFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	good := filepath.Join(dir, "pw")
	require.NoError(t, os.WriteFile(good, []byte("s3cret\n"), 0o600))

	pwd, err := ReadPasswordFile(good)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pwd)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))

	_, err = ReadPasswordFile(empty)
	require.ErrorIs(t, err, ErrPasswordFileEmpty)
}

func TestApplyCNPGPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pw")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	explicit := &models.CNPGDatabase{Password: "inline"}
	require.NoError(t, ApplyCNPGPassword(explicit))
	assert.Equal(t, "inline", explicit.Password)

	t.Setenv("CNPG_PASSWORD_FILE", "")
	require.ErrorIs(t, ApplyCNPGPassword(&models.CNPGDatabase{}), ErrCNPGPasswordRequired)

	t.Setenv("CNPG_PASSWORD_FILE", path)

	cfg := &models.CNPGDatabase{}
	require.NoError(t, ApplyCNPGPassword(cfg))
	assert.Equal(t, "from-file", cfg.Password)

	require.NoError(t, ApplyCNPGPassword(nil))
}
