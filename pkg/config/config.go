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

// Package config loads service configuration from JSON files or the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

var (
	errInvalidConfigSource = errors.New("invalid CONFIG_SOURCE value")
	errInvalidConfigPtr    = errors.New("config must be a non-nil pointer")
	// ErrPasswordFileEmpty is returned when a mounted password file has no content.
	ErrPasswordFileEmpty = errors.New("password file is empty")
	// ErrCNPGPasswordRequired is returned when neither the config nor
	// CNPG_PASSWORD_FILE provides a Postgres password.
	ErrCNPGPasswordRequired = errors.New("CNPG password is required; set it in config or provide CNPG_PASSWORD_FILE")
)

const (
	configSourceFile = "file"
	configSourceEnv  = "env"

	// EnvPrefix prefixes every environment variable read by the env loader.
	EnvPrefix = "PINGTOWER_"
)

// ConfigLoader loads configuration into dst.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configuration structs that can check themselves.
type Validator interface {
	Validate() error
}

// Config holds the configuration loading dependencies.
type Config struct {
	fileLoader ConfigLoader
	envLoader  ConfigLoader
	logger     logger.Logger
}

// NewConfig initializes a Config with file and environment loaders.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Config{
		fileLoader: &FileConfigLoader{},
		envLoader:  NewEnvConfigLoader(log, EnvPrefix),
		logger:     log,
	}
}

// LoadAndValidate loads a configuration from the source named by
// CONFIG_SOURCE (file by default), normalizes TLS paths and validates it.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errInvalidConfigPtr
	}

	source := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_SOURCE")))
	if source == "" {
		source = configSourceFile
	}

	var loader ConfigLoader

	switch source {
	case configSourceFile:
		loader = c.fileLoader
	case configSourceEnv:
		loader = c.envLoader
	default:
		return fmt.Errorf("%w: %s (expected %q or %q)", errInvalidConfigSource, source, configSourceFile, configSourceEnv)
	}

	if err := loader.Load(ctx, path, cfg); err != nil {
		return err
	}

	c.normalizeSecurityConfigs(v.Elem())

	if validator, ok := cfg.(Validator); ok {
		return validator.Validate()
	}

	return nil
}

// normalizeSecurityConfigs walks the struct and rewrites relative TLS paths
// of every *models.SecurityConfig against its cert_dir.
func (c *Config) normalizeSecurityConfigs(v reflect.Value) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}

		if sec, ok := v.Interface().(*models.SecurityConfig); ok {
			NormalizeTLSPaths(&sec.TLS, sec.CertDir)
			c.logger.Debug().Str("ca_file", sec.TLS.CAFile).Msg("Normalized TLS paths")

			return
		}

		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanInterface() {
			continue
		}

		if field.Kind() == reflect.Struct || field.Kind() == reflect.Ptr {
			c.normalizeSecurityConfigs(field)
		}
	}
}

// NormalizeTLSPaths adjusts TLS file paths based on the certificate directory.
func NormalizeTLSPaths(tls *models.TLSConfig, certDir string) {
	if certDir == "" {
		return
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}

		return filepath.Join(certDir, p)
	}

	tls.CertFile = resolve(tls.CertFile)
	tls.KeyFile = resolve(tls.KeyFile)
	tls.CAFile = resolve(tls.CAFile)
}

// ReadPasswordFile returns the trimmed content of a mounted secret file.
func ReadPasswordFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read password file: %w", err)
	}

	pwd := strings.TrimSpace(string(data))
	if pwd == "" {
		return "", fmt.Errorf("%w: %s", ErrPasswordFileEmpty, path)
	}

	return pwd, nil
}

// ApplyCNPGPassword fills an empty Postgres password from the file named by
// CNPG_PASSWORD_FILE.
func ApplyCNPGPassword(cfg *models.CNPGDatabase) error {
	if cfg == nil || cfg.Password != "" {
		return nil
	}

	path := os.Getenv("CNPG_PASSWORD_FILE")
	if path == "" {
		return ErrCNPGPasswordRequired
	}

	pwd, err := ReadPasswordFile(path)
	if err != nil {
		return err
	}

	cfg.Password = pwd

	return nil
}
