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

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/GERONlMO/pingtower/pkg/config"
	"github.com/GERONlMO/pingtower/pkg/controltower"
	"github.com/GERONlMO/pingtower/pkg/lifecycle"
	"github.com/GERONlMO/pingtower/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "/etc/pingtower/control-tower.json", "Path to config file")
	flag.Parse()

	ctx := context.Background()

	var cfg controltower.Config

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.ApplyCNPGPassword(cfg.CNPG); err != nil {
		log.Fatalf("Control tower config validation failed: %v", err)
	}

	loggerConfig := cfg.Logging
	if loggerConfig == nil {
		loggerConfig = logger.DefaultConfig()
	}

	serviceLogger, err := lifecycle.CreateComponentLogger(ctx, "control-tower", loggerConfig)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if _, err := logger.InitializeMetrics(ctx, loggerConfig.OTel, 0); err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
		serviceLogger.Warn().Err(err).Msg("Metrics export unavailable")
	}

	defer func() {
		if err := lifecycle.ShutdownLogger(context.Background()); err != nil {
			log.Printf("Failed to shut down logger: %v", err)
		}
	}()

	svc, err := controltower.NewService(&cfg, serviceLogger)
	if err != nil {
		log.Fatalf("Failed to initialize control tower: %v", err) //nolint:gocritic // nothing to flush yet
	}

	opts := &lifecycle.ServerOptions{
		ServiceName:     "control-tower",
		Service:         svc,
		ShutdownTimeout: shutdownTimeout,
		Logger:          serviceLogger,
	}

	if err := lifecycle.RunService(ctx, opts); err != nil {
		serviceLogger.Error().Err(err).Msg("Control tower failed")

		if err := lifecycle.ShutdownLogger(context.Background()); err != nil {
			log.Printf("Failed to shut down logger: %v", err)
		}

		os.Exit(1) //nolint:gocritic // logger flushed above
	}
}
