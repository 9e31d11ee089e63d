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
	"github.com/GERONlMO/pingtower/pkg/lifecycle"
	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "/etc/pingtower/ping-worker.json", "Path to config file")
	flag.Parse()

	ctx := context.Background()

	var cfg worker.Config

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.ApplyCNPGPassword(cfg.CNPG); err != nil {
		log.Fatalf("Ping worker config validation failed: %v", err)
	}

	loggerConfig := cfg.Logging
	if loggerConfig == nil {
		loggerConfig = logger.DefaultConfig()
	}

	serviceLogger, err := lifecycle.CreateComponentLogger(ctx, "ping-worker", loggerConfig)
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

	svc, err := worker.NewService(&cfg, serviceLogger)
	if err != nil {
		log.Fatalf("Failed to initialize ping worker: %v", err) //nolint:gocritic // nothing to flush yet
	}

	opts := &lifecycle.ServerOptions{
		ServiceName:     "ping-worker",
		Service:         svc,
		ShutdownTimeout: shutdownTimeout,
		Logger:          serviceLogger,
	}

	if err := lifecycle.RunService(ctx, opts); err != nil {
		serviceLogger.Error().Err(err).Msg("Ping worker failed")

		if err := lifecycle.ShutdownLogger(context.Background()); err != nil {
			log.Printf("Failed to shut down logger: %v", err)
		}

		os.Exit(1) //nolint:gocritic // logger flushed above
	}
}
