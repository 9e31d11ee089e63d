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

package db

import "errors"

var (

	// Core database errors.

	ErrFailedOpenDB   = errors.New("failed to open database")
	ErrFailedToQuery  = errors.New("failed to query")
	ErrFailedToScan   = errors.New("failed to scan")
	ErrFailedToInsert = errors.New("failed to insert")
	ErrFailedToUpdate = errors.New("failed to update")

	// Lookups.

	ErrServiceNotFound = errors.New("service not found")
	ErrCheckNotFound   = errors.New("check not found")

	// ErrCheckAlreadyMarked is returned when another scheduler already moved
	// last_execution to or past the requested mark.
	ErrCheckAlreadyMarked = errors.New("check already marked for this fire time")

	// CNPG connection settings.

	ErrCNPGTLSDisabled    = errors.New("cnpg tls configured but sslmode is disable")
	ErrCNPGSSLModeInvalid = errors.New("cnpg sslmode is not supported")
	ErrCNPGTLSIncomplete  = errors.New("cnpg tls: cert_file, key_file, and ca_file are required")

	// Validation.

	ErrMeasurementInvalid = errors.New("measurement requires check and service ids")
)
