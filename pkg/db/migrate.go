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

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/timeplus-io/proton-go-driver/v2/lib/driver"

	"github.com/GERONlMO/pingtower/pkg/logger"
)

const (
	cnpgMigrationsTable = "pingtower_schema_migrations"
	cnpgMigrationsDir   = "cnpg/migrations"
	protonSchemaFile    = "migrations/schema.sql"
	protonMarkerStream  = "measurements"
)

//go:embed cnpg/migrations/*.sql
var cnpgMigrationsFS embed.FS

//go:embed migrations/*.sql
var protonMigrationsFS embed.FS

// RunCNPGMigrations applies every embedded .up.sql file not yet recorded in
// the tracking table, in version order.
func RunCNPGMigrations(ctx context.Context, pool *pgxpool.Pool, log logger.Logger) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("cnpg migrations: acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version     TEXT PRIMARY KEY,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, cnpgMigrationsTable)); err != nil {
		return fmt.Errorf("cnpg migrations: create tracking table: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	pending, err := pendingMigrations(cnpgMigrationsFS, applied)
	if err != nil {
		return err
	}

	for _, name := range pending {
		log.Info().Str("migration", name).Msg("Applying CNPG migration")

		content, err := cnpgMigrationsFS.ReadFile(cnpgMigrationsDir + "/" + name)
		if err != nil {
			return fmt.Errorf("cnpg migrations: read %s: %w", name, err)
		}

		for idx, stmt := range splitSQLStatements(string(content)) {
			if _, err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("cnpg migrations: statement %d in %s failed: %w", idx+1, name, err)
			}
		}

		if _, err := conn.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (version) VALUES ($1)`, cnpgMigrationsTable), extractVersion(name)); err != nil {
			return fmt.Errorf("cnpg migrations: record %s: %w", name, err)
		}

		log.Info().Str("migration", name).Msg("CNPG migration complete")
	}

	return nil
}

func appliedVersions(ctx context.Context, q pgxQuerier) (map[string]struct{}, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT version FROM %s`, cnpgMigrationsTable))
	if err != nil {
		return nil, fmt.Errorf("cnpg migrations: list applied versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("cnpg migrations: scan applied version: %w", err)
		}

		applied[version] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cnpg migrations: iterate applied versions: %w", err)
	}

	return applied, nil
}

// pendingMigrations lists the .up.sql files of fsys whose version is not in
// applied, sorted by name. .down.sql files are rollback-only.
func pendingMigrations(fsys fs.FS, applied map[string]struct{}) ([]string, error) {
	entries, err := fs.ReadDir(fsys, cnpgMigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("cnpg migrations: read embedded migrations: %w", err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}

		if _, ok := applied[extractVersion(entry.Name())]; ok {
			continue
		}

		names = append(names, entry.Name())
	}

	sort.Strings(names)

	return names, nil
}

// RunProtonMigrations creates the analytics streams when they do not exist.
func RunProtonMigrations(ctx context.Context, conn driver.Conn, log logger.Logger) error {
	exists, err := protonStreamExists(ctx, conn, protonMarkerStream)
	if err != nil {
		return fmt.Errorf("proton migrations: inspect schema: %w", err)
	}

	if exists {
		log.Debug().Str("stream", protonMarkerStream).Msg("Analytics schema already present")
		return nil
	}

	content, err := protonMigrationsFS.ReadFile(protonSchemaFile)
	if err != nil {
		return fmt.Errorf("proton migrations: read schema: %w", err)
	}

	statements := splitSQLStatements(string(content))
	log.Info().Int("statement_count", len(statements)).Msg("Applying analytics schema")

	for i, stmt := range statements {
		if err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("proton migrations: statement %d failed: %w", i+1, err)
		}
	}

	return nil
}

func protonStreamExists(ctx context.Context, conn driver.Conn, name string) (bool, error) {
	rows, err := conn.Query(ctx,
		"SELECT count() FROM system.tables WHERE database = current_database() AND name = $1", name)
	if err != nil {
		return false, err
	}
	defer CloseRows(rows)

	var count uint64

	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return false, err
		}
	}

	return count > 0, rows.Err()
}

// CloseRows closes proton rows, ignoring the error.
func CloseRows(rows driver.Rows) {
	_ = rows.Close()
}
