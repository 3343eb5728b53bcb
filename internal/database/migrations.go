package database

import (
	"context"
	"fmt"
	"sort"

	"designcraft/internal/logger"

	"github.com/Masterminds/semver/v3"
)

// Migration описывает одну версию схемы
type Migration struct {
	Version string
	Up      string
}

// AllMigrations содержит все миграции схемы. Порядок применения определяется версией.
var AllMigrations = []Migration{
	{Version: "1.0.0", Up: migrationCatalogAndOrders},
	{Version: "1.1.0", Up: migrationUsersAndSubscribers},
	{Version: "1.2.0", Up: migrationContent},
}

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const migrationCatalogAndOrders = `
CREATE TABLE IF NOT EXISTS services (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	price NUMERIC(12,2) NOT NULL CHECK (price > 0),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS coupons (
	id UUID PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	discount INTEGER NOT NULL CHECK (discount BETWEEN 1 AND 100),
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id UUID PRIMARY KEY,
	client_name TEXT NOT NULL,
	client_email TEXT NOT NULL,
	service_id UUID NOT NULL,
	service_name TEXT NOT NULL,
	service_price NUMERIC(12,2) NOT NULL CHECK (service_price > 0),
	coupon_code TEXT,
	discount_percent INTEGER NOT NULL DEFAULT 0 CHECK (discount_percent BETWEEN 0 AND 100),
	final_price NUMERIC(12,2) NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('Pending', 'In Progress', 'Completed', 'Cancelled')),
	feedback TEXT,
	voice_note TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_client_email ON orders (LOWER(client_email));
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at DESC);
`

const migrationUsersAndSubscribers = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('admin', 'client')),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS subscribers (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	subscribed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_subscribers_subscribed_at ON subscribers (subscribed_at DESC);
`

const migrationContent = `
CREATE TABLE IF NOT EXISTS banners (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	subtitle TEXT NOT NULL,
	image_url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS portfolio_items (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL,
	owner_id UUID,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sketch_feedback (
	id UUID PRIMARY KEY,
	feedback TEXT NOT NULL,
	sketch_image_url TEXT,
	voice_note_url TEXT,
	user_id UUID,
	created_at TIMESTAMPTZ NOT NULL
);
`

// Migrate применяет все миграции, версия которых выше текущей версии схемы
func (db *DB) Migrate(ctx context.Context, log *logger.Logger) error {
	return db.migrate(ctx, log, AllMigrations)
}

func (db *DB) migrate(ctx context.Context, log *logger.Logger, migrations []Migration) error {
	if _, err := db.ExecContext(ctx, schemaVersionTable); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	current, err := db.currentVersion(ctx)
	if err != nil {
		return err
	}

	ordered, err := sortMigrations(migrations)
	if err != nil {
		return err
	}

	for _, m := range ordered {
		if !current.LessThan(m.version) {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES ($1)", m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
		}

		current = m.version
		log.WithField("version", m.Version).Info("Schema migration applied")
	}

	return nil
}

// currentVersion возвращает максимальную применённую версию (0.0.0, если миграций не было)
func (db *DB) currentVersion(ctx context.Context) (*semver.Version, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}
	defer rows.Close()

	current := semver.MustParse("0.0.0")
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan schema version: %w", err)
		}
		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid schema version %q: %w", raw, err)
		}
		if v.GreaterThan(current) {
			current = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schema versions: %w", err)
	}
	return current, nil
}

type versionedMigration struct {
	Migration
	version *semver.Version
}

func sortMigrations(migrations []Migration) ([]versionedMigration, error) {
	out := make([]versionedMigration, 0, len(migrations))
	for _, m := range migrations {
		v, err := semver.NewVersion(m.Version)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version %s: %w", m.Version, err)
		}
		out = append(out, versionedMigration{Migration: m, version: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version.LessThan(out[j].version) })
	return out, nil
}
