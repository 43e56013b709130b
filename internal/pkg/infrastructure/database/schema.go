package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	entityPayloadTable = "entity_payload"
	attributeTable     = "temporal_entity_attribute"
	instanceTable      = "attribute_instance"
	scopeTable         = "scope_history"
)

func schemaStatements(schema string) []string {
	s := pgx.Identifier{schema}.Sanitize()
	t := func(name string) string { return pgx.Identifier{schema, name}.Sanitize() }

	return []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, s),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			entity_id   TEXT PRIMARY KEY,
			types       TEXT[] NOT NULL,
			scopes      TEXT[],
			created_at  TIMESTAMPTZ NOT NULL,
			modified_at TIMESTAMPTZ,
			payload     JSONB NOT NULL
		)`, t(entityPayloadTable)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id                   UUID PRIMARY KEY,
			entity_id            TEXT NOT NULL,
			attribute_name       TEXT NOT NULL,
			dataset_id           TEXT NOT NULL DEFAULT '',
			attribute_type       TEXT NOT NULL,
			attribute_value_type TEXT NOT NULL,
			created_at           TIMESTAMPTZ NOT NULL,
			modified_at          TIMESTAMPTZ,
			deleted_at           TIMESTAMPTZ,
			payload              JSONB,
			UNIQUE (entity_id, attribute_name, dataset_id)
		)`, t(attributeTable)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			temporal_entity_attribute UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			time_property             TEXT NOT NULL,
			time                      TIMESTAMPTZ NOT NULL,
			instance_id               TEXT NOT NULL UNIQUE,
			value                     TEXT,
			measured_value            DOUBLE PRECISION,
			geo_value                 JSONB,
			payload                   JSONB NOT NULL,
			sub                       TEXT,
			PRIMARY KEY (temporal_entity_attribute, time_property, time)
		)`, t(instanceTable), t(attributeTable)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (deleted_at) WHERE deleted_at IS NOT NULL`,
			pgx.Identifier{"temporal_entity_attribute_deleted_at_idx"}.Sanitize(), t(attributeTable)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			entity_id     TEXT NOT NULL,
			time_property TEXT NOT NULL,
			time          TIMESTAMPTZ NOT NULL,
			value         TEXT[] NOT NULL,
			sub           TEXT,
			PRIMARY KEY (entity_id, time_property, time)
		)`, t(scopeTable)),
	}
}

func migrate(ctx context.Context, tx pgx.Tx, schema string) error {
	for _, stmt := range schemaStatements(schema) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema %s: %w", schema, err)
		}
	}
	return nil
}
