package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/geojson"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

var _ Store = (*postgresStore)(nil)

// NewPostgresStore keeps the history of one tenant in its own schema. The
// schema is created if it does not exist. The pool is shared between tenants
// and is not closed by the returned store.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, schema string) (Store, error) {
	s := &postgresStore{pool: pool, schema: schema}

	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return migrate(ctx, tx, schema)
	})
	if err != nil {
		return nil, txError("failed to migrate database", err)
	}

	return s, nil
}

func (s *postgresStore) Close() {}

func (s *postgresStore) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

func storageError(msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return ngsierrors.NewStorageTimeoutError(msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return ngsierrors.NewStorageConflictError(msg, err)
		case "57014":
			return ngsierrors.NewStorageTimeoutError(msg, err)
		}
	}

	return ngsierrors.NewStorageError(msg, err)
}

// txError keeps the kind of an error returned from inside a transaction and
// classifies the ones pgx returns when it fails to begin or commit
func txError(msg string, err error) error {
	if err == nil {
		return nil
	}

	for _, kind := range []error{ngsierrors.ErrNotFound, ngsierrors.ErrStorageFailure, ngsierrors.ErrStorageConflict} {
		if errors.Is(err, kind) {
			return err
		}
	}

	return storageError(msg, err)
}

func (s *postgresStore) Append(ctx context.Context, instance temporal.AttributeInstance) error {
	if len(instance.Geometry) > 0 {
		if _, err := geojson.Parse(instance.Geometry); err != nil {
			return ngsierrors.NewBadRequestDataError(fmt.Sprintf("invalid geometry in instance %s: %s", instance.InstanceID, err.Error()))
		}
	}

	if instance.InstanceID == "" {
		instance.InstanceID = temporal.NewInstanceID()
	}

	var geometry any
	if len(instance.Geometry) > 0 {
		geometry = string(instance.Geometry)
	}

	payload := emptyPayload
	if len(instance.Payload) > 0 {
		payload = string(instance.Payload)
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (temporal_entity_attribute, time_property, time, instance_id, value, measured_value, geo_value, payload, sub)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (temporal_entity_attribute, time_property, time) DO UPDATE SET
			value = EXCLUDED.value,
			measured_value = EXCLUDED.measured_value,
			geo_value = EXCLUDED.geo_value,
			payload = EXCLUDED.payload,
			sub = EXCLUDED.sub`, s.table(instanceTable))

	_, err := s.pool.Exec(ctx, sql,
		instance.AttributeUUID, string(instance.TimeProperty), instance.Time.UTC(), instance.InstanceID,
		instance.Value, instance.Measure, geometry, payload, instance.Sub,
	)
	if err != nil {
		return storageError("failed to append instance", err)
	}

	return nil
}

// timePredicate renders the time filter of a selection, numbering its
// parameters after the ones already in args
func timePredicate(timerel temporal.TimeRel, timeAt, endTimeAt time.Time, args []any) (string, []any) {
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch timerel {
	case temporal.TimeRelBefore:
		return " AND time < " + next(timeAt.UTC()), args
	case temporal.TimeRelAfter:
		return " AND time > " + next(timeAt.UTC()), args
	case temporal.TimeRelBetween:
		p := " AND time > " + next(timeAt.UTC())
		return p + " AND time < " + next(endTimeAt.UTC()), args
	default:
		return "", args
	}
}

func (s *postgresStore) RangeSelect(ctx context.Context, selection RangeSelection) ([]temporal.AttributeInstance, error) {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf(
		`SELECT instance_id, time, value, measured_value, geo_value, payload, sub FROM %s WHERE temporal_entity_attribute = $1 AND time_property = $2`,
		s.table(instanceTable),
	))

	args := []any{selection.AttributeUUID, string(selection.TimeProperty)}

	predicate, args := timePredicate(selection.TimeRel, selection.TimeAt, selection.EndTimeAt, args)
	sb.WriteString(predicate)

	if selection.Descending {
		sb.WriteString(" ORDER BY time DESC")
	} else {
		sb.WriteString(" ORDER BY time ASC")
	}

	if selection.Limit > 0 {
		args = append(args, selection.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, storageError("failed to select instances", err)
	}
	defer rows.Close()

	instances := []temporal.AttributeInstance{}

	for rows.Next() {
		i := temporal.AttributeInstance{
			AttributeUUID: selection.AttributeUUID,
			TimeProperty:  selection.TimeProperty,
		}

		var geometry, payload []byte

		err := rows.Scan(&i.InstanceID, &i.Time, &i.Value, &i.Measure, &geometry, &payload, &i.Sub)
		if err != nil {
			return nil, storageError("failed to scan instance", err)
		}

		i.Geometry, i.Payload = geometry, payload
		instances = append(instances, i)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("failed to select instances", err)
	}

	return instances, nil
}

func (s *postgresStore) SelectOldestTime(ctx context.Context, attributes []uuid.UUID, tp temporal.TimeProperty) (*time.Time, error) {
	if len(attributes) == 0 {
		return nil, nil
	}

	sql := fmt.Sprintf(
		`SELECT min(time) FROM %s WHERE temporal_entity_attribute = ANY($1::uuid[]) AND time_property = $2`,
		s.table(instanceTable),
	)

	ids := make([]string, 0, len(attributes))
	for _, id := range attributes {
		ids = append(ids, id.String())
	}

	var oldest *time.Time

	err := s.pool.QueryRow(ctx, sql, ids, string(tp)).Scan(&oldest)
	if err != nil {
		return nil, storageError("failed to select oldest time", err)
	}

	return oldest, nil
}

func (s *postgresStore) DeleteInstance(ctx context.Context, entityID, attributeName, instanceID string) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var count int
		err := tx.QueryRow(ctx,
			fmt.Sprintf(`SELECT count(*) FROM %s WHERE entity_id = $1 AND attribute_name = $2`, s.table(attributeTable)),
			entityID, attributeName,
		).Scan(&count)
		if err != nil {
			return storageError("failed to find attribute", err)
		}

		if count == 0 {
			return ngsierrors.NewNotFoundError(fmt.Sprintf("attribute %s not found on entity %s", attributeName, entityID))
		}

		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE instance_id = $1 AND temporal_entity_attribute IN (
				SELECT id FROM %s WHERE entity_id = $2 AND attribute_name = $3)`, s.table(instanceTable), s.table(attributeTable)),
			instanceID, entityID, attributeName,
		)
		if err != nil {
			return storageError("failed to delete instance", err)
		}

		if tag.RowsAffected() == 0 {
			return ngsierrors.NewNotFoundError(fmt.Sprintf("instance %s of attribute %s not found on entity %s", instanceID, attributeName, entityID))
		}

		return nil
	})

	return txError("failed to delete instance", err)
}

func (s *postgresStore) DeleteAllForAttribute(ctx context.Context, entityID, attributeName, datasetID string) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx,
			fmt.Sprintf(`SELECT id FROM %s WHERE entity_id = $1 AND attribute_name = $2 AND dataset_id = $3`, s.table(attributeTable)),
			entityID, attributeName, datasetID,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ngsierrors.NewNotFoundError(fmt.Sprintf("attribute %s not found on entity %s", attributeName, entityID))
			}
			return storageError("failed to find attribute", err)
		}

		if _, err = tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE temporal_entity_attribute = $1`, s.table(instanceTable)), id); err != nil {
			return storageError("failed to delete attribute history", err)
		}

		if _, err = tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table(attributeTable)), id); err != nil {
			return storageError("failed to delete attribute", err)
		}

		return nil
	})

	return txError("failed to delete attribute history", err)
}

func (s *postgresStore) DeleteAllForEntity(ctx context.Context, entityID string) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE temporal_entity_attribute IN (SELECT id FROM %s WHERE entity_id = $1)`,
				s.table(instanceTable), s.table(attributeTable)),
			entityID,
		)
		if err != nil {
			return storageError("failed to delete entity history", err)
		}

		attrs, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE entity_id = $1`, s.table(attributeTable)), entityID)
		if err != nil {
			return storageError("failed to delete attributes", err)
		}

		if _, err = tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE entity_id = $1`, s.table(scopeTable)), entityID); err != nil {
			return storageError("failed to delete scope history", err)
		}

		entity, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE entity_id = $1`, s.table(entityPayloadTable)), entityID)
		if err != nil {
			return storageError("failed to delete entity", err)
		}

		if attrs.RowsAffected() == 0 && entity.RowsAffected() == 0 {
			return ngsierrors.NewNotFoundError(fmt.Sprintf("entity %s not found", entityID))
		}

		return nil
	})

	return txError("failed to delete entity history", err)
}

const attributeColumns = `id, entity_id, attribute_name, dataset_id, attribute_type, attribute_value_type, created_at, modified_at, deleted_at, payload`

func (s *postgresStore) queryAttributes(ctx context.Context, sql string, args ...any) ([]temporal.Attribute, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageError("failed to select attributes", err)
	}
	defer rows.Close()

	attrs := []temporal.Attribute{}

	for rows.Next() {
		var a temporal.Attribute
		var attrType, valueType string
		var payload []byte

		err := rows.Scan(&a.UUID, &a.EntityID, &a.Name, &a.DatasetID, &attrType, &valueType, &a.CreatedAt, &a.ModifiedAt, &a.DeletedAt, &payload)
		if err != nil {
			return nil, storageError("failed to scan attribute", err)
		}

		a.Type, a.ValueType, a.Payload = temporal.AttributeType(attrType), temporal.ValueType(valueType), payload
		attrs = append(attrs, a)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("failed to select attributes", err)
	}

	return attrs, nil
}

func (s *postgresStore) GetAttributesForEntity(ctx context.Context, entityID string, names, datasetIDs []string) ([]temporal.Attribute, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s WHERE entity_id = $1
		AND (cardinality($2::text[]) = 0 OR attribute_name = ANY($2))
		AND (cardinality($3::text[]) = 0 OR dataset_id = ANY($3))
		ORDER BY attribute_name, dataset_id`, attributeColumns, s.table(attributeTable))

	return s.queryAttributes(ctx, sql, entityID, nonNil(names), nonNil(datasetIDs))
}

func (s *postgresStore) GetAttributesForEntities(ctx context.Context, entityIDs, names []string) ([]temporal.Attribute, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s WHERE entity_id = ANY($1)
		AND (cardinality($2::text[]) = 0 OR attribute_name = ANY($2))
		ORDER BY entity_id, attribute_name, dataset_id`, attributeColumns, s.table(attributeTable))

	return s.queryAttributes(ctx, sql, nonNil(entityIDs), nonNil(names))
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (s *postgresStore) UpsertAttribute(ctx context.Context, attr temporal.Attribute) (temporal.Attribute, error) {
	if attr.UUID == uuid.Nil {
		attr.UUID = uuid.New()
	}

	if attr.CreatedAt.IsZero() {
		attr.CreatedAt = time.Now().UTC()
	}

	var payload any
	if len(attr.Payload) > 0 {
		payload = string(attr.Payload)
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (entity_id, attribute_name, dataset_id) DO UPDATE SET
			attribute_type = EXCLUDED.attribute_type,
			attribute_value_type = EXCLUDED.attribute_value_type,
			modified_at = EXCLUDED.modified_at,
			deleted_at = EXCLUDED.deleted_at,
			payload = EXCLUDED.payload
		RETURNING id, created_at`, s.table(attributeTable), attributeColumns)

	err := s.pool.QueryRow(ctx, sql,
		attr.UUID, attr.EntityID, attr.Name, attr.DatasetID, string(attr.Type), string(attr.ValueType),
		attr.CreatedAt, attr.ModifiedAt, attr.DeletedAt, payload,
	).Scan(&attr.UUID, &attr.CreatedAt)
	if err != nil {
		return attr, storageError("failed to upsert attribute", err)
	}

	return attr, nil
}

func (s *postgresStore) SoftDeleteAttribute(ctx context.Context, entityID, attributeName, datasetID string, deletedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET deleted_at = $4 WHERE entity_id = $1 AND attribute_name = $2 AND dataset_id = $3`, s.table(attributeTable)),
		entityID, attributeName, datasetID, deletedAt.UTC(),
	)
	if err != nil {
		return storageError("failed to soft delete attribute", err)
	}

	if tag.RowsAffected() == 0 {
		return ngsierrors.NewNotFoundError(fmt.Sprintf("attribute %s not found on entity %s", attributeName, entityID))
	}

	return nil
}

func (s *postgresStore) RetrieveEntity(ctx context.Context, entityID string) (temporal.EntityPayload, error) {
	e := temporal.EntityPayload{ID: entityID}
	var payload []byte

	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT types, scopes, created_at, modified_at, payload FROM %s WHERE entity_id = $1`, s.table(entityPayloadTable)),
		entityID,
	).Scan(&e.Types, &e.Scopes, &e.CreatedAt, &e.ModifiedAt, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return e, ngsierrors.NewNotFoundError(fmt.Sprintf("entity %s not found", entityID))
		}
		return e, storageError("failed to retrieve entity", err)
	}

	e.Payload = payload

	return e, nil
}

func (s *postgresStore) UpsertEntity(ctx context.Context, entity temporal.EntityPayload) error {
	payload := emptyPayload
	if len(entity.Payload) > 0 {
		payload = string(entity.Payload)
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (entity_id, types, scopes, created_at, modified_at, payload) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_id) DO UPDATE SET
			types = EXCLUDED.types,
			scopes = EXCLUDED.scopes,
			modified_at = EXCLUDED.modified_at,
			payload = EXCLUDED.payload`, s.table(entityPayloadTable))

	_, err := s.pool.Exec(ctx, sql, entity.ID, nonNil(entity.Types), entity.Scopes, entity.CreatedAt.UTC(), entity.ModifiedAt, payload)
	if err != nil {
		return storageError("failed to upsert entity", err)
	}

	return nil
}

func (s *postgresStore) RetrieveScopeHistory(ctx context.Context, entityIDs []string, q temporal.Query) ([]temporal.ScopeInstance, error) {
	args := []any{nonNil(entityIDs), string(q.TimeProperty)}

	sql := fmt.Sprintf(`SELECT entity_id, time, value, sub FROM %s WHERE entity_id = ANY($1) AND time_property = $2`, s.table(scopeTable))
	predicate, args := timePredicate(q.TimeRel, q.TimeAt, q.EndTimeAt, args)

	rows, err := s.pool.Query(ctx, sql+predicate, args...)
	if err != nil {
		return nil, storageError("failed to select scope history", err)
	}
	defer rows.Close()

	scopes := []temporal.ScopeInstance{}

	for rows.Next() {
		si := temporal.ScopeInstance{TimeProperty: q.TimeProperty}
		if err := rows.Scan(&si.EntityID, &si.Time, &si.Scopes, &si.Sub); err != nil {
			return nil, storageError("failed to scan scope history", err)
		}
		scopes = append(scopes, si)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("failed to select scope history", err)
	}

	return limitScopes(scopes, q), nil
}

func (s *postgresStore) AppendScope(ctx context.Context, scope temporal.ScopeInstance) error {
	sql := fmt.Sprintf(`
		INSERT INTO %s (entity_id, time_property, time, value, sub) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entity_id, time_property, time) DO UPDATE SET value = EXCLUDED.value, sub = EXCLUDED.sub`,
		s.table(scopeTable))

	_, err := s.pool.Exec(ctx, sql, scope.EntityID, string(scope.TimeProperty), scope.Time.UTC(), nonNil(scope.Scopes), scope.Sub)
	if err != nil {
		return storageError("failed to append scope", err)
	}

	return nil
}

func (s *postgresStore) ListSoftDeletedAttributes(ctx context.Context, deletedBefore time.Time) ([]temporal.Attribute, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s WHERE deleted_at IS NOT NULL AND deleted_at < $1 ORDER BY entity_id, attribute_name, dataset_id`,
		attributeColumns, s.table(attributeTable))

	return s.queryAttributes(ctx, sql, deletedBefore.UTC())
}

func (s *postgresStore) PurgeAttribute(ctx context.Context, attributeUUID uuid.UUID) (int64, error) {
	var count int64

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE temporal_entity_attribute = $1`, s.table(instanceTable)), attributeUUID)
		if err != nil {
			return storageError("failed to purge attribute history", err)
		}

		count = tag.RowsAffected()

		attr, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table(attributeTable)), attributeUUID)
		if err != nil {
			return storageError("failed to purge attribute", err)
		}

		if attr.RowsAffected() == 0 {
			return ngsierrors.NewNotFoundError(fmt.Sprintf("attribute %s not found", attributeUUID))
		}

		return nil
	})

	return count, txError("failed to purge attribute", err)
}
