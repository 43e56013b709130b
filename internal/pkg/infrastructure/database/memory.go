package database

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	ngsierrors "github.com/diwise/troe/pkg/ngsild/errors"
	"github.com/diwise/troe/pkg/ngsild/geojson"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
	"github.com/google/uuid"
)

type instanceKey struct {
	tp temporal.TimeProperty
	at int64
}

type memoryStore struct {
	mu sync.RWMutex

	entities   map[string]temporal.EntityPayload
	attributes map[uuid.UUID]temporal.Attribute
	instances  map[uuid.UUID]map[instanceKey]temporal.AttributeInstance
	scopes     map[string]map[instanceKey]temporal.ScopeInstance
}

var _ Store = (*memoryStore)(nil)

// NewMemoryStore returns a Store that keeps everything in process memory
func NewMemoryStore() Store {
	return &memoryStore{
		entities:   map[string]temporal.EntityPayload{},
		attributes: map[uuid.UUID]temporal.Attribute{},
		instances:  map[uuid.UUID]map[instanceKey]temporal.AttributeInstance{},
		scopes:     map[string]map[instanceKey]temporal.ScopeInstance{},
	}
}

func (m *memoryStore) Close() {}

func (m *memoryStore) Append(ctx context.Context, instance temporal.AttributeInstance) error {
	if len(instance.Geometry) > 0 {
		if _, err := geojson.Parse(instance.Geometry); err != nil {
			return ngsierrors.NewBadRequestDataError(fmt.Sprintf("invalid geometry in instance %s: %s", instance.InstanceID, err.Error()))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.attributes[instance.AttributeUUID]; !ok {
		return ngsierrors.NewStorageConflictError("failed to append instance", fmt.Errorf("attribute %s does not exist", instance.AttributeUUID))
	}

	if instance.InstanceID == "" {
		instance.InstanceID = temporal.NewInstanceID()
	}

	if len(instance.Payload) == 0 {
		instance.Payload = json.RawMessage(emptyPayload)
	}

	history, ok := m.instances[instance.AttributeUUID]
	if !ok {
		history = map[instanceKey]temporal.AttributeInstance{}
		m.instances[instance.AttributeUUID] = history
	}

	key := instanceKey{tp: instance.TimeProperty, at: instance.Time.UnixNano()}
	if existing, ok := history[key]; ok {
		instance.InstanceID = existing.InstanceID
	}

	history[key] = instance

	return nil
}

func (m *memoryStore) RangeSelect(ctx context.Context, selection RangeSelection) ([]temporal.AttributeInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []temporal.AttributeInstance{}

	for key, i := range m.instances[selection.AttributeUUID] {
		if key.tp == selection.TimeProperty && selection.Matches(i.Time) {
			result = append(result, i)
		}
	}

	slices.SortFunc(result, func(a, b temporal.AttributeInstance) int {
		if selection.Descending {
			return b.Time.Compare(a.Time)
		}
		return a.Time.Compare(b.Time)
	})

	if selection.Limit > 0 && len(result) > selection.Limit {
		result = result[:selection.Limit]
	}

	return result, nil
}

func (m *memoryStore) SelectOldestTime(ctx context.Context, attributes []uuid.UUID, tp temporal.TimeProperty) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var oldest *time.Time

	for _, id := range attributes {
		for key, i := range m.instances[id] {
			if key.tp != tp {
				continue
			}
			if oldest == nil || i.Time.Before(*oldest) {
				t := i.Time
				oldest = &t
			}
		}
	}

	return oldest, nil
}

func (m *memoryStore) DeleteInstance(ctx context.Context, entityID, attributeName, instanceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false

	for id, attr := range m.attributes {
		if attr.EntityID != entityID || attr.Name != attributeName {
			continue
		}

		found = true

		for key, i := range m.instances[id] {
			if i.InstanceID == instanceID {
				delete(m.instances[id], key)
				return nil
			}
		}
	}

	if !found {
		return ngsierrors.NewNotFoundError(fmt.Sprintf("attribute %s not found on entity %s", attributeName, entityID))
	}

	return ngsierrors.NewNotFoundError(fmt.Sprintf("instance %s of attribute %s not found on entity %s", instanceID, attributeName, entityID))
}

func (m *memoryStore) DeleteAllForAttribute(ctx context.Context, entityID, attributeName, datasetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, attr := range m.attributes {
		if attr.EntityID == entityID && attr.Name == attributeName && attr.DatasetID == datasetID {
			delete(m.instances, id)
			delete(m.attributes, id)
			return nil
		}
	}

	return ngsierrors.NewNotFoundError(fmt.Sprintf("attribute %s not found on entity %s", attributeName, entityID))
}

func (m *memoryStore) DeleteAllForEntity(ctx context.Context, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, found := m.entities[entityID]

	for id, attr := range m.attributes {
		if attr.EntityID == entityID {
			found = true
			delete(m.instances, id)
			delete(m.attributes, id)
		}
	}

	if !found {
		return ngsierrors.NewNotFoundError(fmt.Sprintf("entity %s not found", entityID))
	}

	delete(m.entities, entityID)
	delete(m.scopes, entityID)

	return nil
}

func (m *memoryStore) GetAttributesForEntity(ctx context.Context, entityID string, names, datasetIDs []string) ([]temporal.Attribute, error) {
	return m.selectAttributes([]string{entityID}, names, datasetIDs), nil
}

func (m *memoryStore) GetAttributesForEntities(ctx context.Context, entityIDs, names []string) ([]temporal.Attribute, error) {
	return m.selectAttributes(entityIDs, names, nil), nil
}

func (m *memoryStore) selectAttributes(entityIDs, names, datasetIDs []string) []temporal.Attribute {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []temporal.Attribute{}

	for _, attr := range m.attributes {
		if slices.Contains(entityIDs, attr.EntityID) && contains(names, attr.Name) && contains(datasetIDs, attr.DatasetID) {
			result = append(result, attr)
		}
	}

	sortAttributes(result)

	return result
}

func (m *memoryStore) UpsertAttribute(ctx context.Context, attr temporal.Attribute) (temporal.Attribute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.attributes {
		if existing.EntityID == attr.EntityID && existing.Name == attr.Name && existing.DatasetID == attr.DatasetID {
			attr.UUID = id
			attr.CreatedAt = existing.CreatedAt
			m.attributes[id] = attr
			return attr, nil
		}
	}

	if attr.UUID == uuid.Nil {
		attr.UUID = uuid.New()
	}

	if attr.CreatedAt.IsZero() {
		attr.CreatedAt = time.Now().UTC()
	}

	m.attributes[attr.UUID] = attr

	return attr, nil
}

func (m *memoryStore) SoftDeleteAttribute(ctx context.Context, entityID, attributeName, datasetID string, deletedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, attr := range m.attributes {
		if attr.EntityID == entityID && attr.Name == attributeName && attr.DatasetID == datasetID {
			attr.DeletedAt = &deletedAt
			m.attributes[id] = attr
			return nil
		}
	}

	return ngsierrors.NewNotFoundError(fmt.Sprintf("attribute %s not found on entity %s", attributeName, entityID))
}

func (m *memoryStore) RetrieveEntity(ctx context.Context, entityID string) (temporal.EntityPayload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entities[entityID]
	if !ok {
		return e, ngsierrors.NewNotFoundError(fmt.Sprintf("entity %s not found", entityID))
	}

	return e, nil
}

func (m *memoryStore) UpsertEntity(ctx context.Context, entity temporal.EntityPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.entities[entity.ID]; ok {
		entity.CreatedAt = existing.CreatedAt
	}

	if len(entity.Payload) == 0 {
		entity.Payload = json.RawMessage(emptyPayload)
	}

	m.entities[entity.ID] = entity

	return nil
}

func (m *memoryStore) RetrieveScopeHistory(ctx context.Context, entityIDs []string, q temporal.Query) ([]temporal.ScopeInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []temporal.ScopeInstance{}

	for _, entityID := range entityIDs {
		for key, s := range m.scopes[entityID] {
			if key.tp == q.TimeProperty && timeMatches(q.TimeRel, q.TimeAt, q.EndTimeAt, s.Time) {
				result = append(result, s)
			}
		}
	}

	return limitScopes(result, q), nil
}

func (m *memoryStore) AppendScope(ctx context.Context, scope temporal.ScopeInstance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	history, ok := m.scopes[scope.EntityID]
	if !ok {
		history = map[instanceKey]temporal.ScopeInstance{}
		m.scopes[scope.EntityID] = history
	}

	history[instanceKey{tp: scope.TimeProperty, at: scope.Time.UnixNano()}] = scope

	return nil
}

func (m *memoryStore) ListSoftDeletedAttributes(ctx context.Context, deletedBefore time.Time) ([]temporal.Attribute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []temporal.Attribute{}

	for _, attr := range m.attributes {
		if attr.DeletedAt != nil && attr.DeletedAt.Before(deletedBefore) {
			result = append(result, attr)
		}
	}

	sortAttributes(result)

	return result, nil
}

func (m *memoryStore) PurgeAttribute(ctx context.Context, attributeUUID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.attributes[attributeUUID]; !ok {
		return 0, ngsierrors.NewNotFoundError(fmt.Sprintf("attribute %s not found", attributeUUID))
	}

	count := int64(len(m.instances[attributeUUID]))

	delete(m.instances, attributeUUID)
	delete(m.attributes, attributeUUID)

	return count, nil
}

func sortAttributes(attrs []temporal.Attribute) {
	slices.SortFunc(attrs, func(a, b temporal.Attribute) int {
		if a.EntityID != b.EntityID {
			return cmp.Compare(a.EntityID, b.EntityID)
		}
		if a.Name != b.Name {
			return cmp.Compare(a.Name, b.Name)
		}
		return cmp.Compare(a.DatasetID, b.DatasetID)
	})
}

// limitScopes orders scope changes the same way instances are ordered and
// applies lastN or the instance limit
func limitScopes(scopes []temporal.ScopeInstance, q temporal.Query) []temporal.ScopeInstance {
	slices.SortFunc(scopes, func(a, b temporal.ScopeInstance) int {
		if q.HasLastN() {
			return b.Time.Compare(a.Time)
		}
		return a.Time.Compare(b.Time)
	})

	if q.IsAggregated() {
		return scopes
	}

	limit := q.InstanceLimit
	if q.HasLastN() && q.LastN < limit {
		limit = q.LastN
	}

	if limit > 0 && len(scopes) > limit {
		scopes = scopes[:limit]
	}

	return scopes
}
