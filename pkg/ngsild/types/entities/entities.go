package entities

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/diwise/troe/pkg/ngsild/types"
)

type EntityDecoratorFunc func(e *TemporalEntityImpl)

func NewTemporal(entityID string, entityTypes []string, decorators ...EntityDecoratorFunc) *TemporalEntityImpl {
	e := &TemporalEntityImpl{
		entityID:    entityID,
		entityTypes: entityTypes,
		attributes:  map[string]any{},
	}

	for _, decorator := range decorators {
		decorator(e)
	}

	// Set the default context if it wasnt decorated by the creator
	if e.context == nil {
		e.context = []string{DefaultContextURL}
	}

	return e
}

var _ types.EntityTemporal = (*TemporalEntityImpl)(nil)

// TemporalEntityImpl holds the rendered history of each attribute of an
// entity, keyed by the compacted attribute name
type TemporalEntityImpl struct {
	entityID    string
	entityTypes []string

	context    []string
	attributes map[string]any
}

func (e *TemporalEntityImpl) ID() string {
	return e.entityID
}

func (e *TemporalEntityImpl) Type() string {
	if len(e.entityTypes) == 0 {
		return ""
	}
	return e.entityTypes[0]
}

func (e *TemporalEntityImpl) Types() []string {
	return e.entityTypes
}

// Attribute returns the rendered history of an attribute
func (e *TemporalEntityImpl) Attribute(name string) (any, bool) {
	v, ok := e.attributes[name]
	return v, ok
}

func (e *TemporalEntityImpl) Set(name string, contents any) {
	e.attributes[name] = contents
}

func (e *TemporalEntityImpl) ForEachAttribute(callback func(attributeName string, contents any)) error {
	names := make([]string, 0, len(e.attributes))
	for k := range e.attributes {
		names = append(names, k)
	}
	slices.Sort(names)

	for _, name := range names {
		callback(name, e.attributes[name])
	}

	return nil
}

func (e *TemporalEntityImpl) MarshalJSON() ([]byte, error) {
	contents := map[string]any{
		"id": e.ID(),
	}

	if len(e.entityTypes) == 1 {
		contents["type"] = e.entityTypes[0]
	} else {
		contents["type"] = e.entityTypes
	}

	for k, v := range e.attributes {
		contents[k] = v
	}

	if len(e.context) > 0 {
		contents["@context"] = e.context
	}

	return json.Marshal(&contents)
}

func (e *TemporalEntityImpl) UnmarshalJSON(data []byte) error {
	var contents map[string]json.RawMessage
	if err := json.Unmarshal(data, &contents); err != nil {
		return fmt.Errorf("failed to unmarshal temporal entity: %w", err)
	}

	header := struct {
		ID      string          `json:"id"`
		Type    json.RawMessage `json:"type"`
		Context json.RawMessage `json:"@context"`
	}{}

	if err := json.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("failed to unmarshal temporal entity: %w", err)
	}

	if header.ID == "" || len(header.Type) == 0 {
		return fmt.Errorf("failed to parse temporal entity")
	}

	// Delete the properties we have already dealt with
	delete(contents, "id")
	delete(contents, "type")
	delete(contents, "@context")

	e.entityID = header.ID
	e.entityTypes = oneOrMany(header.Type)
	e.context = oneOrMany(header.Context)
	e.attributes = map[string]any{}

	for k, v := range contents {
		var attr any
		if err := json.Unmarshal(v, &attr); err != nil {
			return fmt.Errorf("failed to unmarshal attribute %s: %w", k, err)
		}
		e.attributes[k] = attr
	}

	return nil
}

func oneOrMany(raw json.RawMessage) []string {
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}

	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}
	}

	return nil
}

func NewTemporalFromJSON(body []byte) (*TemporalEntityImpl, error) {
	e := &TemporalEntityImpl{}
	if err := json.Unmarshal(body, e); err != nil {
		return nil, err
	}
	return e, nil
}

func Context(ctx []string) EntityDecoratorFunc {
	return func(e *TemporalEntityImpl) {
		e.context = ctx
	}
}

// NoContext leaves @context out, for responses that link to it in a header
func NoContext() EntityDecoratorFunc {
	return Context([]string{})
}

const DefaultContextURL string = "https://raw.githubusercontent.com/diwise/context-broker/main/assets/jsonldcontexts/default-context.jsonld"

func DefaultContext() EntityDecoratorFunc {
	return Context([]string{DefaultContextURL})
}

// Attr sets the rendered history of one attribute
func Attr(name string, contents any) EntityDecoratorFunc {
	return func(e *TemporalEntityImpl) { e.attributes[name] = contents }
}
