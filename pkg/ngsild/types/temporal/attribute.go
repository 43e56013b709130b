package temporal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type AttributeType string

const (
	Property         AttributeType = "Property"
	Relationship     AttributeType = "Relationship"
	GeoProperty      AttributeType = "GeoProperty"
	JsonProperty     AttributeType = "JsonProperty"
	LanguageProperty AttributeType = "LanguageProperty"
	VocabProperty    AttributeType = "VocabProperty"
)

// ValuesKey returns the member name that holds the simplified temporal
// representation of an attribute of this type
func (at AttributeType) ValuesKey() string {
	switch at {
	case Relationship:
		return "objects"
	case JsonProperty:
		return "jsons"
	case LanguageProperty:
		return "languageMaps"
	case VocabProperty:
		return "vocabs"
	default:
		return "values"
	}
}

// ValueType decides which physical column of an instance holds the
// comparable value of an attribute
type ValueType string

const (
	NumberValue   ValueType = "NUMBER"
	StringValue   ValueType = "STRING"
	BooleanValue  ValueType = "BOOLEAN"
	ObjectValue   ValueType = "OBJECT"
	ArrayValue    ValueType = "ARRAY"
	DateTimeValue ValueType = "DATETIME"
	DateValue     ValueType = "DATE"
	TimeValue     ValueType = "TIME"
	GeometryValue ValueType = "GEOMETRY"
	URIValue      ValueType = "URI"
	JSONValue     ValueType = "JSON"
)

type TimeProperty string

const (
	ObservedAt TimeProperty = "observedAt"
	CreatedAt  TimeProperty = "createdAt"
	ModifiedAt TimeProperty = "modifiedAt"
	DeletedAt  TimeProperty = "deletedAt"
)

func ParseTimeProperty(s string) (TimeProperty, error) {
	switch tp := TimeProperty(s); tp {
	case ObservedAt, CreatedAt, ModifiedAt, DeletedAt:
		return tp, nil
	case "":
		return ObservedAt, nil
	default:
		return "", fmt.Errorf("unknown time property %q", s)
	}
}

// Attribute describes one (entity, attribute name, dataset) triple. The
// payload holds the last known full representation, not its history.
type Attribute struct {
	UUID       uuid.UUID
	EntityID   string
	Name       string
	DatasetID  string
	Type       AttributeType
	ValueType  ValueType
	CreatedAt  time.Time
	ModifiedAt *time.Time
	DeletedAt  *time.Time
	Payload    json.RawMessage
}

func (a Attribute) HasDatasetID() bool {
	return a.DatasetID != ""
}

// AttributeInstance is one recorded value of an attribute on one time axis
type AttributeInstance struct {
	InstanceID    string
	AttributeUUID uuid.UUID
	TimeProperty  TimeProperty
	Time          time.Time
	Value         *string
	Measure       *float64
	Geometry      json.RawMessage
	Payload       json.RawMessage
	Sub           *string
}

func NewInstanceID() string {
	return "urn:ngsi-ld:Instance:" + uuid.New().String()
}

// NewInstance populates the value column that matches the value type of the
// attribute
func (a Attribute) NewInstance(tp TimeProperty, at time.Time, value any, payload json.RawMessage) (AttributeInstance, error) {
	i := AttributeInstance{
		InstanceID:    NewInstanceID(),
		AttributeUUID: a.UUID,
		TimeProperty:  tp,
		Time:          at,
		Payload:       payload,
	}

	switch a.ValueType {
	case NumberValue:
		f, err := toFloat(value)
		if err != nil {
			return i, err
		}
		i.Measure = &f
	case BooleanValue:
		b, ok := value.(bool)
		if !ok {
			return i, fmt.Errorf("value %v is not a boolean", value)
		}
		f, s := 0.0, strconv.FormatBool(b)
		if b {
			f = 1.0
		}
		i.Measure, i.Value = &f, &s
	case StringValue, URIValue, DateValue, TimeValue:
		s, ok := value.(string)
		if !ok {
			return i, fmt.Errorf("value %v is not a string", value)
		}
		i.Value = &s
	case DateTimeValue:
		var s string
		switch v := value.(type) {
		case time.Time:
			s = v.UTC().Format(time.RFC3339Nano)
		case string:
			t, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return i, fmt.Errorf("value %q is not a valid date time: %w", v, err)
			}
			s = t.UTC().Format(time.RFC3339Nano)
		default:
			return i, fmt.Errorf("value %v is not a date time", value)
		}
		i.Value = &s
	case GeometryValue:
		b, err := asJSON(value)
		if err != nil {
			return i, err
		}
		i.Geometry = b
	default:
		b, err := asJSON(value)
		if err != nil {
			return i, err
		}
		s := string(b)
		i.Value = &s
	}

	return i, nil
}

// Decode returns the value of an instance as it should appear in a
// simplified temporal representation
func (vt ValueType) Decode(i AttributeInstance) (any, error) {
	switch vt {
	case NumberValue:
		if i.Measure == nil {
			return nil, fmt.Errorf("instance %s has no numeric value", i.InstanceID)
		}
		return *i.Measure, nil
	case BooleanValue:
		if i.Measure != nil {
			return *i.Measure != 0, nil
		}
		if i.Value != nil {
			return strconv.ParseBool(*i.Value)
		}
		return nil, fmt.Errorf("instance %s has no boolean value", i.InstanceID)
	case GeometryValue:
		if len(i.Geometry) == 0 {
			return nil, fmt.Errorf("instance %s has no geometry", i.InstanceID)
		}
		return i.Geometry, nil
	case ObjectValue, ArrayValue, JSONValue:
		if i.Value == nil {
			return nil, fmt.Errorf("instance %s has no value", i.InstanceID)
		}
		return json.RawMessage(*i.Value), nil
	default:
		if i.Value == nil {
			return nil, fmt.Errorf("instance %s has no value", i.InstanceID)
		}
		return *i.Value, nil
	}
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("value %v is not a number", value)
	}
}

func asJSON(value any) (json.RawMessage, error) {
	switch v := value.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// EntityPayload is the current state of an entity, used to render the
// identity and system attributes of a temporal entity
type EntityPayload struct {
	ID         string
	Types      []string
	Scopes     []string
	CreatedAt  time.Time
	ModifiedAt *time.Time
	Payload    json.RawMessage
}

// ScopeInstance is one recorded change of the scopes of an entity
type ScopeInstance struct {
	EntityID     string
	TimeProperty TimeProperty
	Time         time.Time
	Scopes       []string
	Sub          *string
}

// ValueKey returns the member of an attribute instance that holds its value
func (at AttributeType) ValueKey() string {
	switch at {
	case Relationship:
		return "object"
	case JsonProperty:
		return "json"
	case LanguageProperty:
		return "languageMap"
	case VocabProperty:
		return "vocab"
	default:
		return "value"
	}
}

func ParseAttributeType(s string) (AttributeType, error) {
	switch at := AttributeType(s); at {
	case Property, Relationship, GeoProperty, JsonProperty, LanguageProperty, VocabProperty:
		return at, nil
	case "":
		return Property, nil
	default:
		return "", fmt.Errorf("unknown attribute type %q", s)
	}
}

// GuessValueType picks the value type of a new attribute from the first
// value that is recorded for it
func GuessValueType(at AttributeType, value any) ValueType {
	switch at {
	case GeoProperty:
		return GeometryValue
	case Relationship:
		return URIValue
	case JsonProperty:
		return JSONValue
	case LanguageProperty:
		return ObjectValue
	}

	switch v := value.(type) {
	case float64, float32, int, int64, json.Number:
		return NumberValue
	case bool:
		return BooleanValue
	case []any:
		return ArrayValue
	case map[string]any:
		return ObjectValue
	case string:
		if _, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return DateTimeValue
		}
		if _, err := time.Parse(time.DateOnly, v); err == nil {
			return DateValue
		}
		if _, err := time.Parse(time.TimeOnly, v); err == nil {
			return TimeValue
		}
		return StringValue
	default:
		return JSONValue
	}
}
