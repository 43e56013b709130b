package types

// EntityTemporal is the temporal representation of an entity, ready to be
// serialized as NGSI-LD
type EntityTemporal interface {
	ID() string
	Type() string
	Types() []string

	ForEachAttribute(func(attributeName string, contents any)) error
	MarshalJSON() ([]byte, error)
}
