package cim

import (
	"context"

	"github.com/diwise/troe/pkg/ngsild/types"
	"github.com/diwise/troe/pkg/ngsild/types/temporal"
)

// TemporalOptions selects what part of an entity is rendered and how
type TemporalOptions struct {
	Representation temporal.Representation
	Attributes     []string
	DatasetIDs     []string
	SysAttrs       bool
}

type TemporalEntityRetriever interface {
	RetrieveTemporalEvolutionOfEntity(ctx context.Context, tenant, entityID string, q temporal.Query, opts TemporalOptions) (*TemporalEntityResult, error)
	QueryTemporalEvolutionOfEntities(ctx context.Context, tenant string, entityIDs []string, q temporal.Query, opts TemporalOptions) (*QueryTemporalEntitiesResult, error)
}

type AttributeHistoryDeleter interface {
	DeleteAttributeInstance(ctx context.Context, tenant, entityID, attributeName, instanceID string) error
	DeleteAttributeHistory(ctx context.Context, tenant, entityID, attributeName, datasetID string) error
	DeleteEntityHistory(ctx context.Context, tenant, entityID string) error
}

// TemporalEntityUpserter records new instances of the attributes of an entity.
// The returned bool is true when the entity did not exist before.
type TemporalEntityUpserter interface {
	UpsertTemporalEvolutionOfEntity(ctx context.Context, tenant string, entity types.EntityTemporal) (bool, error)
}

//go:generate moq -rm -out contextinformationmanager_mock.go . ContextInformationManager

type ContextInformationManager interface {
	TemporalEntityRetriever
	TemporalEntityUpserter
	AttributeHistoryDeleter
}
