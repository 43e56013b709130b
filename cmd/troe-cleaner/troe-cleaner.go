package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/troe/internal/pkg/application/troe"
	"github.com/diwise/troe/internal/pkg/infrastructure/database"
)

const (
	appName string = "troe-cleaner"
)

func main() {
	appVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, "json")
	defer cleanup()

	log.Debug("begin purge of deleted attributes")

	configPath := env.GetVariableOrDefault(ctx, "TROE_CONFIG_PATH", "/opt/diwise/config/troe.yaml")
	cfgFile, err := os.Open(configPath)
	if err != nil {
		fatal(log, "failed to open configuration file", err)
	}

	cfg, err := troe.LoadConfiguration(cfgFile)
	cfgFile.Close()
	if err != nil {
		fatal(log, "failed to load configuration", err)
	}

	pool, err := database.Connect(ctx, database.LoadConfiguration(ctx))
	if err != nil {
		fatal(log, "failed to connect to database", err)
	}
	defer pool.Close()

	deletedBefore := time.Now().UTC().Add(-cfg.Temporal.PurgeAfter)

	var totalCount int64 = 0

	for _, tenant := range cfg.Tenants {
		tenantCtx := logging.NewContextWithLogger(ctx, log, "tenant", tenant.ID)

		store, err := database.NewPostgresStore(tenantCtx, pool, tenant.SchemaName())
		if err != nil {
			fatal(log, "failed to open tenant store", err)
		}

		count, err := purge(tenantCtx, store, deletedBefore)
		if err != nil {
			fatal(log, "failed to purge deleted attributes", err)
		}

		totalCount += count
	}

	log.Info("done purging", slog.Int64("total", totalCount), slog.Time("deleted_before", deletedBefore))
}

// purge removes every attribute that was soft deleted before deletedBefore
// together with all of its instances, and returns the number of instances
// that were removed
func purge(ctx context.Context, p database.Purger, deletedBefore time.Time) (int64, error) {
	log := logging.GetFromContext(ctx)

	attributes, err := p.ListSoftDeletedAttributes(ctx, deletedBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to list deleted attributes: %w", err)
	}

	log.Debug("number of deleted attributes", "count", len(attributes))

	var totalCount int64 = 0

	for _, attr := range attributes {
		l := log.With(slog.String("entity_id", attr.EntityID), slog.String("attribute", attr.Name))

		count, err := p.PurgeAttribute(ctx, attr.UUID)
		if err != nil {
			return totalCount, fmt.Errorf("failed to purge attribute %s: %w", attr.UUID, err)
		}

		totalCount += count

		l.Debug("done purging attribute", slog.Int64("count", count))
	}

	return totalCount, nil
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err.Error())
	os.Exit(1)
}
