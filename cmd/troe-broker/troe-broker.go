package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/troe/internal/pkg/application/troe"
	"github.com/diwise/troe/internal/pkg/infrastructure/database"
	"github.com/diwise/troe/internal/pkg/infrastructure/router"
	ngsild "github.com/diwise/troe/internal/pkg/presentation/api/ngsi-ld"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName string = "troe-broker"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	flags := parseExternalConfig(ctx, defaultFlags())

	serviceVersion := buildinfo.SourceVersion()
	ctx, logger, cleanup := o11y.Init(ctx, serviceName, serviceVersion, flags[logFormat])
	defer cleanup()

	cfgFile, err := os.Open(flags[configPath])
	if err != nil {
		fatal(ctx, "failed to open configuration file", err)
	}
	defer cfgFile.Close()

	policies, err := os.Open(flags[opaPath])
	if err != nil {
		fatal(ctx, "failed to open authorization policies", err)
	}
	defer policies.Close()

	dbCfg := database.LoadConfiguration(ctx)

	api, closeStores, err := initialize(ctx, cfgFile, policies, dbCfg)
	if err != nil {
		fatal(ctx, "failed to initialize service", err)
	}
	defer closeStores()

	if flags[controlPort] != "" {
		go serveControl(ctx, net.JoinHostPort(flags[listenAddress], flags[controlPort]))
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(flags[listenAddress], flags[servicePort]),
		Handler:           otelhttp.NewHandler(api, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting to listen for connections", "addr", srv.Addr)

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(ctx, "failed to listen for connections", err)
	}
}

// initialize loads the configuration, connects the stores of every tenant and
// returns the router that serves the ngsi-ld api
func initialize(ctx context.Context, cfgFile, policies io.Reader, dbCfg database.Config) (*chi.Mux, func(), error) {
	cfg, err := troe.LoadConfiguration(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	newStore, closeStores, err := storeFactory(ctx, dbCfg)
	if err != nil {
		return nil, nil, err
	}

	app, err := troe.New(ctx, *cfg, newStore)
	if err != nil {
		closeStores()
		return nil, nil, err
	}

	r := router.New(serviceName)

	err = ngsild.RegisterHandlers(ctx, r, policies, app, cfg.Temporal.DefaultInstanceLimit)
	if err != nil {
		closeStores()
		return nil, nil, err
	}

	return r, closeStores, nil
}

// storeFactory keeps the history in postgres, one schema per tenant, when a
// database host is configured and in memory otherwise
func storeFactory(ctx context.Context, dbCfg database.Config) (troe.StoreFactory, func(), error) {
	log := logging.GetFromContext(ctx)

	if !dbCfg.Enabled() {
		log.Warn("no database configured, history will be kept in memory")
		return func(ctx context.Context, tenant troe.Tenant) (database.Store, error) {
			return database.NewMemoryStore(), nil
		}, func() {}, nil
	}

	pool, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return func(ctx context.Context, tenant troe.Tenant) (database.Store, error) {
		log.Info("migrating tenant schema", "tenant", tenant.ID, "schema", tenant.SchemaName())
		return database.NewPostgresStore(ctx, pool, tenant.SchemaName())
	}, pool.Close, nil
}

func serveControl(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.GetFromContext(ctx).Error("control server failed", "err", err.Error())
	}
}

func fatal(ctx context.Context, msg string, err error) {
	logging.GetFromContext(ctx).Error(msg, "err", err.Error())
	os.Exit(1)
}
