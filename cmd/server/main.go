package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/devplatform/ldap-console/internal/api"
	"github.com/devplatform/ldap-console/internal/config"
	"github.com/devplatform/ldap-console/internal/credentials"
	"github.com/devplatform/ldap-console/internal/directory"
	"github.com/devplatform/ldap-console/internal/graphql"
	"github.com/devplatform/ldap-console/internal/ldap"
	"github.com/devplatform/ldap-console/internal/prometheus"
	"github.com/devplatform/ldap-console/internal/registry"
	"github.com/devplatform/ldap-console/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := setupLogger(cfg)
	logger.Info("Starting LDAP Console Service")

	// Initialize business-level and HTTP Prometheus metrics
	logger.Info("Initializing Prometheus metrics")
	prometheus.Init()
	promclient.MustRegister(api.Collectors()...)

	// Cluster registry
	source, err := clusterSource(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize cluster registry")
	}
	clusters := registry.New(source, logger)
	logger.WithField("source", source.Describe()).Info("Cluster registry configured")

	// Credential cache
	store, err := credentials.NewFileStore(cfg.CacheDir, cfg.CredentialKey)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize credential cache")
	}
	if !store.Encrypted() {
		logger.Warn("CREDENTIAL_KEY is not set, cached bind passwords are stored unencrypted")
	}

	// LDAP client
	client := ldap.NewClient(ldap.Options{
		ConnTimeout:   cfg.LDAPConnTimeout,
		SearchTimeout: cfg.LDAPSearchTimeout,
		PagingSize:    cfg.LDAPPagingSize,
	}, logger)

	svc := service.NewDirectory(
		clusters,
		store,
		client,
		directory.NewClassifier(cfg.ClassifierOptions()),
		service.Options{StatsWindow: cfg.StatsWindow, MaxPageSize: cfg.MaxPageSize},
		logger,
	)

	// Wrap the service with metrics collector
	instrumented := prometheus.NewDirectoryCollector(svc)
	logger.Info("Directory service wrapped with Prometheus metrics collector")

	if list, err := instrumented.ListClusters(context.Background()); err != nil {
		logger.WithError(err).Warn("Initial cluster registry load failed")
	} else {
		logger.WithField("clusters", len(list)).Info("Cluster registry loaded")
	}

	// Initialize GraphQL schema
	logger.Info("Initializing GraphQL schema")
	gqlSchema, err := graphql.NewSchema(instrumented, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create GraphQL schema")
	}

	// Setup HTTP server
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewRouter(instrumented, api.Options{
			CORSOrigins:     cfg.CORSOrigins,
			RateLimitRPM:    cfg.RateLimitRPM,
			DefaultPageSize: cfg.DefaultPageSize,
			GraphQL:         gqlSchema.Handler(cfg.IsDevelopment()),
		}, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LDAPSearchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start metrics server in background
	go startMetricsServer(cfg, logger)

	// Start main server in background
	go func() {
		logger.WithField("port", cfg.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(srv, cfg, logger)
}

func clusterSource(cfg *config.Config) (registry.Source, error) {
	if !cfg.UsesConfigMap() {
		return registry.FileSource{Path: cfg.ClustersFile}, nil
	}

	kube, err := registry.NewKubeClient(cfg.Kubeconfig)
	if err != nil {
		return nil, err
	}
	return registry.ConfigMapSource{
		Client:    kube,
		Namespace: cfg.ClustersNamespace,
		Name:      cfg.ClustersConfigMap,
	}, nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

func startMetricsServer(cfg *config.Config, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.WithField("port", cfg.MetricsPort).Info("Starting metrics server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("Metrics server failed")
	}
}

func waitForShutdown(srv *http.Server, cfg *config.Config, logger *logrus.Logger) {
	// Create channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until signal received
	sig := <-quit
	logger.WithField("signal", sig.String()).Info("Shutdown signal received")

	timeout := 30 * time.Second
	if cfg.ShutdownTimeout > 0 {
		timeout = time.Duration(cfg.ShutdownTimeout) * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	logger.Info("Shutdown complete")
}
