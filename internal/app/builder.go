package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/posting-sync/internal/api"
	v1 "github.com/stacklok/posting-sync/internal/api/v1"
	"github.com/stacklok/posting-sync/internal/app/storage"
	"github.com/stacklok/posting-sync/internal/config"
	"github.com/stacklok/posting-sync/internal/geo"
	"github.com/stacklok/posting-sync/internal/lock"
	"github.com/stacklok/posting-sync/internal/notification"
	"github.com/stacklok/posting-sync/internal/provider"
	"github.com/stacklok/posting-sync/internal/push"
	pkgsync "github.com/stacklok/posting-sync/internal/sync"
	"github.com/stacklok/posting-sync/internal/sync/coordinator"
	"github.com/stacklok/posting-sync/internal/sync/state"
	"github.com/stacklok/posting-sync/internal/telemetry"
)

const (
	defaultHTTPAddress       = ":8080"
	defaultReadHeaderTimeout = 5 * time.Second
	defaultReadTimeout       = 10 * time.Second
	defaultIdleTimeout       = 60 * time.Second

	// tracerName names the tracer handed to the domain packages
	tracerName = "github.com/stacklok/posting-sync"
)

// SyncAppOptions is a function that configures the app builder
type SyncAppOptions func(*syncAppConfig) error

// syncAppConfig collects the builder inputs. Overrides are primarily for testing.
type syncAppConfig struct {
	config *config.Config

	// Optional component overrides
	storageFactory storage.Factory
	fetcher        provider.Fetcher
	synchronizer   pkgsync.Synchronizer

	// HTTP server options
	address           string
	middlewares       []func(http.Handler) http.Handler
	readHeaderTimeout time.Duration
	readTimeout       time.Duration
	idleTimeout       time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

// domainMetrics are the recorders handed to the domain packages. Every
// field is nil when no meter provider is configured.
type domainMetrics struct {
	sync          *telemetry.SyncMetrics
	lock          *telemetry.LockMetrics
	provider      *telemetry.ProviderMetrics
	notifications *telemetry.NotificationMetrics
	push          *telemetry.PushMetrics
	geo           *telemetry.GeoMetrics
}

func baseConfig(opts ...SyncAppOptions) (*syncAppConfig, error) {
	cfg := &syncAppConfig{
		address:           defaultHTTPAddress,
		readHeaderTimeout: defaultReadHeaderTimeout,
		readTimeout:       defaultReadTimeout,
		idleTimeout:       defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return cfg, nil
}

// NewSyncApp builds the application from configuration
func NewSyncApp(
	ctx context.Context,
	opts ...SyncAppOptions,
) (*SyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if cfg.storageFactory == nil {
		cfg.storageFactory, err = storage.NewDatabaseFactory(ctx, cfg.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded {
			cfg.storageFactory.Cleanup()
		}
	}()

	metrics, err := buildMetrics(cfg.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to build metrics: %w", err)
	}
	tracer := cfg.tracer()

	registry := push.NewRegistry(
		push.WithHeartbeatInterval(cfg.config.Push.GetHeartbeatInterval()),
		push.WithMetrics(metrics.push),
		push.WithTracer(tracer),
	)

	components, err := buildSyncComponents(ctx, cfg, registry, metrics, tracer)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}
	components.PushRegistry = registry
	components.Storage = cfg.storageFactory

	components.GeoWarmer, err = buildGeoWarmer(ctx, cfg, metrics, tracer)
	if err != nil {
		return nil, fmt.Errorf("failed to build geo warmer: %w", err)
	}

	notifications, err := cfg.storageFactory.CreateNotificationStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification store: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, components, notifications)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	// Cleanup is now handled by the app
	cleanupNeeded = false

	return &SyncApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithFetcher replaces the provider fetcher built from configuration (for testing)
func WithFetcher(f provider.Fetcher) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.fetcher = f
		return nil
	}
}

// WithSynchronizer replaces the synchronizer built from configuration (for testing)
func WithSynchronizer(s pkgsync.Synchronizer) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.synchronizer = s
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for domain and HTTP metrics
func WithMeterProvider(mp metric.MeterProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

func (b *syncAppConfig) tracer() trace.Tracer {
	if b.tracerProvider == nil {
		return nil
	}
	return b.tracerProvider.Tracer(tracerName)
}

// buildMetrics creates the domain metric recorders
func buildMetrics(mp metric.MeterProvider) (domainMetrics, error) {
	var (
		m   domainMetrics
		err error
	)
	if mp == nil {
		return m, nil
	}

	if m.sync, err = telemetry.NewSyncMetrics(mp); err != nil {
		return m, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	if m.lock, err = telemetry.NewLockMetrics(mp); err != nil {
		return m, fmt.Errorf("failed to create lock metrics: %w", err)
	}
	if m.provider, err = telemetry.NewProviderMetrics(mp); err != nil {
		return m, fmt.Errorf("failed to create provider metrics: %w", err)
	}
	if m.notifications, err = telemetry.NewNotificationMetrics(mp); err != nil {
		return m, fmt.Errorf("failed to create notification metrics: %w", err)
	}
	if m.push, err = telemetry.NewPushMetrics(mp); err != nil {
		return m, fmt.Errorf("failed to create push metrics: %w", err)
	}
	if m.geo, err = telemetry.NewGeoMetrics(mp); err != nil {
		return m, fmt.Errorf("failed to create geo metrics: %w", err)
	}

	slog.Info("Domain metrics enabled")
	return m, nil
}

// buildFetcher builds the provider client and its retry policy from configuration
func buildFetcher(cfg *config.ProviderConfig, metrics domainMetrics, tracer trace.Tracer) (provider.Fetcher, error) {
	apiKey, err := cfg.GetAPIKey()
	if err != nil {
		return nil, fmt.Errorf("failed to read provider API key: %w", err)
	}

	clientOpts := []provider.ClientOption{
		provider.WithAPIKey(apiKey),
		provider.WithRateLimit(cfg.RequestsPerSecond),
		provider.WithFieldPaths(provider.FieldPaths{
			Results:    cfg.Fields.Results,
			ExternalID: cfg.Fields.ExternalID,
			CompanyID:  cfg.Fields.CompanyID,
			Title:      cfg.Fields.Title,
			URL:        cfg.Fields.URL,
			ValidFrom:  cfg.Fields.ValidFrom,
			ValidUntil: cfg.Fields.ValidUntil,
			LocationID: cfg.Fields.LocationID,
		}),
	}
	if cfg.SearchPath != "" {
		clientOpts = append(clientOpts, provider.WithSearchPath(cfg.SearchPath))
	}
	if cfg.KeywordParam != "" {
		clientOpts = append(clientOpts, provider.WithKeywordParam(cfg.KeywordParam))
	}

	client, err := provider.NewHTTPClient(cfg.BaseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	return provider.NewRetryingFetcher(client,
		provider.WithMaxAttempts(cfg.GetMaxAttempts()),
		provider.WithAttemptTimeout(cfg.GetTimeout()),
		provider.WithFetcherMetrics(metrics.provider),
		provider.WithFetcherTracer(tracer),
	), nil
}

// buildSyncComponents builds the synchronizer, its sinks and the coordinator
func buildSyncComponents(
	ctx context.Context,
	b *syncAppConfig,
	registry *push.Registry,
	metrics domainMetrics,
	tracer trace.Tracer,
) (*AppComponents, error) {
	slog.Info("Initializing sync components")

	states, err := b.storageFactory.CreateStateService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create state service: %w", err)
	}

	if b.synchronizer == nil {
		b.synchronizer, err = buildSynchronizer(ctx, b, states, registry, metrics, tracer)
		if err != nil {
			return nil, err
		}
	}

	syncCfg := b.config.Sync
	syncCoordinator := coordinator.New(b.synchronizer, states, syncCfg.Keywords,
		coordinator.WithSchedule(syncCfg.GetSchedule()),
		coordinator.WithRunOnStart(syncCfg.RunOnStart),
	)
	slog.Info("Sync components initialized successfully",
		"keywords", len(syncCfg.Keywords),
		"schedule", syncCfg.GetSchedule(),
		"lock_backend", b.config.Lock.GetBackend(),
	)

	return &AppComponents{
		SyncCoordinator: syncCoordinator,
		Synchronizer:    b.synchronizer,
		States:          states,
	}, nil
}

func buildSynchronizer(
	ctx context.Context,
	b *syncAppConfig,
	states state.KeywordStateService,
	registry *push.Registry,
	metrics domainMetrics,
	tracer trace.Tracer,
) (pkgsync.Synchronizer, error) {
	locker, err := b.storageFactory.CreateLocker(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create lock backend: %w", err)
	}
	executor := lock.NewExecutor(locker, lock.WithMetrics(metrics.lock), lock.WithTracer(tracer))

	fetcher := b.fetcher
	if fetcher == nil {
		fetcher, err = buildFetcher(&b.config.Provider, metrics, tracer)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider fetcher: %w", err)
		}
	}

	postings, err := b.storageFactory.CreatePostingStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create posting store: %w", err)
	}
	members, err := b.storageFactory.CreateMembershipSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create membership source: %w", err)
	}
	notifications, err := b.storageFactory.CreateNotificationStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification store: %w", err)
	}

	syncCfg := b.config.Sync
	stale, err := pkgsync.NewStalePolicy(syncCfg.GetStalePolicy(), postings)
	if err != nil {
		return nil, err
	}

	persister := notification.NewBatchWriter(notifications,
		notification.WithBatchSize(b.config.Notifications.GetBatchSize()),
		notification.WithMetrics(metrics.notifications),
		notification.WithTracer(tracer),
	)

	return pkgsync.NewRecruitingSynchronizer(executor, fetcher, postings, members, states,
		pkgsync.WithPersister(persister),
		pkgsync.WithPublisher(registry),
		pkgsync.WithStalePolicy(stale),
		pkgsync.WithOperators(syncCfg.Operators),
		pkgsync.WithLockTimeouts(syncCfg.GetLockWaitTimeout(), syncCfg.GetLockLeaseTimeout()),
		pkgsync.WithConcurrency(syncCfg.GetConcurrency()),
		pkgsync.WithMetrics(metrics.sync),
		pkgsync.WithTracer(tracer),
	), nil
}

// buildGeoWarmer builds the location cache warmer, or nil when geo is disabled
func buildGeoWarmer(
	ctx context.Context,
	b *syncAppConfig,
	metrics domainMetrics,
	tracer trace.Tracer,
) (*geo.Warmer, error) {
	if !b.config.Geo.Enabled {
		return nil, nil
	}

	source, err := b.storageFactory.CreateLocationSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create location source: %w", err)
	}
	cache, err := b.storageFactory.CreateLocationCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create location cache: %w", err)
	}

	return geo.NewWarmer(source, cache,
		geo.WithKeyPrefix(b.config.Geo.GetKeyPrefix()),
		geo.WithMetrics(metrics.geo),
		geo.WithTracer(tracer),
	), nil
}

// buildHTTPServer builds the HTTP server with router and middleware.
// There is no server-wide write timeout: event streams stay open and bound
// each write themselves.
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *syncAppConfig,
	components *AppComponents,
	notifications v1.NotificationReader,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing go first to capture every request
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
		slog.Info("HTTP metrics middleware enabled")
	}
	if b.tracerProvider != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.tracerProvider)},
			b.middlewares...)
	}

	routes := v1.NewRoutes(
		components.States,
		components.SyncCoordinator,
		notifications,
		components.PushRegistry,
		v1.WithStreamWriteTimeout(b.config.Push.GetWriteTimeout()),
	)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
		api.WithReadinessChecker(b.storageFactory),
	}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	router := api.NewServer(routes, serverOpts...)

	server := &http.Server{
		Addr:              b.address,
		Handler:           router,
		ReadHeaderTimeout: b.readHeaderTimeout,
		ReadTimeout:       b.readTimeout,
		IdleTimeout:       b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
