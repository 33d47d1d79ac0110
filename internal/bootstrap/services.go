package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/raffleworks/ticketgen/config"
	redisadapter "github.com/raffleworks/ticketgen/internal/adapters/redis"
	"github.com/raffleworks/ticketgen/internal/core"
	"github.com/raffleworks/ticketgen/internal/data"
	"github.com/raffleworks/ticketgen/internal/observability/statsd"
	"github.com/raffleworks/ticketgen/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs          *service.JobService
	Worker        *service.WorkerService
	Manager       *service.ManagerService
	Reaper        *service.ReaperService
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient goredis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB          *sql.DB
	JobRepo     *data.JobRepo
	BreakerRepo *data.BreakerRepo
	TicketRepo  *data.TicketRepo
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		prefix := cfg.Metrics.Prefix
		if prefix == "" {
			prefix = "ticketgen"
		}
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, logger *slog.Logger) *serviceRepositories {
	return &serviceRepositories{
		DB:          db,
		JobRepo:     data.NewJobRepo(db, data.RepoConfig{Logger: logger}),
		BreakerRepo: data.NewBreakerRepo(db, data.RepoConfig{Logger: logger}),
		TicketRepo:  data.NewTicketRepo(db, data.RepoConfig{Logger: logger}),
	}
}

// newCompletionNotifier builds the Redis completion publisher when a client is available.
func newCompletionNotifier(
	redisClient goredis.UniversalClient,
	cfg config.RedisConfig,
	logger *slog.Logger,
) core.CompletionNotifier {
	if redisClient == nil {
		return nil
	}
	if channel := cfg.CompletionChannel; channel != "" {
		return redisadapter.NewCompletionPublisherWithChannel(redisClient, channel, logger)
	}
	return redisadapter.NewCompletionPublisher(redisClient, logger)
}

// NewServices wires repositories and observability adapters into domain services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := deps.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	observability := buildObservability(logger, appCfg.Observability)
	repos := buildRepositories(deps.DB, logger)
	notifier := newCompletionNotifier(deps.RedisClient, appCfg.Redis, logger)

	var sink statsd.Sink
	if observability.MetricsSink != nil {
		sink = observability.MetricsSink
	}

	worker, err := service.NewWorkerService(service.WorkerServiceOptions{
		Jobs:     repos.JobRepo,
		Tickets:  repos.TicketRepo,
		Notifier: notifier,
		Config:   appCfg.Worker,
		Logger:   logger,
		Metrics:  sink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build worker service: %w", err)
	}

	manager, err := service.NewManagerService(service.ManagerServiceOptions{
		Jobs:    repos.JobRepo,
		Breaker: repos.BreakerRepo,
		Invoker: worker,
		Config:  appCfg.Manager,
		Logger:  logger,
		Metrics: sink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build manager service: %w", err)
	}

	reaper, err := service.NewReaperService(service.ReaperServiceOptions{
		Repo:    repos.JobRepo,
		Config:  appCfg.Reaper,
		Logger:  logger,
		Metrics: sink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build reaper service: %w", err)
	}

	jobs, err := service.NewJobService(service.JobServiceOptions{
		Jobs:    repos.JobRepo,
		Logger:  logger,
		Metrics: sink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build job service: %w", err)
	}

	return ServiceContainer{
		Jobs:          jobs,
		Worker:        worker,
		Manager:       manager,
		Reaper:        reaper,
		Observability: observability,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name,
					"error", errMsg,
				)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)

	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		{
			mode: config.ServiceModeManager,
			name: "generation manager",
			start: func(ctx context.Context) error {
				return deps.cfg.Services.Manager.Run(ctx)
			},
		},
		{
			mode: config.ServiceModeReaper,
			name: "reaper",
			start: func(ctx context.Context) error {
				return deps.cfg.Services.Reaper.Run(ctx)
			},
		},
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	ctx := context.Background()
	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		metrics:     cfg.Services.Observability.MetricsSink,
		logger:      logger,
		backgrounds: result.Background,
	})
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	size := count + 1
	if size < 1 {
		return 1
	}
	return size
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	metrics     *statsd.Client
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	// Gracefully stop HTTP server if running
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(cfg.ctx, shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	// Flush and close the metrics sink last so shutdown metrics still land
	if cfg.metrics != nil {
		if err := cfg.metrics.Close(); err != nil {
			cfg.logger.Warn("close metrics sink failed", "error", err)
		}
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
