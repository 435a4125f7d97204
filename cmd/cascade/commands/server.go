package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/moolen/cascade/internal/advisor"
	"github.com/moolen/cascade/internal/api/handlers"
	"github.com/moolen/cascade/internal/apiserver"
	"github.com/moolen/cascade/internal/clustering"
	"github.com/moolen/cascade/internal/config"
	"github.com/moolen/cascade/internal/correlate"
	"github.com/moolen/cascade/internal/depgraph"
	"github.com/moolen/cascade/internal/embedding"
	"github.com/moolen/cascade/internal/engine"
	"github.com/moolen/cascade/internal/lifecycle"
	"github.com/moolen/cascade/internal/logging"
	"github.com/moolen/cascade/internal/mcp"
	"github.com/moolen/cascade/internal/normalize"
	"github.com/moolen/cascade/internal/severity"
	"github.com/moolen/cascade/internal/store"
	"github.com/moolen/cascade/internal/tracing"
)

var (
	apiPort          int
	policyPath       string
	sweepInterval    time.Duration
	runInterval      time.Duration
	tracingEnabled   bool
	tracingEndpoint  string
	tracingTLSCAPath string
	tracingInsecure  bool
	mcpEnabled       bool
	shutdownTimeout  time.Duration
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Cascade server",
	Long: `Start the Cascade server which ingests telemetry, correlates events
into incidents and serves clustering results over the REST API.`,
	Run: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&apiPort, "api-port", 8080, "Port the API server listens on")
	serverCmd.Flags().StringVar(&policyPath, "policy", "policy.yaml",
		"Path to the YAML engine policy (created with defaults if missing)")
	serverCmd.Flags().DurationVar(&sweepInterval, "sweep-interval", correlate.DefaultSweepInterval,
		"How often idle incidents are closed")
	serverCmd.Flags().DurationVar(&runInterval, "run-interval", 0,
		"Interval for scheduled clustering runs per tenant (0 disables scheduling)")
	serverCmd.Flags().BoolVar(&tracingEnabled, "tracing-enabled", false, "Enable OpenTelemetry tracing")
	serverCmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "", "OTLP gRPC endpoint for traces (e.g., otel-collector:4317)")
	serverCmd.Flags().StringVar(&tracingTLSCAPath, "tracing-tls-ca", "", "Path to CA certificate for TLS verification (optional)")
	serverCmd.Flags().BoolVar(&tracingInsecure, "tracing-tls-insecure", false, "Skip TLS certificate verification (insecure, use only for testing)")
	serverCmd.Flags().BoolVar(&mcpEnabled, "mcp", false, "Serve MCP tools at /v1/mcp")
	serverCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
}

// engineOptionsFromPolicy translates the policy file into pipeline options
func engineOptionsFromPolicy(policy *config.PolicyFile) engine.Options {
	return engine.Options{
		Cluster: clustering.Config{
			Eps:       policy.Clustering.Eps,
			MinPoints: policy.Clustering.MinPoints,
		},
		MaxMemberTexts: policy.Embedding.MaxMemberTexts,
		MaxTextLen:     policy.Embedding.MaxTextLen,
		IncludeOpen:    policy.Clustering.IncludeOpenIncidents,
		RunTimeout:     policy.RunTimeoutDuration(),
	}
}

func runServer(cmd *cobra.Command, args []string) {
	cfg := config.LoadConfig(
		apiPort,
		logLevel,
		policyPath,
		tracingEnabled,
		tracingEndpoint,
		tracingTLSCAPath,
		mcpEnabled,
	)
	if err := cfg.Validate(); err != nil {
		HandleError(err, "Configuration error")
	}
	if err := setupLog(cfg.LogLevel); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("server")
	logger.Info("Starting Cascade v%s", Version)

	policy, err := config.LoadOrInitPolicyFile(cfg.PolicyPath)
	HandleError(err, "Policy error")

	manager := lifecycle.NewManager()
	registry := prometheus.NewRegistry()

	// Tracing first so later components can emit spans
	tracingProvider, err := tracing.NewTracingProvider(tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		TLSCAPath:   cfg.TracingTLSCAPath,
		TLSInsecure: tracingInsecure,
	})
	if err != nil {
		logger.Warn("Failed to initialize tracing (continuing without tracing): %v", err)
		tracingProvider = nil
	}
	if tracingProvider != nil {
		HandleError(manager.Register(tracingProvider), "Tracing registration error")
	}

	// Pipeline wiring
	classifier := severity.NewClassifier(policy.SeverityOverrides)
	normalizer := normalize.NewNormalizer(classifier)

	graph := depgraph.Default()
	if len(policy.Dependencies) > 0 {
		graph = depgraph.New(policy.Dependencies)
		logger.Info("Loaded dependency topology with %d services from policy", len(graph.Services()))
	}

	st := store.New()
	correlator := correlate.New(policy.WindowDuration(), graph, st, correlate.NewMetrics(registry))

	provider, err := embedding.NewCachedProvider(
		embedding.NewHashingProvider(policy.Embedding.Dims),
		policy.Embedding.CacheSize,
	)
	HandleError(err, "Embedding provider error")

	eng := engine.New(engineOptionsFromPolicy(policy), st, correlator, provider, advisor.New(), engine.NewMetrics(registry))

	// Policy hot reload: window and run options apply live, severity
	// overrides and topology need a restart
	policyWatcher, err := config.NewPolicyWatcher(
		config.PolicyWatcherConfig{FilePath: cfg.PolicyPath},
		func(p *config.PolicyFile) error {
			correlator.SetWindow(p.WindowDuration())
			eng.UpdateOptions(engineOptionsFromPolicy(p))
			logger.Info("Policy reloaded: window=%v eps=%v minPoints=%d",
				p.WindowDuration(), p.Clustering.Eps, p.Clustering.MinPoints)
			return nil
		},
	)
	HandleError(err, "Policy watcher error")

	var mcpSrv *mcpserver.MCPServer
	if cfg.MCPEnabled {
		mcpSrv = mcp.NewCascadeServer(st, eng, Version).GetMCPServer()
	}

	h := handlers.New(st, normalizer, correlator, eng)
	server := apiserver.New(cfg.APIPort, h, &apiserver.NoOpReadinessChecker{}, registry, mcpSrv)

	HandleError(manager.Register(correlate.NewSweeper(correlator, sweepInterval)), "Sweeper registration error")
	if runInterval > 0 {
		HandleError(manager.Register(engine.NewScheduler(eng, st, runInterval)), "Scheduler registration error")
	}
	HandleError(manager.Register(server), "API server registration error")

	ctx := context.Background()
	HandleError(manager.Start(ctx), "Startup error")
	HandleError(policyWatcher.Start(ctx), "Policy watcher start error")

	logger.Info("Cascade started, API on port %d", cfg.APIPort)

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Received signal %v, shutting down", sig)

	if err := policyWatcher.Stop(); err != nil {
		logger.Error("Policy watcher shutdown error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("Shutdown error: %v", err)
		os.Exit(1)
	}
	logger.Info("Cascade stopped")
}
