package commands

import (
	"context"
	"fmt"
	"net/http"

	//nolint:gosec // We are using pprof for debugging
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/stridelabs/sleuth/internal/api"
	"github.com/stridelabs/sleuth/internal/collect"
	"github.com/stridelabs/sleuth/internal/config"
	"github.com/stridelabs/sleuth/internal/lifecycle"
	"github.com/stridelabs/sleuth/internal/logging"
	"github.com/stridelabs/sleuth/internal/mcp"
	"github.com/stridelabs/sleuth/internal/service"
	"github.com/stridelabs/sleuth/internal/tracing"
)

var (
	apiPort              int
	collectorsConfigPath string
	minAppVersion        string
	reportCacheSize      int
	pprofEnabled         bool
	pprofPort            int
	tracingEnabled       bool
	tracingEndpoint      string
	tracingTLSCAPath     string
	tracingTLSInsecure   bool
	// MCP server configuration
	stdioEnabled bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Sleuth server",
	Long: `Start the Sleuth server which accepts device snapshots over HTTP,
runs the diagnosis pipeline, and serves the resulting reports.`,
	Run: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&apiPort, "api-port", getEnvInt("SLEUTH_PORT", 8080), "Port the API server listens on")
	serverCmd.Flags().StringVar(&collectorsConfigPath, "collectors-config", "collectors.yaml", "Path to the YAML file containing per-collector settings")
	serverCmd.Flags().StringVar(&minAppVersion, "min-app-version", "", "Minimum required tracking app version (e.g., '2.0.0') for snapshot validation (optional)")
	serverCmd.Flags().IntVar(&reportCacheSize, "report-cache-size", service.DefaultCacheSize, "Number of recent diagnosis reports kept per user cache")
	serverCmd.Flags().BoolVar(&pprofEnabled, "pprof-enabled", false, "Enable pprof profiling server (default: false)")
	serverCmd.Flags().IntVar(&pprofPort, "pprof-port", 9999, "Port the pprof server listens on (default: 9999)")
	serverCmd.Flags().BoolVar(&tracingEnabled, "tracing-enabled", false, "Enable OpenTelemetry tracing (default: false)")
	serverCmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "", "OTLP gRPC endpoint for traces (e.g., otel-collector:4317)")
	serverCmd.Flags().StringVar(&tracingTLSCAPath, "tracing-tls-ca", "", "Path to CA certificate for TLS verification (optional)")
	serverCmd.Flags().BoolVar(&tracingTLSInsecure, "tracing-tls-insecure", false, "Skip TLS certificate verification (insecure, use only for testing)")

	// MCP server configuration
	serverCmd.Flags().BoolVar(&stdioEnabled, "stdio", false, "Enable stdio MCP transport alongside HTTP (default: false)")
}

func runServer(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg := config.LoadConfig(
		apiPort,
		GetLogLevel(),
		collectorsConfigPath,
		minAppVersion,
		reportCacheSize,
		tracingEnabled,
		tracingEndpoint,
		tracingTLSCAPath,
		tracingTLSInsecure,
	)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		HandleError(err, "Configuration error")
	}

	// Setup logging
	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("server")

	logger.Info("Starting Sleuth v%s", Version)
	logger.Debug("Configuration loaded: APIPort=%d", cfg.APIPort)

	manager := lifecycle.NewManager()
	logger.Info("Lifecycle manager created")

	// Prepare default collectors config file if needed
	if cfg.CollectorsConfigPath != "" {
		// Create default config file if it doesn't exist
		if _, err := os.Stat(cfg.CollectorsConfigPath); os.IsNotExist(err) {
			logger.Info("Creating default collectors config file: %s", cfg.CollectorsConfigPath)
			if err := config.WriteCollectorsFile(cfg.CollectorsConfigPath, config.DefaultCollectorsFile()); err != nil {
				logger.Error("Failed to create default collectors config: %v", err)
				HandleError(err, "Collectors config creation error")
			}
		}
	}

	// Initialize tracing provider
	tracingCfg := tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		TLSCAPath:   cfg.TracingTLSCAPath,
		TLSInsecure: cfg.TracingTLSInsecure,
	}
	tracingProvider, err := tracing.NewProvider(tracingCfg, Version)
	if err != nil {
		logger.Warn("Failed to initialize tracing (continuing without tracing): %v", err)
		tracingProvider = nil
	}

	// Register tracing provider (no dependencies)
	if tracingProvider != nil {
		if err := manager.Register(tracingProvider); err != nil {
			logger.Error("Failed to register tracing provider: %v", err)
			HandleError(err, "Tracing registration error")
		}
	}

	// Start pprof server if enabled
	if pprofEnabled {
		go func() {
			pprofAddr := fmt.Sprintf(":%d", pprofPort)
			logger.Info("Starting pprof server on %s", pprofAddr)
			if err := http.ListenAndServe(pprofAddr, nil); err != nil { //nolint:gosec // We are using pprof for debugging
				logger.Error("pprof server failed: %v", err)
			}
		}()
	}

	var tracer trace.Tracer
	if tracingProvider != nil {
		tracer = tracingProvider.GetTracer("sleuth")
	}

	// The registry is shared between the service metrics and the API
	// server's /metrics endpoint.
	registry := prometheus.NewRegistry()

	runner := collect.NewRunner()
	diagnostician, err := service.NewDiagnostician(runner, service.Options{
		MinAppVersion:  cfg.MinAppVersion,
		CacheSize:      cfg.ReportCacheSize,
		CollectorsPath: cfg.CollectorsConfigPath,
		Registerer:     registry,
		Tracer:         tracer,
	})
	if err != nil {
		logger.Error("Failed to create diagnostician: %v", err)
		HandleError(err, "Diagnostician creation error")
	}

	// The diagnostician doubles as the API readiness check: /readyz flips
	// once it has started.
	apiComponent := api.New(cfg.APIPort, diagnostician, diagnostician, registry, tracer)

	// Create the MCP server up front so a broken tool registration fails
	// startup rather than the first stdio client.
	var sleuthServer *mcp.SleuthServer
	if stdioEnabled {
		sleuthServer, err = mcp.NewSleuthServer(diagnostician, Version)
		if err != nil {
			logger.Error("Failed to create MCP server: %v", err)
			HandleError(err, "MCP server creation error")
		}
	}

	// Register components
	if err := manager.Register(diagnostician); err != nil {
		logger.Error("Failed to register diagnostician component: %v", err)
		HandleError(err, "Diagnostician registration error")
	}

	if err := manager.Register(apiComponent, diagnostician); err != nil {
		logger.Error("Failed to register API server component: %v", err)
		HandleError(err, "API server registration error")
	}

	logger.Info("All components registered with dependencies")
	ctx, cancel := context.WithCancel(context.Background())
	if err := manager.Start(ctx); err != nil {
		logger.Error("Failed to start components: %v", err)
		HandleError(err, "Startup error")
	}

	// Start stdio MCP transport if requested
	if stdioEnabled {
		logger.Info("Starting stdio MCP transport alongside HTTP")
		go func() {
			if err := server.ServeStdio(sleuthServer.GetMCPServer()); err != nil {
				logger.Error("Stdio transport error: %v", err)
			}
		}()
	}

	logger.Info("Application started successfully")
	logger.Info("Listening for diagnosis requests...")

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Shutdown signal received, gracefully shutting down...")
	cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}

	logger.Info("Shutdown complete")
}

// getEnvInt returns an integer environment variable value or default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
