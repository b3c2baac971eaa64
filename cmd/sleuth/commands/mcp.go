package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/stridelabs/sleuth/internal/collect"
	"github.com/stridelabs/sleuth/internal/config"
	"github.com/stridelabs/sleuth/internal/logging"
	"github.com/stridelabs/sleuth/internal/mcp"
	"github.com/stridelabs/sleuth/internal/service"
)

var (
	httpAddr        string
	transportType   string
	mcpEndpointPath string
	// collectorsConfigPath and minAppVersion are shared with server.go
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server that exposes
Sleuth diagnostics as MCP tools for AI assistants.

Supports two transport modes:
  - http: HTTP server mode (default, suitable for independent deployment)
  - stdio: Standard input/output mode (for subprocess-based MCP clients)

HTTP mode includes a /health endpoint for health checks.`,
	Run: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&httpAddr, "http-addr", getEnv("MCP_HTTP_ADDR", ":8082"), "HTTP server address (host:port)")
	mcpCmd.Flags().StringVar(&transportType, "transport", "http", "Transport type: http or stdio")
	mcpCmd.Flags().StringVar(&mcpEndpointPath, "mcp-endpoint", getEnv("MCP_ENDPOINT", "/mcp"), "HTTP endpoint path for MCP requests")
	mcpCmd.Flags().StringVar(&collectorsConfigPath, "collectors-config", "collectors.yaml", "Path to the YAML file containing per-collector settings")
	mcpCmd.Flags().StringVar(&minAppVersion, "min-app-version", "", "Minimum required tracking app version for snapshot validation (optional)")
}

func runMCP(cmd *cobra.Command, args []string) {
	// Set up logging
	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("mcp")
	logger.Info("Starting Sleuth MCP Server (transport: %s)", transportType)

	// Prepare default collectors config file if needed
	if collectorsConfigPath != "" {
		if _, err := os.Stat(collectorsConfigPath); os.IsNotExist(err) {
			logger.Info("Creating default collectors config file: %s", collectorsConfigPath)
			if err := config.WriteCollectorsFile(collectorsConfigPath, config.DefaultCollectorsFile()); err != nil {
				logger.Error("Failed to create default collectors config: %v", err)
				HandleError(err, "Collectors config creation error")
			}
		}
	}

	// The MCP server runs its own diagnostician; metrics fall back to a
	// throwaway registry since nothing scrapes this process.
	runner := collect.NewRunner()
	diagnostician, err := service.NewDiagnostician(runner, service.Options{
		MinAppVersion:  minAppVersion,
		CollectorsPath: collectorsConfigPath,
	})
	if err != nil {
		logger.Fatal("Failed to create diagnostician: %v", err)
	}

	sleuthServer, err := mcp.NewSleuthServer(diagnostician, Version)
	if err != nil {
		logger.Fatal("Failed to create MCP server: %v", err)
	}

	// Get the underlying mcp-go server
	mcpServer := sleuthServer.GetMCPServer()

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal: %v, shutting down gracefully...", sig)
		cancel()
	}()

	// Start the diagnostician (loads the collectors file and watches it)
	if err := diagnostician.Start(ctx); err != nil {
		logger.Error("Failed to start diagnostician: %v", err)
		HandleError(err, "Diagnostician startup error")
	}

	// Start appropriate transport
	switch transportType {
	case "http":
		// Ensure endpoint path starts with /
		endpointPath := mcpEndpointPath
		if endpointPath == "" {
			endpointPath = "/mcp"
		} else if endpointPath[0] != '/' {
			endpointPath = "/" + endpointPath
		}

		logger.Info("Starting HTTP server on %s (endpoint: %s)", httpAddr, endpointPath)

		// Create custom mux with health endpoint
		mux := http.NewServeMux()

		// Add health endpoint
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("ok"))
		})

		// Create HTTP server with our custom mux
		httpSrv := &http.Server{
			Addr:              httpAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second, // Prevent Slowloris attacks
		}

		// Create StreamableHTTP server with stateless session management
		// for compatibility with clients that don't manage sessions
		streamableServer := server.NewStreamableHTTPServer(
			mcpServer,
			server.WithEndpointPath(endpointPath),
			server.WithStateLess(true),
			server.WithStreamableHTTPServer(httpSrv),
		)

		// Register MCP handler at the endpoint path
		mux.Handle(endpointPath, streamableServer)

		// Start server in goroutine
		errCh := make(chan error, 1)
		go func() {
			if err := streamableServer.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		// Wait for shutdown signal or error
		select {
		case <-ctx.Done():
			logger.Info("Shutting down HTTP server...")
			// Use a timeout context for shutdown (don't hang forever)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()

			if err := streamableServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("Error during shutdown: %v", err)
			}

			if err := diagnostician.Stop(shutdownCtx); err != nil {
				logger.Error("Error stopping diagnostician: %v", err)
			}
		case err := <-errCh:
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}

	case "stdio":
		logger.Info("Starting stdio transport")
		if err := server.ServeStdio(mcpServer); err != nil {
			logger.Error("Stdio transport error: %v", err)
		}

		// Stop the diagnostician after stdio transport ends
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := diagnostician.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping diagnostician: %v", err)
		}

	default:
		logger.Fatal("Invalid transport type: %s (must be 'http' or 'stdio')", transportType)
	}

	logger.Info("Server stopped")
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
