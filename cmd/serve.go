package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"

	mcpserver "github.com/takeshy/ddsbatch/internal/mcp"
)

var (
	serveTransport string
	servePort      int
	serveAPIKey    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI assistant integration",
	Long: `Start a Model Context Protocol (MCP) server that exposes rule editing and
DDS conversion to AI assistants and editor plugins.

Transport options:
  stdio: Standard input/output (default, for local integration)
  sse:   Server-Sent Events over HTTP (requires API key)
  http:  Streamable HTTP (requires API key)

Examples:
  # Start stdio server
  ddsbatch serve

  # Start HTTP server on port 8080 (API key required)
  ddsbatch serve --transport http --port 8080 --serve-api-key mysecretkey

  # Or use environment variable for API key
  export DDSBATCH_SERVE_API_KEY=mysecretkey
  ddsbatch serve --transport sse --port 8080

MCP client configuration:
  {
    "mcpServers": {
      "ddsbatch": {
        "command": "/path/to/ddsbatch",
        "args": ["serve", "--config", "/path/to/ddsbatch.yaml"]
      }
    }
  }`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", "stdio", "Transport type: stdio, sse, or http")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port for HTTP/SSE server")
	serveCmd.Flags().StringVar(&serveAPIKey, "serve-api-key", "", "API key for HTTP authentication (or DDSBATCH_SERVE_API_KEY env var)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	server := mcpserver.NewServer(m, Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	switch serveTransport {
	case "stdio":
		go func() {
			<-sigChan
			cancel()
		}()
		logger.Infof("Starting MCP server on stdio (settings: %s)", m.Path())
		return server.RunStdio(ctx)

	case "sse":
		return runHTTPServerWithShutdown(server.NewHTTPHandler(), "SSE", sigChan)

	case "http":
		return runHTTPServerWithShutdown(server.NewStreamableHTTPHandler(), "HTTP", sigChan)

	default:
		return fmt.Errorf("unknown transport: %s (must be stdio, sse, or http)", serveTransport)
	}
}

func runHTTPServerWithShutdown(handler http.Handler, transportName string, sigChan chan os.Signal) error {
	httpAPIKey := serveAPIKey
	if httpAPIKey == "" {
		httpAPIKey = os.Getenv("DDSBATCH_SERVE_API_KEY")
	}
	if httpAPIKey == "" {
		return fmt.Errorf("API key required for HTTP server. Use --serve-api-key or set DDSBATCH_SERVE_API_KEY environment variable")
	}

	addr := fmt.Sprintf(":%d", servePort)
	server := &http.Server{
		Addr:              addr,
		Handler:           mcpserver.APIKeyMiddleware(httpAPIKey, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-sigChan
		logger.Infof("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("Starting MCP %s server on http://localhost%s (API key authentication enabled)", transportName, addr)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
