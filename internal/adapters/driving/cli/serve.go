package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelf/internal/adapters/driving/rest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the JSON API for searching the library, the MCP streamable HTTP
transport at /mcp and Prometheus metrics at /metrics.

Search endpoints and MCP tools identify the caller by the X-User-ID header,
which an authenticating proxy in front of shelf is expected to set. Requests
without it are refused.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	// serveAddr overrides server.addr.
	serveAddr string

	// serveSearchRate is the per-user search rate; zero disables limiting.
	serveSearchRate  float64
	serveSearchBurst int
)

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from settings)")
	serveCmd.Flags().Float64Var(&serveSearchRate, "search-rate", rest.DefaultSearchRateLimit.RequestsPerSecond,
		"searches per second allowed per user (0 = unlimited)")
	serveCmd.Flags().IntVar(&serveSearchBurst, "search-burst", rest.DefaultSearchRateLimit.BurstSize,
		"searches a user may run back to back")
	rootCmd.AddCommand(serveCmd)
}

// newHTTPServer builds the API server over the configured services.
func newHTTPServer() (*rest.Server, error) {
	mcpServer, err := newMCPServer()
	if err != nil {
		return nil, fmt.Errorf("building MCP server: %w", err)
	}

	ports := rest.Ports{
		Search:  searchService,
		Library: libraryService,
		MCP:     mcpServer.Handler(),
	}
	if serveSearchRate > 0 {
		ports.SearchRateLimit = &rest.RateLimitConfig{
			RequestsPerSecond: serveSearchRate,
			BurstSize:         serveSearchBurst,
		}
	}
	if metricsRecorder != nil {
		ports.Metrics = metricsRecorder
		ports.MetricsHandler = metricsRecorder.Handler()
	}
	return rest.NewServer(ports)
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := newHTTPServer()
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = appSettings.Server.Addr
	}

	cmd.Printf("Serving on http://%s\n", addr)
	return server.Run(cmd.Context(), addr)
}
