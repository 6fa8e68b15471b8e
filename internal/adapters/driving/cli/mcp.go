package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelf/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search the
library and read past searches.

By default, the server communicates over stdio using JSON-RPC. Use --port
to serve the streamable HTTP transport instead.

Examples:
  # Stdio mode (for desktop assistants)
  shelf mcp

  # HTTP mode (for MCP Inspector, remote access)
  shelf mcp --port 8081

Assistant configuration:
  {
    "mcpServers": {
      "shelf": {
        "command": "/path/to/shelf",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

// newMCPServer builds the MCP server over the configured services.
func newMCPServer() (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{
		Search:  searchService,
		Library: libraryService,
		UserID:  currentUser(),
	})
}

func runMCP(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := newMCPServer()
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
