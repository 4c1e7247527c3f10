package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/mcp"
)

var (
	mcpPort int
	mcpHost string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose pagechat to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
questions about web pages through pagechat.

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead.

Examples:
  # Stdio mode (for desktop assistants)
  pagechat mcp serve

  # HTTP mode (for MCP Inspector); bind all interfaces with --host 0.0.0.0
  pagechat mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "pagechat": {
        "command": "/path/to/pagechat",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "127.0.0.1", "HTTP bind address")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("invalid port %d", mcpPort)
	}

	chat, err := requireChat(cmd)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{Chat: chat})
	if err != nil {
		return err
	}

	if mcpPort == 0 {
		return server.Run(cmd.Context())
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	cmd.PrintErrf("MCP server listening on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
