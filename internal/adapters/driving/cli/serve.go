package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and page widget",
	Long: `Start the local HTTP API used by the in-page widget.

Load the widget into any page with a bookmarklet or user script:
  <script src="http://127.0.0.1:8787/widget.js"></script>

The widget posts the rendered page with each question, so answers reflect
what is actually on screen. The listen address defaults to server.addr from
the config file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	chat, err := requireChat(cmd)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" && settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		addr = settings.Server.Addr
	}
	if addr == "" {
		addr = "127.0.0.1:8787"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "pagechat listening on http://%s\n", addr)
	return httpapi.NewServer(chat).Run(cmd.Context(), addr)
}
