// Package cli provides the pagechat command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driving"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
)

// BuildOptions carries the root flags that shape the chat pipeline.
type BuildOptions struct {
	// Ephemeral keeps conversations in memory for this process only.
	Ephemeral bool

	// Charts renders vega-lite replies in headless Chrome.
	Charts bool
}

// Builder assembles the chat service on first use. The returned close
// function releases stores and browsers.
type Builder func(ctx context.Context, opts BuildOptions) (driving.ChatService, func() error, error)

var (
	version = "dev"

	verbose   bool
	ephemeral bool
	charts    bool

	settingsService driving.SettingsService
	chatService     driving.ChatService

	builder   Builder
	closeChat func() error
)

var errChatNotConfigured = errors.New("chat service not configured")

var rootCmd = &cobra.Command{
	Use:   "pagechat",
	Short: "Ask questions about web pages",
	Long: `pagechat answers questions about a web page using an LLM.

The page is captured, reduced to its visible content and sent to the
configured model together with the conversation so far. Replies are
markdown or vega-lite charts; each page keeps its own history.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline progress to stderr")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep conversations in memory only")
	rootCmd.PersistentFlags().BoolVar(&charts, "charts", false, "render charts in headless Chrome")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetSettingsService sets the settings service used by the settings commands.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetBuilder sets the function that assembles the chat service.
func SetBuilder(b Builder) {
	builder = b
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer func() {
		if err := closeServices(); err != nil {
			logger.Warn("close services: %v", err)
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// requireChat returns the chat service, building it on first use.
func requireChat(cmd *cobra.Command) (driving.ChatService, error) {
	if chatService != nil {
		return chatService, nil
	}
	if builder == nil {
		return nil, errChatNotConfigured
	}

	svc, closeFn, err := builder(cmd.Context(), BuildOptions{
		Ephemeral: ephemeral,
		Charts:    charts,
	})
	if err != nil {
		return nil, fmt.Errorf("building chat service: %w", err)
	}
	chatService = svc
	closeChat = closeFn
	return svc, nil
}

func closeServices() error {
	if closeChat == nil {
		return nil
	}
	fn := closeChat
	closeChat = nil
	chatService = nil
	return fn()
}
