package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/tui"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui [url]",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal chat.

Pass a page URL to open its conversation straight away.

Controls:
  Enter    - Open page / ask
  Tab      - Insert next suggested question
  ↑/↓      - Scroll conversation
  Ctrl+L   - Clear history
  Esc      - Back
  Ctrl+C   - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if len(args) == 1 {
		if _, err := domain.PageKey(args[0]); err != nil {
			return err
		}
	}

	chat, err := requireChat(cmd)
	if err != nil {
		return err
	}

	app, err := tui.NewApp(tui.NewPorts(chat, settingsService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())
	if len(args) == 1 {
		app.OpenPage(args[0])
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
