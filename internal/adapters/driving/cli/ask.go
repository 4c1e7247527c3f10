package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driving"
)

// chartWait bounds how long ask waits for a chart render.
const chartWait = 45 * time.Second

var (
	askJSON bool
	askSVG  string
)

var askCmd = &cobra.Command{
	Use:   "ask [url] [question]",
	Short: "Ask a question about a web page",
	Long: `Captures the page, sends its visible content and the conversation so far
to the configured LLM and prints the reply.

Chart replies are printed as their vega-lite spec. With --charts the chart is
also rendered in headless Chrome; --svg writes the rendered image to a file.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [url]",
	Short: "Suggest questions to ask about a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the turn as JSON")
	askCmd.Flags().StringVar(&askSVG, "svg", "", "write a rendered chart to this file (needs --charts)")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(suggestCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	chat, err := requireChat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	turn, err := chat.Ask(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	chartErr := waitForChart(ctx, turn)

	if askJSON {
		data, err := json.MarshalIndent(turn, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal turn: %w", err)
		}
		cmd.Println(string(data))
	} else {
		printTurn(cmd, turn)
	}

	if turn.Error != "" {
		return errors.New(turn.Error)
	}
	if chartErr != nil {
		return chartErr
	}
	if askSVG != "" && turn.ChartID != "" && turn.Chart != nil {
		return writeChartSVG(ctx, cmd, chat, turn.ChartID, askSVG)
	}
	return nil
}

// waitForChart blocks until the turn's chart render finishes.
func waitForChart(ctx context.Context, turn *domain.Turn) error {
	if turn.Chart == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, chartWait)
	defer cancel()

	select {
	case ev, ok := <-turn.Chart:
		if !ok || ev.Kind == domain.ChartRendered {
			return nil
		}
		return fmt.Errorf("chart render failed: %s", ev.Message)
	case <-ctx.Done():
		return errors.New("chart rendering timed out")
	}
}

func printTurn(cmd *cobra.Command, turn *domain.Turn) {
	if turn.Error != "" {
		return
	}
	r := turn.Result
	switch {
	case r == nil:
	case r.IsChart():
		if r.Summary != "" {
			cmd.Println(r.Summary)
			cmd.Println()
		}
		cmd.Println(string(r.Spec))
	default:
		cmd.Println(r.Content)
	}

	if len(turn.Suggestions) > 0 {
		cmd.Println()
		cmd.Println("Suggested questions:")
		for i, s := range turn.Suggestions {
			cmd.Printf("  %d. %s\n", i+1, s)
		}
	}
}

func writeChartSVG(ctx context.Context, cmd *cobra.Command, chat driving.ChatService, chartID, path string) error {
	svg, err := chat.ChartSVG(ctx, chartID)
	if err != nil {
		return fmt.Errorf("export chart: %w", err)
	}
	if err := os.WriteFile(path, []byte(svg), 0600); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	cmd.Printf("Chart written to %s\n", path)
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	chat, err := requireChat(cmd)
	if err != nil {
		return err
	}

	suggestions, err := chat.Suggest(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}
	for _, s := range suggestions {
		cmd.Println(s)
	}
	return nil
}
