package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage stored conversations",
}

var historyShowCmd = &cobra.Command{
	Use:   "show [url]",
	Short: "Show the conversation for a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear [url]",
	Short: "Delete the conversation for a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryClear,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pages with stored conversations",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

func init() {
	historyShowCmd.Flags().BoolVar(&historyJSON, "json", false, "output the history as JSON")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyListCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	chat, err := requireChat(cmd)
	if err != nil {
		return err
	}

	h, err := chat.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(h, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(h.Messages) == 0 {
		cmd.Println("No conversation for this page.")
		return nil
	}
	for _, m := range h.Messages {
		who := "You"
		if m.Role == domain.RoleAssistant {
			who = "Assistant"
		}
		cmd.Printf("[%s] %s\n", time.UnixMilli(m.Timestamp).Format("2006-01-02 15:04"), who)
		switch {
		case m.IsChart():
			cmd.Printf("  (chart) %s\n", m.Summary)
		default:
			cmd.Printf("  %s\n", m.Content)
		}
		cmd.Println()
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	chat, err := requireChat(cmd)
	if err != nil {
		return err
	}

	if err := chat.ClearHistory(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	cmd.Printf("Cleared conversation for %s\n", args[0])
	return nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	chat, err := requireChat(cmd)
	if err != nil {
		return err
	}

	keys, err := chat.Pages(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(keys) == 0 {
		cmd.Println("No conversations stored.")
		return nil
	}
	for _, key := range keys {
		if u, ok := domain.PageURL(key); ok {
			cmd.Println(u)
			continue
		}
		cmd.Println(key)
	}
	return nil
}
