package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var extractFormat string

var extractCmd = &cobra.Command{
	Use:   "extract [url]",
	Short: "Show the page content sent to the LLM",
	Long: `Captures the page and prints the semantic document built from its
visible content.

Formats:
  json      - the semantic document exactly as sent to the LLM
  markdown  - a readable digest of the page`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "json", "output format (json, markdown)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	chat, err := requireChat(cmd)
	if err != nil {
		return err
	}

	switch extractFormat {
	case "json":
		doc, err := chat.Extract(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("extract failed: %w", err)
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		cmd.Println(string(data))
	case "markdown", "md":
		digest, err := chat.Digest(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("digest failed: %w", err)
		}
		cmd.Println(digest)
	default:
		return fmt.Errorf("unknown format %q (want json or markdown)", extractFormat)
	}
	return nil
}
