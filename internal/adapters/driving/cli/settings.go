package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

var errNoSettingsService = errors.New("settings service not configured")

var (
	settingsEndpoint string
	settingsRedisURL string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the LLM vendor, page capture and conversation storage.

Use subcommands to change one setting or run the interactive wizard.
PAGECHAT_API_KEY, PAGECHAT_API_ENDPOINT, PAGECHAT_VENDOR and PAGECHAT_MODEL
override the stored LLM settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the LLM step by step.`,
	RunE:  runSettingsWizard,
}

var settingsVendorCmd = &cobra.Command{
	Use:   "vendor [name]",
	Short: "Set the LLM vendor",
	Long: `Set the wire protocol used to reach the LLM.

Available vendors:
  litellm  - LiteLLM proxy (chat completions)
  openai   - OpenAI or any compatible server
  claude   - Anthropic messages API
  gemini   - Google generateContent API
  custom   - Any chat completions endpoint

Without --endpoint the vendor's usual endpoint is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsVendor,
}

var settingsAPIKeyCmd = &cobra.Command{
	Use:   "api-key [key]",
	Short: "Set the LLM API key",
	Long:  `Set the LLM API key. When no key is given it is read without echo.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsAPIKey,
}

var settingsModelCmd = &cobra.Command{
	Use:   "model [name]",
	Short: "Set the LLM model",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsModel,
}

var settingsSnapshotCmd = &cobra.Command{
	Use:   "snapshot [http|browser]",
	Short: "Set how pages are captured",
	Long: `Set how pages are captured before extraction.

  http     - fetch static HTML (fast; visibility from inline styles only)
  browser  - render in headless Chrome (computed styles, scripts run)`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSnapshot,
}

var settingsStorageCmd = &cobra.Command{
	Use:   "storage [sqlite|memory|redis]",
	Short: "Set where conversations are stored",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsStorage,
}

func init() {
	settingsVendorCmd.Flags().StringVar(&settingsEndpoint, "endpoint", "", "API endpoint URL")
	settingsStorageCmd.Flags().StringVar(&settingsRedisURL, "redis-url", "", "Redis URL (redis backend only)")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsVendorCmd)
	settingsCmd.AddCommand(settingsAPIKeyCmd)
	settingsCmd.AddCommand(settingsModelCmd)
	settingsCmd.AddCommand(settingsSnapshotCmd)
	settingsCmd.AddCommand(settingsStorageCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	llm := settings.LLM
	cmd.Println("[LLM]")
	cmd.Printf("  Vendor: %s\n", llm.Vendor.Description())
	cmd.Printf("  Endpoint: %s\n", llm.APIEndpoint)
	cmd.Printf("  Model: %s\n", llm.Model)
	if llm.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(llm.APIKey))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
	cmd.Printf("  Temperature: %.1f\n", llm.Temperature)
	cmd.Printf("  Max Tokens: %d\n", llm.MaxTokens)
	cmd.Printf("  Timeout: %s\n", llm.Timeout)
	if llm.RequestsPerMinute > 0 {
		cmd.Printf("  Requests/min: %d\n", llm.RequestsPerMinute)
	}
	status := "configured"
	if !llm.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Pages]")
	cmd.Printf("  Capture: %s\n", settings.Extract.Source)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	if settings.Storage.Backend == domain.StorageRedis {
		cmd.Printf("  Redis URL: %s\n", settings.Storage.RedisURL)
	}
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'pagechat settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	cmd.Println("pagechat Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Select LLM Vendor")
	cmd.Println("-------------------------")
	vendor := chooseVendor(cmd, reader)

	cmd.Printf("Enter API endpoint [%s]: ", vendor.DefaultEndpoint())
	endpoint := readLine(reader)
	if err := settingsService.SetVendor(vendor, endpoint); err != nil {
		return fmt.Errorf("failed to set vendor: %w", err)
	}
	cmd.Printf("Vendor set to: %s\n\n", vendor.Description())

	cmd.Println("Step 2: Model")
	cmd.Println("-------------")
	defaultModel := domain.DefaultModels()[vendor]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}
	if err := settingsService.SetModel(model); err != nil {
		return fmt.Errorf("failed to set model: %w", err)
	}
	cmd.Println()

	cmd.Println("Step 3: API Key")
	cmd.Println("---------------")
	cmd.Print("Enter API key (leave empty to keep current): ")
	key := readPassword(reader)
	cmd.Println()
	if key != "" {
		if err := settingsService.SetAPIKey(key); err != nil {
			return fmt.Errorf("failed to set API key: %w", err)
		}
	}
	cmd.Println()

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func chooseVendor(cmd *cobra.Command, reader *bufio.Reader) domain.Vendor {
	vendors := domain.AllVendors()
	for i, v := range vendors {
		cmd.Printf("  %d. %s\n", i+1, v.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(vendors), 1)
	return vendors[idx-1]
}

func runSettingsVendor(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	var vendor domain.Vendor
	if len(args) == 1 {
		vendor = domain.Vendor(strings.ToLower(args[0]))
		if !vendor.IsValid() {
			return fmt.Errorf("unknown vendor %q", args[0])
		}
	} else {
		vendor = chooseVendor(cmd, bufio.NewReader(cmd.InOrStdin()))
	}

	if err := settingsService.SetVendor(vendor, settingsEndpoint); err != nil {
		return fmt.Errorf("failed to set vendor: %w", err)
	}
	cmd.Printf("Vendor set to: %s\n", vendor.Description())
	return nil
}

func runSettingsAPIKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		cmd.Print("Enter API key: ")
		key = readPassword(bufio.NewReader(cmd.InOrStdin()))
		cmd.Println()
	}
	if key == "" {
		return errors.New("API key is required")
	}

	if err := settingsService.SetAPIKey(key); err != nil {
		return fmt.Errorf("failed to set API key: %w", err)
	}
	cmd.Printf("API key set: %s\n", maskAPIKey(key))
	return nil
}

func runSettingsModel(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	var model string
	if len(args) == 1 {
		model = args[0]
	} else {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		defaultModel := domain.DefaultModels()[settings.LLM.Vendor]
		cmd.Printf("Enter model name [%s]: ", defaultModel)
		model = readLine(bufio.NewReader(cmd.InOrStdin()))
		if model == "" {
			model = defaultModel
		}
	}

	if err := settingsService.SetModel(model); err != nil {
		return fmt.Errorf("failed to set model: %w", err)
	}
	cmd.Printf("Model set to: %s\n", model)
	return nil
}

func runSettingsSnapshot(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	mode := domain.SnapshotMode(strings.ToLower(args[0]))
	if err := settingsService.SetSnapshotMode(mode); err != nil {
		return fmt.Errorf("failed to set capture mode: %w", err)
	}
	cmd.Printf("Pages captured with: %s\n", mode)
	return nil
}

func runSettingsStorage(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	backend := domain.StorageBackend(strings.ToLower(args[0]))
	if err := settingsService.SetStorageBackend(backend, settingsRedisURL); err != nil {
		return fmt.Errorf("failed to set storage: %w", err)
	}
	cmd.Printf("Conversations stored in: %s\n", backend)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo from a terminal, falling back to reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
