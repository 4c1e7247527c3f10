// Command pagechat answers questions about web pages with an LLM.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driven/browser"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driven/config/file"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driven/htmlpage"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driven/storage/memory"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driven/storage/redisstore"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driven/storage/sqlite"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driven/transport"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driven/vendor"
	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driving/cli"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driving"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/services"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
	"github.com/msantosh308/ai-chrome-assistant/internal/markdown"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the PAGECHAT_* variables may come from the shell.
	_ = godotenv.Load()

	configDir, err := file.DefaultDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagechat: %v\n", err)
		return err
	}
	if err := logger.Init(filepath.Join(configDir, "logs")); err != nil {
		fmt.Fprintf(os.Stderr, "pagechat: %v\n", err)
	}
	defer func() { _ = logger.Sync() }()

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagechat: %v\n", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetBuilder(func(ctx context.Context, opts cli.BuildOptions) (driving.ChatService, func() error, error) {
		return buildChat(ctx, configDir, settingsService, opts)
	})

	return cli.Execute(ctx)
}

// buildChat wires the chat pipeline from settings. The returned function
// releases everything that was opened.
func buildChat(
	ctx context.Context,
	configDir string,
	settingsService *services.SettingsService,
	opts cli.BuildOptions,
) (driving.ChatService, func() error, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (driving.ChatService, func() error, error) {
		_ = closeAll()
		return nil, nil, err
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	closers = append(closers, func() error { stopWatch(); return nil })

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return fail(fmt.Errorf("prompt store: %w", err))
	}
	go func() {
		if err := prompts.Watch(watchCtx); err != nil {
			logger.Warn("prompt watcher stopped: %v", err)
		}
	}()

	gateway := services.NewLLMGateway(settingsService, vendor.NewRegistry(), transport.New(nil), nil)
	gateway.SetPromptStore(prompts)

	store, err := openStore(ctx, configDir, settings.Storage, opts.Ephemeral)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, store.Close)

	fetcher := htmlpage.NewFetcher(htmlpage.Config{})

	var mgr *browser.Manager
	browserManager := func() *browser.Manager {
		if mgr == nil {
			mgr = browser.NewManager(browser.Config{})
			closers = append(closers, mgr.Close)
		}
		return mgr
	}

	var snapshots driven.SnapshotSource
	switch settings.Extract.Source {
	case domain.SnapshotBrowser:
		snapshots = browser.NewSnapshotSource(browserManager())
	default:
		snapshots = htmlpage.NewSnapshotSource(fetcher)
	}
	closers = append(closers, snapshots.Close)

	chat := services.NewChatService(
		gateway,
		services.NewConversationService(store),
		snapshots,
		markdown.NewRenderer(),
	)
	chat.SetDigester(htmlpage.NewDigester(fetcher))

	if opts.Charts {
		surface, err := browser.NewChartSurface(ctx, browserManager())
		if err != nil {
			return fail(fmt.Errorf("chart surface: %w", err))
		}
		closers = append(closers, surface.Close)

		timings := services.DefaultChartTimings()
		loader := services.NewChartLibraryLoader(settings.Chart.Scripts(), timings)
		chat.SetChartRenderer(services.NewChartRenderer(surface, loader, timings))
	}

	logger.Debug("Chat ready: vendor=%s store=%s capture=%s charts=%v",
		settings.LLM.Vendor, settings.Storage.Backend, settings.Extract.Source, opts.Charts)
	return chat, closeAll, nil
}

// openStore opens the configured conversation store.
func openStore(
	ctx context.Context,
	configDir string,
	cfg domain.StorageSettings,
	ephemeral bool,
) (driven.ConversationStore, error) {
	if ephemeral {
		return memory.NewConversationStore(0), nil
	}

	switch cfg.Backend {
	case domain.StorageMemory:
		return memory.NewConversationStore(0), nil
	case domain.StorageRedis:
		store, err := redisstore.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, nil
	default:
		store, err := sqlite.NewStore(configDir)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	}
}
