package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/config"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/adapters/feed"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/adapters/notify"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/adapters/telegram"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/report"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/session"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/status"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/watcher"
)

// Ventana de historia retenida; sobra frente al patrón más largo razonable.
const historyWindow = 50

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one poll cycle and exit")
	dryRun := flag.Bool("dry-run", false, "print advisories to console instead of Telegram")
	replayPath := flag.String("replay", "", "replay recorded batches from a JSON file instead of the live feed")
	statusAddr := flag.String("status-addr", "", "status HTTP listen address (overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *statusAddr != "" {
		cfg.Status.Addr = *statusAddr
	}
	setupLogger(cfg.Log)

	catalog, err := cfg.Catalog()
	if err != nil {
		slog.Error("invalid strategy", "err", err)
		os.Exit(1)
	}
	stakes, err := cfg.StakePlan()
	if err != nil {
		slog.Error("invalid stake plan", "err", err)
		os.Exit(1)
	}

	slog.Info("bacbo-signals starting",
		"config", *configPath,
		"poll_interval", cfg.PollInterval(),
		"rules", len(catalog.Rules()),
		"max_gales", cfg.Strategy.MaxGales,
		"dry_run", *dryRun,
		"once", *once,
	)

	var notifier ports.Notifier
	var console *notify.Console
	if *dryRun {
		console = notify.NewConsole()
		notifier = console
	} else {
		tg, err := telegram.New(telegram.Config{
			Token:         cfg.Telegram.Token,
			ChatID:        cfg.Telegram.ChatID,
			Endpoint:      cfg.Telegram.Endpoint,
			WinStickerID:  cfg.Telegram.WinStickerID,
			LossStickerID: cfg.Telegram.LossStickerID,
		})
		if err != nil {
			slog.Error("failed to init telegram", "err", err)
			os.Exit(1)
		}
		notifier = tg
	}

	board := &domain.Scoreboard{}
	history := domain.NewHistory(historyWindow)
	sess := session.New(notifier, board, catalog, session.Config{
		MaxStages: cfg.Strategy.MaxGales,
		Stakes:    stakes,
		TableURL:  cfg.Bot.TableURL,
	})

	resultFeed, stream, err := buildFeed(cfg, *replayPath)
	if err != nil {
		slog.Error("failed to init feed", "err", err)
		os.Exit(1)
	}

	digest, err := report.NewDigest(notifier, board, cfg.Report.DigestSchedule)
	if err != nil {
		slog.Error("invalid digest schedule", "err", err)
		os.Exit(1)
	}

	reloads := make(chan watcher.Reload, 1)
	w := watcher.New(resultFeed, sess, history, nil, reloads, watcher.Config{
		PollInterval: cfg.PollInterval(),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		if err := w.RunOnce(ctx); err != nil {
			slog.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		if console != nil {
			console.PrintScoreboard(board.Snapshot())
		}
		return
	}

	digest.Start()
	defer digest.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })

	if stream != nil {
		g.Go(func() error { return stream.Run(ctx) })
	}

	g.Go(func() error {
		return config.Watch(ctx, *configPath, func(next *config.Config) {
			pushReload(reloads, next)
		})
	})

	if cfg.Status.Addr != "" {
		srv := status.New(cfg.Status.Addr, sess, board, history)
		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("bot exited with error", "err", err)
		os.Exit(1)
	}

	if console != nil {
		console.PrintScoreboard(board.Snapshot())
	}
	slog.Info("bacbo-signals stopped cleanly")
}

// buildFeed elige el origen de resultados: replay, stream o HTTP.
func buildFeed(cfg *config.Config, replayPath string) (ports.ResultFeed, *feed.StreamFeed, error) {
	if replayPath != "" {
		replay, err := feed.LoadReplay(replayPath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("feed: replay mode", "path", replayPath)
		return replay, nil, nil
	}

	if cfg.Feed.Mode == "stream" {
		stream, err := feed.NewStreamFeed(feed.StreamConfig{
			URL:         cfg.Feed.URL,
			ResultsPath: cfg.Feed.ResultsPath,
			NewestFirst: cfg.Feed.NewestFirst,
		})
		if err != nil {
			return nil, nil, err
		}
		return stream, stream, nil
	}

	httpFeed, err := feed.NewHTTPFeed(feed.HTTPConfig{
		URL:         cfg.Feed.URL,
		ResultsPath: cfg.Feed.ResultsPath,
		NewestFirst: cfg.Feed.NewestFirst,
		Headers:     cfg.Feed.Headers,
	})
	if err != nil {
		return nil, nil, err
	}
	return httpFeed, nil, nil
}

// pushReload deja la última versión válida en el canal; si había una
// pendiente sin consumir, se descarta.
func pushReload(reloads chan watcher.Reload, next *config.Config) {
	catalog, err := next.Catalog()
	if err != nil {
		slog.Warn("config: rejected reload", "err", err)
		return
	}
	stakes, err := next.StakePlan()
	if err != nil {
		slog.Warn("config: rejected reload", "err", err)
		return
	}

	select {
	case <-reloads:
	default:
	}
	reloads <- watcher.Reload{Catalog: catalog, Stakes: stakes}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
