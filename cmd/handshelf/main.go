// handshelf turns hand gestures seen by a webcam into a smoothed cursor
// and grab, open-hand, wave and swipe-up events, published over HTTP and
// WebSocket and controlled from a tray menu.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ayusman/handshelf/internal/app"
	"github.com/ayusman/handshelf/internal/config"
	"github.com/ayusman/handshelf/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var flags config.Flags
	var startTracking bool

	flagSet := pflag.NewFlagSet("handshelf", pflag.ContinueOnError)
	flags.AddFlags(flagSet)
	flagSet.BoolVar(&startTracking, "start", false, "start tracking immediately")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := flags.Resolve(flagSet)
	if err != nil {
		return err
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	a, err := app.New(cfg, app.Options{Store: st, Logger: logger})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if startTracking {
		if err := a.StartTracking(ctx); err != nil {
			logger.Error("failed to start tracking", "error", err)
		}
	}

	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		logger.Info("serving static files", "dir", webDir)
	}

	logger.Info("handshelf running",
		"addr", cfg.Server.Addr,
		"mode", a.Engine().Mode(),
		"tray", cfg.Tray,
		"db", st.Path(),
	)
	return a.Run(ctx, webDir)
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handshelf/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".handshelf", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
