// ripple - a terminal client for streaming LLM chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/ripple/internal/config"
	"github.com/morganforge/ripple/internal/logging"
	"github.com/morganforge/ripple/internal/render"
	"github.com/morganforge/ripple/internal/sse"
	"github.com/morganforge/ripple/internal/storage"
	"github.com/morganforge/ripple/internal/stream"
	"github.com/morganforge/ripple/internal/ui/chat"
	"github.com/morganforge/ripple/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.ripple/config.toml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ripple %s (%s)\n", Version, GitCommit)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ripple: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// Configuration
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Logging
	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	logger, logErr := logging.Open(logPath, parseLevel(cfg.Log.Level))
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "ripple: log file unavailable, continuing without: %v\n", logErr)
	}
	defer logger.Close()
	logger.Infof("ripple %s starting, backend %s", Version, cfg.Backend.BaseURL)

	// Persistence
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	kv, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer kv.Close()
	store := storage.NewConversationStore(kv)
	store.MaxSessions = cfg.Storage.MaxSessions

	// Transport
	client := sse.NewClient(cfg.Backend.BaseURL)
	client.ConnectTimeout = cfg.ConnectTimeout()
	transport := stream.Dial(client)

	// UI
	theme := styles.NewTheme()
	renderer := render.New(cfg.UI.WrapWidth)
	m := chat.New(theme, renderer, store, transport, logger, cfg.UI.WelcomeText)

	program := tea.NewProgram(m, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		logger.Errorf("program exited with error: %v", err)
		return err
	}

	// The model saves on quit; this catches exits that bypass teardown.
	if fm, ok := final.(chat.Model); ok {
		if sess := fm.Session(); sess != nil && len(sess.Messages) > 0 {
			if err := store.Save(sess); err != nil {
				logger.Warnf("final save failed: %v", err)
			}
		}
	}

	logger.Infof("ripple exiting")
	return nil
}

// parseLevel maps a config level string onto a logging level.
func parseLevel(s string) logging.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
