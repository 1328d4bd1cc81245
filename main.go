// ragchat - A terminal client for a retrieval-augmented chat backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/ragchat/internal/api"
	"github.com/morganforge/ragchat/internal/auth"
	"github.com/morganforge/ragchat/internal/cli"
	"github.com/morganforge/ragchat/internal/config"
	"github.com/morganforge/ragchat/internal/ui/app"
	"github.com/morganforge/ragchat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const usage = `ragchat - terminal client for a RAG chat backend

Usage:
  ragchat [--config PATH]
                       Start the interactive TUI
  ragchat ask [flags] [question]
                       Query a document collection directly
  ragchat version      Print version information
  ragchat help         Show this help

Configuration is read from ~/.ragchat/config.toml (created with defaults on
first run) and RAGCHAT_* environment variables; --config loads an alternate
file. See 'ragchat ask -h' for query flags.`

func main() {
	args := os.Args[1:]

	var cfg *config.Config
	var err error
	if len(args) >= 2 && (args[0] == "--config" || args[0] == "-config") {
		cfg, err = config.LoadFromPath(args[1])
		args = args[2:]
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "ask":
		if err := cli.RunAsk(args[1:], cfg, os.Stdout); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %s\n", api.Detail(err, err.Error()))
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("ragchat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	case "help", "--help", "-h":
		fmt.Println(usage)
	case "":
		runTUI(cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(1)
	}
}

// runTUI starts the full-screen interface.
func runTUI(cfg *config.Config) {
	theme := styles.NewTheme()

	client := api.NewClient(cfg.Backend.URL).
		WithTimeout(time.Duration(cfg.Backend.TimeoutSecs) * time.Second)

	gate := auth.NewGate(auth.NewCredentialsProvider())

	m := app.New(theme, client, gate, cfg)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running ragchat: %v\n", err)
		os.Exit(1)
	}
}
