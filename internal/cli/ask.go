// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Direct collection query command for the ragchat CLI.
//
// Handles the "ragchat ask" command, which queries a document collection
// without starting a conversation, and prints the answer with its sources.
//
// Command: ask [question]
//
// Examples:
//   ragchat ask "What does the handbook say about PTO?"
//   ragchat ask -c papers "Summarize the intro of the attention paper"
//   ragchat ask --json "What is the refund policy?"
//   ragchat ask            (interactive: prompts with history)
//
// Flags:
//   -c, --collection NAME  Collection to query (default: default_collection)
//   --json                 Output response as JSON
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/morganforge/ragchat/internal/api"
	"github.com/morganforge/ragchat/internal/config"
	"github.com/morganforge/ragchat/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fall back to plain text when the renderer cannot initialize.
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display. Returns
// the original content if rendering fails.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// STYLES
// =============================================================================

var (
	sourceLabelStyle = lipgloss.NewStyle().
				Foreground(styles.Cyan).
				Bold(true)

	sourceMetaStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// askPrompt provides input history and line editing for interactive asks.
type askPrompt struct {
	line        *liner.State
	historyFile string
}

func newAskPrompt() *askPrompt {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	p := &askPrompt{
		line:        line,
		historyFile: filepath.Join(configDir, "ask_history"),
	}
	if f, err := os.Open(p.historyFile); err == nil {
		p.line.ReadHistory(f)
		f.Close()
	}
	return p
}

// read reads one question, recording non-empty input in history.
func (p *askPrompt) read() (string, error) {
	input, err := p.line.Prompt("ask> ")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		p.line.AppendHistory(input)
	}
	return input, nil
}

// close saves history and releases the terminal.
func (p *askPrompt) close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(p.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			p.line.WriteHistory(f)
			f.Close()
		}
	}
	p.line.Close()
}

// =============================================================================
// COMMAND
// =============================================================================

// jsonResult is the --json output shape.
type jsonResult struct {
	Answer  string       `json:"answer"`
	Sources []jsonSource `json:"sources"`
}

type jsonSource struct {
	Origin string  `json:"origin"`
	Score  float64 `json:"score"`
}

// RunAsk executes the ask command. With a question argument it runs one
// query and exits; without one it drops into an interactive prompt.
func RunAsk(args []string, cfg *config.Config, out io.Writer) error {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	fs.SetOutput(out)
	collection := fs.String("collection", cfg.Chat.CollectionName, "collection to query")
	fs.StringVar(collection, "c", cfg.Chat.CollectionName, "collection to query (shorthand)")
	asJSON := fs.Bool("json", false, "output response as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := api.NewClient(cfg.Backend.URL).
		WithTimeout(time.Duration(cfg.Backend.TimeoutSecs) * time.Second)

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question != "" {
		return runOneQuery(client, *collection, question, *asJSON, out)
	}

	// Interactive mode: keep asking until EOF or Ctrl-C.
	prompt := newAskPrompt()
	defer prompt.close()

	fmt.Fprintf(out, "Querying %s. Empty line or Ctrl-D exits.\n", *collection)
	for {
		question, err := prompt.read()
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(question) == "" {
			return nil
		}
		if err := runOneQuery(client, *collection, question, *asJSON, out); err != nil {
			fmt.Fprintln(out, errorStyle.Render(api.Detail(err, "query failed")))
		}
	}
}

// runOneQuery sends a single direct query and prints the result.
func runOneQuery(client *api.Client, collection, question string, asJSON bool, out io.Writer) error {
	resp, err := client.Query(context.Background(), api.QueryRequest{
		Query:          question,
		CollectionName: collection,
	})
	if err != nil {
		return err
	}

	if asJSON {
		result := jsonResult{Answer: resp.Answer, Sources: []jsonSource{}}
		for _, src := range resp.Sources {
			result.Sources = append(result.Sources, jsonSource{Origin: src.Origin(), Score: src.Score})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprint(out, renderMarkdown(resp.Answer))
	if len(resp.Sources) > 0 {
		fmt.Fprintln(out, sourceLabelStyle.Render("Sources"))
		for i, src := range resp.Sources {
			fmt.Fprintf(out, "  %d. %s %s\n", i+1, src.Origin(),
				sourceMetaStyle.Render(fmt.Sprintf("(score %.3f)", src.Score)))
		}
	}
	return nil
}
