// Package cli wires bear's single cobra command: launch the terminal UI
// against the current working directory.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sdslab-dev/bear/internal/agent"
	"github.com/sdslab-dev/bear/internal/config"
	"github.com/sdslab-dev/bear/internal/journal"
	"github.com/sdslab-dev/bear/internal/journal/index"
	"github.com/sdslab-dev/bear/internal/observability"
	"github.com/sdslab-dev/bear/internal/phase"
	"github.com/sdslab-dev/bear/internal/session"
	"github.com/sdslab-dev/bear/internal/ui"
)

// NewRootCommand builds the bear cobra command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bear",
		Short: "A terminal-native pipeline that drives an AI coding agent through spec, plan, and implementation phases.",
		RunE:  run,
	}
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("bear requires an interactive terminal")
	}

	workspace, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine workspace: %w", err)
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}

	opts, err := config.Load(workspace)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.Default()

	indexDB, err := index.Open(filepath.Join(workspace, ".bear", "index.sqlite"))
	if err != nil {
		// The session registry is a best-effort convenience index, never a
		// gate on pipeline progress: log and proceed without it.
		logger.Warning("open session index: %v", err)
		indexDB = nil
	} else {
		defer index.Close(indexDB)
	}

	// The session's real slug is only known once the user's request has
	// been captured and named (phase.Controller.NameSession); until then
	// the journal lives at a placeholder directory that gets renamed in
	// place.
	dateDir := session.DateBucket(time.Now())
	store, err := journal.Open(workspace, dateDir, "pending")
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	client, err := agent.New(agent.Config{APIKey: apiKey, WorkingDirectory: workspace})
	if err != nil {
		return fmt.Errorf("create agent client: %w", err)
	}

	controller := phase.New(client, store, workspace).WithLogger(logger)
	ctx := context.Background()
	model := ui.New(ctx, workspace, controller).WithOptions(opts)
	if indexDB != nil {
		controller = controller.WithIndex(indexDB)
		if recent, err := index.ListForWorkspace(indexDB, workspace); err != nil {
			logger.Warning("list recent sessions: %v", err)
		} else {
			model = model.WithRecentSessions(recent)
		}
	}

	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width, height = 80, 24
	}
	model = model.WithInitialSize(width, height)

	program := tea.NewProgram(model, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(ui.Model); ok && fm.FatalErr() != nil {
		return fm.FatalErr()
	}
	return nil
}
