package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/ghostmail/internal/app"
	"github.com/nhle/ghostmail/internal/model"
)

// runTUI runs the interactive client. Log output goes to
// ~/.config/ghostmail/ghostmail.log while the terminal is taken over.
func runTUI(ctx context.Context, _ *cobra.Command, env *Env, _ []string) error {
	dir := model.ConfigDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := tea.LogToFile(filepath.Join(dir, "ghostmail.log"), "ghostmail")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	m := app.New(app.Deps{
		Session: env.Session,
		Inbox:   env.Inbox,
		Poller:  env.Poller,
		AI:      env.AI,
		Store:   env.Store,
		SaveDir: env.SaveDir,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
