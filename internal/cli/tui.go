package cli

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docqa/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [file]",
	Short: "Ingest a document and ask questions interactively",
	Long: `Ingests the document, then opens a terminal UI for questions.

Controls:
  Enter    - Ask
  ↑/↓      - Cycle through retrieved sources
  Esc      - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, log, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, log)

	ctx := commandContext(cmd)
	res, err := a.Service.Ingest(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	m := tui.New(ctx, a.Service, filepath.Base(res.Source), res.Summary)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}
