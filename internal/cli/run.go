package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Ingest a document, then answer one question read from stdin",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
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
	printIngest(cmd, res)

	cmd.Print("\nEnter your question: ")
	question, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read question: %w", err)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return errors.New("no question given")
	}

	ans, err := a.Service.Ask(ctx, question)
	if err != nil {
		return err
	}
	cmd.Println()
	printAnswer(cmd, ans)
	return nil
}
