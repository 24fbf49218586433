package cli

import (
	"github.com/spf13/cobra"

	"docqa/internal/service"
)

var showSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from previously ingested documents",
	Long: `Retrieves the most relevant records for the question and asks the
language model to answer from them. Needs a persistent search store
(sqlite, postgres, redis or azure) populated by an earlier ingest.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&showSources, "sources", "s", false, "print the retrieved records after the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, log, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, log)

	ans, err := a.Service.Ask(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	printAnswer(cmd, ans)
	return nil
}

func printAnswer(cmd *cobra.Command, ans *service.Answer) {
	cmd.Println(ans.Text)
	if !showSources {
		return
	}
	cmd.Println()
	if len(ans.Sources) == 0 {
		cmd.Println("No matching records.")
		return
	}
	for _, s := range ans.Sources {
		cmd.Printf("[%d] id=%s source=%s score=%.3f\n", s.Rank, s.ID, s.Source, s.Score)
	}
}
