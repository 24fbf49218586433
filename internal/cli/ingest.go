package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/service"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Chunk a document and upload it to the search store",
	Long: `Splits the document into overlapping chunks and uploads each chunk as a
record whose id is its position. Re-ingesting the same document overwrites
its records. Failed uploads are reported and do not stop the rest.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, log, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, log)

	res, err := a.Service.Ingest(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printIngest(cmd, res)
	return nil
}

func printIngest(cmd *cobra.Command, res *service.IngestResult) {
	cmd.Printf("Indexed %s: %d chunks, %d uploaded, %d failed\n",
		res.Source, len(res.Chunks), res.Report.Succeeded(), res.Report.Failed())
	for _, f := range res.Report.Failures() {
		cmd.Printf("  record %s: %v\n", f.ID, f.Err)
	}
	if res.Summary != "" {
		cmd.Println()
		cmd.Println("Summary:", res.Summary)
	}
}
