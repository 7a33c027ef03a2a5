package main

import (
	"fmt"

	"github.com/scylladb/termtables"
	"github.com/spf13/cobra"

	"github.com/BaliLove/chat-langchain-sub001/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <table>...",
	Short: "Fetch tables, filter them, and load the vector index",
	Long: `Runs the full ingestion pipeline for the named tables:

  fetch -> category mapping -> privacy filtering -> embed -> index

Records blocked by privacy rules never reach the index; redacted
records are indexed without the matched spans. Records whose content
is unchanged since the last run are skipped without re-embedding.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newBubbleClient()
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	ix, err := openIndex()
	if err != nil {
		return err
	}
	defer ix.Close()

	pipeline := ingest.New(client, newMapper(), newScanner(), engine, ix, logger.Named("ingest"))

	results, err := pipeline.RunAll(ctx, args)

	if len(results) > 0 {
		view := termtables.CreateTable()
		view.AddHeaders("Table", "Fetched", "Indexed", "Unchanged", "Redacted", "Blocked", "Warned")
		for _, r := range results {
			view.AddRow(r.Table, r.Fetched, r.Indexed, r.Unchanged, r.Redacted, r.Blocked, r.Warned)
		}
		fmt.Print(view.Render())
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}
