// Schema discovery commands: probe which tables the API token can see
// and audit field presence within a table.
package main

import (
	"fmt"
	"strings"

	"github.com/scylladb/termtables"
	"github.com/spf13/cobra"

	"github.com/BaliLove/chat-langchain-sub001/internal/audit"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the platform's data schema",
}

var schemaDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Probe candidate tables and report what is accessible",
	RunE:  runSchemaDiscover,
}

var schemaFieldsCmd = &cobra.Command{
	Use:   "fields <table>",
	Short: "Report field presence for a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchemaFields,
}

// fieldSampleSize caps how many records the fields audit pulls.
var fieldSampleSize int

func init() {
	schemaFieldsCmd.Flags().IntVar(&fieldSampleSize, "sample", 500, "max records to sample")
	schemaCmd.AddCommand(schemaDiscoverCmd)
	schemaCmd.AddCommand(schemaFieldsCmd)
}

func runSchemaDiscover(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newBubbleClient()
	if err != nil {
		return err
	}

	tables, err := client.DiscoverTables(ctx, cfg.Bubble.Tables)
	if err != nil {
		return fmt.Errorf("schema discovery failed: %w", err)
	}
	if len(tables) == 0 {
		fmt.Println("No accessible tables found.")
		return nil
	}

	view := termtables.CreateTable()
	view.AddHeaders("Table", "Records (est.)", "Sample fields")
	for _, t := range tables {
		fields := strings.Join(t.SampleFields, ", ")
		if len(fields) > 60 {
			fields = fields[:57] + "..."
		}
		view.AddRow(t.Name, t.RecordEstimate, fields)
	}
	fmt.Print(view.Render())
	return nil
}

func runSchemaFields(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newBubbleClient()
	if err != nil {
		return err
	}

	table := args[0]
	records, err := client.FetchSample(ctx, table, fieldSampleSize)
	if err != nil {
		return err
	}

	fmt.Print(audit.BuildFieldReport(table, records).Render())
	return nil
}
