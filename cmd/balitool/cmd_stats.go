package main

import (
	"fmt"
	"sort"

	"github.com/scylladb/termtables"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index and permissions database statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	ix, err := openIndex()
	if err != nil {
		return err
	}
	defer ix.Close()

	stats, err := ix.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Index: %d documents\n", stats.Total)
	view := termtables.CreateTable()
	view.AddHeaders("Table", "Category", "Documents")
	for _, table := range sortedKeys(stats.ByTable) {
		view.AddRow(table, "", stats.ByTable[table])
	}
	for _, cat := range sortedKeys(stats.ByCategory) {
		view.AddRow("", cat, stats.ByCategory[cat])
	}
	fmt.Print(view.Render())

	store, err := openPermDB()
	if err != nil {
		return err
	}
	defer store.Close()

	pstats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Permissions DB: %d users, %d allowed pages, %d cached prompts\n",
		pstats["user_teams"], pstats["allowed_pages"], pstats["prompt_cache"])
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
