package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BaliLove/chat-langchain-sub001/internal/embedding"
	"github.com/BaliLove/chat-langchain-sub001/internal/index"
)

var (
	searchTable    string
	searchCategory string
	searchTopK     int
	searchKeyword  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Similarity-search the vector index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchTable, "table", "", "restrict to a source table")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "restrict to a category")
	searchCmd.Flags().IntVarP(&searchTopK, "top", "k", 5, "number of results")
	searchCmd.Flags().BoolVar(&searchKeyword, "keyword", false, "keyword match instead of similarity search")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	ix, err := openIndex()
	if err != nil {
		return err
	}
	defer ix.Close()

	query := strings.Join(args, " ")
	filter := index.Filter{SourceTable: searchTable, Category: searchCategory}

	var hits []index.Document
	if searchKeyword {
		hits, err = ix.KeywordSearch(ctx, query, filter, searchTopK)
	} else {
		var engine embedding.Engine
		engine, err = newEngine()
		if err != nil {
			return err
		}
		var vector []float32
		vector, err = engine.Embed(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to embed query: %w", err)
		}
		hits, err = ix.Query(ctx, vector, filter, searchTopK)
	}
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, hit := range hits {
		content := hit.Content
		if len(content) > 200 {
			content = content[:197] + "..."
		}
		fmt.Printf("%2d. [%.3f] %s (%s/%s)\n    %s\n",
			i+1, hit.Similarity, hit.SourceID, hit.SourceTable, hit.Category,
			strings.ReplaceAll(content, "\n", " "))
	}
	return nil
}
