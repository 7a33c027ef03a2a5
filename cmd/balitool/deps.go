package main

import (
	"context"
	"fmt"

	"github.com/BaliLove/chat-langchain-sub001/internal/bubble"
	"github.com/BaliLove/chat-langchain-sub001/internal/embedding"
	"github.com/BaliLove/chat-langchain-sub001/internal/index"
	"github.com/BaliLove/chat-langchain-sub001/internal/permdb"
	"github.com/BaliLove/chat-langchain-sub001/internal/privacy"
	"github.com/BaliLove/chat-langchain-sub001/internal/prompthub"
	"github.com/BaliLove/chat-langchain-sub001/internal/taxonomy"
)

// commandContext derives the context every command runs under.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// newBubbleClient builds the platform API client from config.
func newBubbleClient() (*bubble.Client, error) {
	if cfg.Bubble.APIToken == "" {
		return nil, fmt.Errorf("no Bubble API token; set BUBBLE_API_TOKEN")
	}
	return bubble.NewClient(cfg.Bubble.BaseURL, cfg.Bubble.APIToken,
		bubble.WithPageSize(cfg.Bubble.PageSize),
		bubble.WithLogger(logger.Named("bubble")),
	), nil
}

// openIndex opens the vector index from config.
func openIndex() (*index.Index, error) {
	return index.Open(cfg.Index.DatabasePath, logger.Named("index"))
}

// openPermDB opens the permissions store from config.
func openPermDB() (*permdb.Store, error) {
	return permdb.Open(cfg.Permissions.DatabasePath, logger.Named("permdb"))
}

// newEngine builds the embedding engine from config.
func newEngine() (embedding.Engine, error) {
	return embedding.NewEngine(cfg.Embedding)
}

// newScanner builds the privacy scanner with config extensions.
func newScanner() *privacy.Scanner {
	return privacy.NewDefaultScanner(
		cfg.Privacy.BlockKeywords,
		cfg.Privacy.RedactKeywords,
		cfg.Privacy.WarnKeywords,
	)
}

// newMapper builds the taxonomy mapper from the configured ID table.
func newMapper() *taxonomy.Mapper {
	return taxonomy.NewMapper(cfg.CategoryMap)
}

// newHubClient builds the prompt service client from config.
func newHubClient() (*prompthub.Client, error) {
	if cfg.PromptHub.BaseURL == "" {
		return nil, fmt.Errorf("no prompt service URL; set PROMPTHUB_URL")
	}
	if cfg.PromptHub.APIKey == "" {
		return nil, fmt.Errorf("no prompt service key; set PROMPTHUB_API_KEY")
	}
	return prompthub.NewClient(cfg.PromptHub.BaseURL, cfg.PromptHub.APIKey,
		prompthub.WithLogger(logger.Named("prompthub"))), nil
}
