// balitool moves data between the Bubble application platform, the
// vector search index behind the chat assistant, and the relational
// permissions database, and audits what landed where.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaliLove/chat-langchain-sub001/internal/config"
	"github.com/BaliLove/chat-langchain-sub001/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	timeout    time.Duration

	// Shared state built in PersistentPreRunE
	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "balitool",
	Short: "Data plumbing for the Bali Love chat assistant",
	Long: `balitool keeps the chat assistant's data honest.

It reads application tables from the Bubble Data API, maps records onto
the content taxonomy, filters privacy-sensitive content, and maintains
the vector search index used for retrieval-augmented answering. It also
syncs user/team permissions into the relational store and publishes
prompt templates to the prompt-management service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return err
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config YAML (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall command timeout")

	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
