// Prompt template publishing commands.
package main

import (
	"fmt"

	"github.com/scylladb/termtables"
	"github.com/spf13/cobra"

	"github.com/BaliLove/chat-langchain-sub001/internal/prompthub"
)

var promptsMessage string

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage prompt templates in the prompt service",
}

var promptsPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push changed local templates to the service",
	Long: `Loads YAML templates from the configured template directory and
uploads any whose content hash differs from the service's copy.
Unchanged templates are skipped, so repeated pushes are idempotent.`,
	RunE: runPromptsPush,
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates known to the service",
	RunE:  runPromptsList,
}

func init() {
	promptsPushCmd.Flags().StringVarP(&promptsMessage, "message", "m", "", "commit message for the push")
	promptsCmd.AddCommand(promptsPushCmd)
	promptsCmd.AddCommand(promptsListCmd)
}

func runPromptsPush(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	templates, err := prompthub.LoadDir(cfg.PromptHub.TemplateDir)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	if len(templates) == 0 {
		fmt.Printf("No templates under %s.\n", cfg.PromptHub.TemplateDir)
		return nil
	}

	client, err := newHubClient()
	if err != nil {
		return err
	}

	results, err := client.PushAll(ctx, templates, promptsMessage)
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	pushed := 0
	for _, r := range results {
		if r.Skipped {
			fmt.Printf("  %-30s unchanged\n", r.Name)
			continue
		}
		pushed++
		fmt.Printf("  %-30s -> v%d\n", r.Name, r.Version)
	}
	fmt.Printf("Pushed %d of %d templates.\n", pushed, len(templates))
	return nil
}

func runPromptsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newHubClient()
	if err != nil {
		return err
	}

	templates, err := client.List(ctx)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		fmt.Println("The service has no templates.")
		return nil
	}

	view := termtables.CreateTable()
	view.AddHeaders("Name", "Version", "Model", "Updated")
	for _, t := range templates {
		view.AddRow(t.Name, t.Version, t.Model, t.UpdatedAt)
	}
	fmt.Print(view.Render())
	return nil
}
