// User/team permission sync from the platform into the relational store.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaliLove/chat-langchain-sub001/internal/bubble"
	"github.com/BaliLove/chat-langchain-sub001/internal/permdb"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync platform records into the permissions database",
}

var syncTeamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Sync user/team memberships and page allow-lists",
	RunE:  runSyncTeams,
}

func init() {
	syncCmd.AddCommand(syncTeamsCmd)
}

// Field names vary between Bubble apps; probe the usual suspects.
var (
	emailFields    = []string{"email", "email_text", "user_email"}
	teamRefFields  = []string{"team", "team_custom_team", "team_text"}
	roleFields     = []string{"role", "role_text", "role_option_role"}
	teamNameFields = []string{"name", "name_text", "team_name"}
	pagesFields    = []string{"allowed_pages", "allowed_pages_list_text", "pages_list_text"}
)

func firstText(rec bubble.Record, keys []string) string {
	for _, k := range keys {
		if v := rec.Text(k); v != "" {
			return v
		}
	}
	return ""
}

func firstStrings(rec bubble.Record, keys []string) []string {
	for _, k := range keys {
		if v := rec.Strings(k); len(v) > 0 {
			return v
		}
	}
	return nil
}

func runSyncTeams(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newBubbleClient()
	if err != nil {
		return err
	}
	store, err := openPermDB()
	if err != nil {
		return err
	}
	defer store.Close()

	teams, err := client.FetchAll(ctx, "team")
	if err != nil {
		return fmt.Errorf("failed to fetch teams: %w", err)
	}
	teamNames := map[string]string{}
	for _, team := range teams {
		teamNames[team.ID] = firstText(team, teamNameFields)
	}

	users, err := client.FetchAll(ctx, "user")
	if err != nil {
		return fmt.Errorf("failed to fetch users: %w", err)
	}

	var snapshot []permdb.User
	skipped := 0
	for _, u := range users {
		email := firstText(u, emailFields)
		if email == "" {
			skipped++
			continue
		}
		teamID := firstText(u, teamRefFields)
		snapshot = append(snapshot, permdb.User{
			Email:    email,
			TeamID:   teamID,
			TeamName: teamNames[teamID],
			Role:     firstText(u, roleFields),
		})
	}
	if skipped > 0 {
		logger.Warn("users without email skipped", zap.Int("count", skipped))
	}

	result, err := store.SyncUsers(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("user sync failed: %w", err)
	}

	for _, team := range teams {
		pages := firstStrings(team, pagesFields)
		if len(pages) == 0 {
			continue
		}
		if err := store.SetAllowedPages(ctx, team.ID, pages); err != nil {
			return fmt.Errorf("failed to set allowed pages for %s: %w", team.ID, err)
		}
	}

	fmt.Printf("Synced %d users across %d teams.\n", len(snapshot), len(teams))
	printDiff("added", result.Added)
	printDiff("updated", result.Updated)
	printDiff("removed", result.Removed)
	return nil
}

func printDiff(label string, emails []string) {
	if len(emails) == 0 {
		return
	}
	fmt.Printf("%s (%d):\n", label, len(emails))
	for _, e := range emails {
		fmt.Printf("  %s\n", e)
	}
}
