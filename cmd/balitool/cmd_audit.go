// Data-quality audits over the vector index.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BaliLove/chat-langchain-sub001/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run data-quality audits against the index",
}

var auditPrivacyCmd = &cobra.Command{
	Use:   "privacy",
	Short: "Scan indexed documents for privacy leakage",
	Long: `Re-applies the privacy rules to everything already in the index.
Any block-severity finding is a leak: the record should have been
filtered during ingestion. Exits non-zero when leaks are found so the
audit can gate automation.`,
	RunE: runAuditPrivacy,
}

var auditCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Report taxonomy coverage of indexed documents",
	RunE:  runAuditCategories,
}

func init() {
	auditCmd.AddCommand(auditPrivacyCmd)
	auditCmd.AddCommand(auditCategoriesCmd)
}

func runAuditPrivacy(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	ix, err := openIndex()
	if err != nil {
		return err
	}
	defer ix.Close()

	report, err := audit.ScanPrivacy(ctx, ix, newScanner())
	if err != nil {
		return err
	}
	fmt.Print(report.Render())

	if n := report.LeakCount(); n > 0 {
		return fmt.Errorf("%d blocking privacy findings in the index", n)
	}
	return nil
}

func runAuditCategories(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	ix, err := openIndex()
	if err != nil {
		return err
	}
	defer ix.Close()

	report, err := audit.ScanCoverage(ctx, ix)
	if err != nil {
		return err
	}
	fmt.Print(report.Render())
	return nil
}
