// Package audit builds the data-quality reports: privacy leakage in
// the search index, category coverage against the taxonomy, and field
// presence per platform table.
package audit

import (
	"context"
	"fmt"
	"sort"

	"github.com/scylladb/termtables"

	"github.com/BaliLove/chat-langchain-sub001/internal/bubble"
	"github.com/BaliLove/chat-langchain-sub001/internal/index"
	"github.com/BaliLove/chat-langchain-sub001/internal/privacy"
	"github.com/BaliLove/chat-langchain-sub001/internal/taxonomy"
)

// Leak is one privacy finding against an indexed document.
type Leak struct {
	SourceID    string
	SourceTable string
	Rule        string
	Severity    privacy.Severity
}

// PrivacyReport lists indexed documents that trip privacy rules.
// Anything at block severity is a leak: it should have been filtered
// before it reached the index.
type PrivacyReport struct {
	Scanned int
	Leaks   []Leak
}

// LeakCount returns the number of block-severity findings.
func (r *PrivacyReport) LeakCount() int {
	n := 0
	for _, l := range r.Leaks {
		if l.Severity == privacy.SeverityBlock {
			n++
		}
	}
	return n
}

// ScanPrivacy runs the privacy rules over every indexed document.
func ScanPrivacy(ctx context.Context, ix *index.Index, scanner *privacy.Scanner) (*PrivacyReport, error) {
	report := &PrivacyReport{}
	err := ix.All(ctx, func(doc index.Document) error {
		report.Scanned++
		for _, f := range scanner.Scan(doc.Content) {
			report.Leaks = append(report.Leaks, Leak{
				SourceID:    doc.SourceID,
				SourceTable: doc.SourceTable,
				Rule:        f.Rule,
				Severity:    f.Severity,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("privacy scan failed: %w", err)
	}
	return report, nil
}

// Render prints the report as a table, worst findings first.
func (r *PrivacyReport) Render() string {
	sorted := make([]Leak, len(r.Leaks))
	copy(sorted, r.Leaks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity > sorted[j].Severity
	})

	view := termtables.CreateTable()
	view.AddHeaders("Severity", "Rule", "Table", "Source ID")
	for _, l := range sorted {
		view.AddRow(l.Severity.String(), l.Rule, l.SourceTable, l.SourceID)
	}
	summary := fmt.Sprintf("scanned %d documents, %d findings (%d blocking)\n",
		r.Scanned, len(r.Leaks), r.LeakCount())
	return summary + view.Render()
}

// CoverageReport summarizes category mapping over the index.
type CoverageReport struct {
	Coverage *taxonomy.Coverage
}

// ScanCoverage rebuilds coverage from indexed documents using the
// match kind and record ID the ingest pipeline stored in metadata.
// Documents with an unknown category or kind count as fallback, and
// unmapped IDs are the opaque platform record IDs.
func ScanCoverage(ctx context.Context, ix *index.Index) (*CoverageReport, error) {
	cov := taxonomy.NewCoverage()
	err := ix.All(ctx, func(doc index.Document) error {
		id := doc.Metadata["record_id"]
		if id == "" {
			id = doc.SourceID
		}
		cat := taxonomy.CategoryGeneral
		if taxonomy.Valid(doc.Category) {
			cat = taxonomy.Category(doc.Category)
		}
		kind := taxonomy.MatchKind(doc.Metadata["match_kind"])
		switch kind {
		case taxonomy.MatchTable, taxonomy.MatchKeyword:
		default:
			kind = taxonomy.MatchFallback
		}
		cov.Observe(id, cat, kind)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("coverage scan failed: %w", err)
	}
	return &CoverageReport{Coverage: cov}, nil
}

// Render prints per-category counts and the unmapped ID list.
func (r *CoverageReport) Render() string {
	total := r.Coverage.Total()

	view := termtables.CreateTable()
	view.AddHeaders("Category", "Documents", "Share")
	for _, cat := range taxonomy.All() {
		n := r.Coverage.Count(cat)
		share := 0.0
		if total > 0 {
			share = float64(n) / float64(total) * 100
		}
		view.AddRow(string(cat), n, fmt.Sprintf("%.1f%%", share))
	}

	out := view.Render()
	if ids := r.Coverage.UnmappedIDs(); len(ids) > 0 {
		out += fmt.Sprintf("unmapped source IDs (%d):\n", len(ids))
		for _, id := range ids {
			out += "  " + id + "\n"
		}
	}
	return out
}

// FieldReport is the field-presence audit for one table.
type FieldReport struct {
	Table    string
	Records  int
	Presence map[string]float64
}

// BuildFieldReport computes field presence over a record sample.
func BuildFieldReport(table string, records []bubble.Record) *FieldReport {
	return &FieldReport{
		Table:    table,
		Records:  len(records),
		Presence: bubble.FieldPresence(records),
	}
}

// Render prints fields sorted by descending presence.
func (r *FieldReport) Render() string {
	type entry struct {
		name  string
		ratio float64
	}
	entries := make([]entry, 0, len(r.Presence))
	for name, ratio := range r.Presence {
		entries = append(entries, entry{name, ratio})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ratio != entries[j].ratio {
			return entries[i].ratio > entries[j].ratio
		}
		return entries[i].name < entries[j].name
	})

	view := termtables.CreateTable()
	view.AddHeaders("Field", "Present")
	for _, e := range entries {
		view.AddRow(e.name, fmt.Sprintf("%.0f%%", e.ratio*100))
	}
	return fmt.Sprintf("table %s, %d records sampled\n", r.Table, r.Records) + view.Render()
}
