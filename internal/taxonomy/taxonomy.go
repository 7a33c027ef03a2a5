// Package taxonomy maps platform records onto the fixed content
// taxonomy used by the retrieval index. Mapping is a two-step lookup:
// an explicit table from opaque platform IDs to categories, then a
// keyword heuristic over record text for anything the table misses.
// Mapping is total; records the heuristic cannot place land in
// CategoryGeneral and are surfaced by coverage reports.
package taxonomy

import (
	"sort"
	"strings"
)

// Category is one bucket of the fixed content taxonomy.
type Category string

const (
	CategoryEvent    Category = "event"
	CategoryVenue    Category = "venue"
	CategoryIssue    Category = "issue"
	CategoryMessage  Category = "message"
	CategoryTraining Category = "training"
	CategorySOP      Category = "sop"
	CategoryTeam     Category = "team"
	CategoryGeneral  Category = "general"
)

// All lists every category in report order.
func All() []Category {
	return []Category{
		CategoryEvent,
		CategoryVenue,
		CategoryIssue,
		CategoryMessage,
		CategoryTraining,
		CategorySOP,
		CategoryTeam,
		CategoryGeneral,
	}
}

// Valid reports whether s names a known category.
func Valid(s string) bool {
	for _, c := range All() {
		if string(c) == s {
			return true
		}
	}
	return false
}

// MatchKind records how a category was decided.
type MatchKind string

const (
	// MatchTable means the opaque ID was found in the lookup table.
	MatchTable MatchKind = "table"
	// MatchKeyword means the keyword heuristic decided.
	MatchKeyword MatchKind = "keyword"
	// MatchFallback means nothing matched and general was assigned.
	MatchFallback MatchKind = "fallback"
)

// keywordRules drive the fallback heuristic. First hit wins; rules are
// checked in this order so the more specific vocabularies come first.
var keywordRules = []struct {
	category Category
	keywords []string
}{
	{CategoryTraining, []string{"training", "onboarding", "quiz", "assessment", "certification"}},
	{CategorySOP, []string{"sop", "procedure", "checklist", "protocol", "standard operating"}},
	{CategoryIssue, []string{"issue", "complaint", "incident", "refund", "escalation"}},
	{CategoryVenue, []string{"venue", "villa", "chapel", "ballroom", "capacity", "banjar"}},
	{CategoryMessage, []string{"message", "whatsapp", "inquiry", "replied", "thread"}},
	{CategoryEvent, []string{"wedding", "ceremony", "reception", "event", "guest count", "celebrant"}},
	{CategoryTeam, []string{"team", "staff", "coordinator", "role", "department"}},
}

// Mapper decides the category for a record.
type Mapper struct {
	table map[string]Category
}

// NewMapper builds a Mapper from an ID lookup table. Entries with
// unknown category names are dropped; callers that care should
// validate beforehand with Valid.
func NewMapper(table map[string]string) *Mapper {
	m := &Mapper{table: make(map[string]Category, len(table))}
	for id, name := range table {
		if Valid(name) {
			m.table[id] = Category(name)
		}
	}
	return m
}

// Map returns the category for a record identified by its opaque ID,
// with text as the keyword-heuristic input. The result is always a
// valid category.
func (m *Mapper) Map(id, text string) (Category, MatchKind) {
	if c, ok := m.table[id]; ok {
		return c, MatchTable
	}
	lower := strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category, MatchKeyword
			}
		}
	}
	return CategoryGeneral, MatchFallback
}

// TableSize returns the number of usable lookup entries.
func (m *Mapper) TableSize() int {
	return len(m.table)
}

// Coverage accumulates mapping outcomes for a coverage report.
type Coverage struct {
	counts   map[Category]int
	kinds    map[MatchKind]int
	unmapped map[string]bool
}

// NewCoverage returns an empty accumulator.
func NewCoverage() *Coverage {
	return &Coverage{
		counts:   map[Category]int{},
		kinds:    map[MatchKind]int{},
		unmapped: map[string]bool{},
	}
}

// Observe records one mapping outcome. Fallback results remember the
// source ID so unmapped IDs can be listed.
func (c *Coverage) Observe(id string, cat Category, kind MatchKind) {
	c.counts[cat]++
	c.kinds[kind]++
	if kind == MatchFallback && id != "" {
		c.unmapped[id] = true
	}
}

// Count returns how many records landed in cat.
func (c *Coverage) Count(cat Category) int {
	return c.counts[cat]
}

// KindCount returns how many records were decided by kind.
func (c *Coverage) KindCount(kind MatchKind) int {
	return c.kinds[kind]
}

// Total returns the number of observed records.
func (c *Coverage) Total() int {
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}

// UnmappedIDs lists source IDs that fell through to general, sorted.
func (c *Coverage) UnmappedIDs() []string {
	ids := make([]string, 0, len(c.unmapped))
	for id := range c.unmapped {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
