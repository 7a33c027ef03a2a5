// Package privacy flags records before they reach the search index.
// Rules are data: regular-expression patterns for personal data and
// keyword sets for business-sensitive vocabulary, each carrying a
// severity that decides whether a document is blocked, redacted or
// merely reported.
package privacy

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Severity orders privacy findings by how they gate indexing.
type Severity int

const (
	// SeverityWarn: index the document but report the finding.
	SeverityWarn Severity = iota
	// SeverityRedact: strip the matched spans, index the remainder.
	SeverityRedact
	// SeverityBlock: the document must never reach the index.
	SeverityBlock
)

// String implements fmt.Stringer for reports.
func (s Severity) String() string {
	switch s {
	case SeverityBlock:
		return "block"
	case SeverityRedact:
		return "redact"
	default:
		return "warn"
	}
}

// Decision is the outcome of applying the rules to one document.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionRedact
	DecisionBlock
)

// Finding is one rule hit inside a document.
type Finding struct {
	Rule     string
	Severity Severity
	// Match is the offending text span. Block-severity matches keep
	// the span for diagnostics; it never leaves the report layer.
	Match string
	Start int
	End   int
}

// Rule matches a class of sensitive content.
type Rule struct {
	Name     string
	Severity Severity
	// Exactly one of Pattern or Keywords is set.
	Pattern  *regexp.Regexp
	Keywords []string
}

// redactionMark replaces redacted spans.
const redactionMark = "[redacted]"

// DefaultRules returns the built-in rule set: personal contact data is
// redacted, financial/internal vocabulary blocks, staffing chatter is
// reported only.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "email_address",
			Severity: SeverityRedact,
			Pattern:  regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		},
		{
			Name:     "phone_number",
			Severity: SeverityRedact,
			Pattern:  regexp.MustCompile(`\+?\d[\d\s\-().]{7,}\d`),
		},
		{
			Name:     "commission_terms",
			Severity: SeverityBlock,
			Keywords: []string{"commission", "kickback", "margin split", "supplier rebate"},
		},
		{
			Name:     "internal_note",
			Severity: SeverityBlock,
			Keywords: []string{"internal only", "do not share", "confidential"},
		},
		{
			Name:     "guest_personal",
			Severity: SeverityBlock,
			Keywords: []string{"passport number", "credit card", "bank account"},
		},
		{
			Name:     "staffing_chatter",
			Severity: SeverityWarn,
			Keywords: []string{"salary", "resignation", "terminated"},
		},
	}
}

// Scanner applies a rule set to document text.
type Scanner struct {
	rules []Rule
}

// NewScanner builds a scanner over rules. With no rules nothing is
// flagged.
func NewScanner(rules []Rule) *Scanner {
	return &Scanner{rules: rules}
}

// NewDefaultScanner builds a scanner over DefaultRules plus optional
// keyword extensions.
func NewDefaultScanner(block, redact, warn []string) *Scanner {
	rules := DefaultRules()
	if len(block) > 0 {
		rules = append(rules, Rule{Name: "config_block", Severity: SeverityBlock, Keywords: block})
	}
	if len(redact) > 0 {
		rules = append(rules, Rule{Name: "config_redact", Severity: SeverityRedact, Keywords: redact})
	}
	if len(warn) > 0 {
		rules = append(rules, Rule{Name: "config_warn", Severity: SeverityWarn, Keywords: warn})
	}
	return NewScanner(rules)
}

// foldPrefixLen returns the byte length of the prefix of s that
// case-folds to kw, or -1 when s does not start with kw. Matching
// rune by rune keeps offsets valid for the original string, which
// strings.ToLower does not guarantee (some runes change byte length
// when lowered).
func foldPrefixLen(s, kw string) int {
	n := 0
	for _, kr := range kw {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 {
			return -1
		}
		if unicode.ToLower(r) != unicode.ToLower(kr) {
			return -1
		}
		n += size
	}
	return n
}

// Scan returns every rule hit in text, ordered by position. Keyword
// matching is case-insensitive.
func (s *Scanner) Scan(text string) []Finding {
	var findings []Finding

	for _, rule := range s.rules {
		if rule.Pattern != nil {
			for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
				findings = append(findings, Finding{
					Rule:     rule.Name,
					Severity: rule.Severity,
					Match:    text[loc[0]:loc[1]],
					Start:    loc[0],
					End:      loc[1],
				})
			}
			continue
		}
		for _, kw := range rule.Keywords {
			if kw == "" {
				continue
			}
			for i := 0; i < len(text); {
				if n := foldPrefixLen(text[i:], kw); n > 0 {
					findings = append(findings, Finding{
						Rule:     rule.Name,
						Severity: rule.Severity,
						Match:    text[i : i+n],
						Start:    i,
						End:      i + n,
					})
					i += n
					continue
				}
				_, size := utf8.DecodeRuneInString(text[i:])
				i += size
			}
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Start != findings[j].Start {
			return findings[i].Start < findings[j].Start
		}
		return findings[i].Severity > findings[j].Severity
	})
	return findings
}

// Apply scans text and resolves the indexing decision. For
// DecisionRedact the returned string has every redact-severity span
// replaced with a marker; for DecisionBlock the returned string is
// empty so flagged content cannot leak through a careless caller.
func (s *Scanner) Apply(text string) (Decision, string, []Finding) {
	findings := s.Scan(text)

	decision := DecisionAllow
	for _, f := range findings {
		switch f.Severity {
		case SeverityBlock:
			return DecisionBlock, "", findings
		case SeverityRedact:
			decision = DecisionRedact
		}
	}
	if decision == DecisionAllow {
		return DecisionAllow, text, findings
	}

	// Rebuild the text without the redacted spans. Findings are
	// position-ordered; spans that overlap a span already replaced
	// merge into its marker instead of leaking their tail.
	var b strings.Builder
	last := 0
	for _, f := range findings {
		if f.Severity != SeverityRedact || f.End <= last {
			continue
		}
		if f.Start < last {
			last = f.End
			continue
		}
		b.WriteString(text[last:f.Start])
		b.WriteString(redactionMark)
		last = f.End
	}
	b.WriteString(text[last:])
	return DecisionRedact, b.String(), findings
}

// Max returns the highest severity among findings, SeverityWarn when
// empty.
func Max(findings []Finding) Severity {
	max := SeverityWarn
	for _, f := range findings {
		if f.Severity > max {
			max = f.Severity
		}
	}
	return max
}
