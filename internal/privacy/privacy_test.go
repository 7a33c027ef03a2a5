package privacy

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFindsEmailAndPhone(t *testing.T) {
	s := NewScanner(DefaultRules())
	text := "Contact puspa@bali.love or +62 813 5551 2345 for the walkthrough."

	findings := s.Scan(text)
	require.Len(t, findings, 2)
	assert.Equal(t, "email_address", findings[0].Rule)
	assert.Equal(t, "puspa@bali.love", findings[0].Match)
	assert.Equal(t, "phone_number", findings[1].Rule)
}

func TestScanKeywordCaseInsensitive(t *testing.T) {
	s := NewScanner(DefaultRules())
	findings := s.Scan("This pricing sheet is INTERNAL ONLY, please.")
	require.Len(t, findings, 1)
	assert.Equal(t, "internal_note", findings[0].Rule)
	assert.Equal(t, SeverityBlock, findings[0].Severity)
	assert.Equal(t, "INTERNAL ONLY", findings[0].Match)
}

func TestApplyBlockNeverReturnsText(t *testing.T) {
	s := NewScanner(DefaultRules())
	decision, text, findings := s.Apply("Supplier rebate of 12% plus commission details attached.")
	assert.Equal(t, DecisionBlock, decision)
	assert.Empty(t, text)
	assert.NotEmpty(t, findings)
}

func TestApplyRedactStripsSpans(t *testing.T) {
	s := NewScanner(DefaultRules())
	in := "Planner: dewa@example.com, backup phone 0812-555-0199 noted."

	decision, out, findings := s.Apply(in)
	assert.Equal(t, DecisionRedact, decision)
	assert.Equal(t, SeverityRedact, Max(findings))

	assert.NotContains(t, out, "dewa@example.com")
	assert.NotContains(t, out, "0812-555-0199")
	assert.Equal(t, 2, strings.Count(out, "[redacted]"))
	assert.Contains(t, out, "Planner: ")
	assert.Contains(t, out, " noted.")
}

func TestKeywordOffsetsSurviveMultibyteRunes(t *testing.T) {
	// strings.ToLower can change a string's byte length ("İ" lowers
	// from two bytes to one), so finding offsets must come from the
	// original text.
	s := NewDefaultScanner(nil, []string{"secret123"}, nil)
	in := "İİİİ secret123 tail"

	findings := s.Scan(in)
	require.Len(t, findings, 1)
	assert.Equal(t, "secret123", findings[0].Match)
	assert.Equal(t, "secret123", in[findings[0].Start:findings[0].End])

	decision, out, _ := s.Apply(in)
	assert.Equal(t, DecisionRedact, decision)
	assert.True(t, utf8.ValidString(out))
	assert.NotContains(t, out, "secret123")
	assert.NotContains(t, out, "t123")
	assert.Equal(t, "İİİİ [redacted] tail", out)
}

func TestApplyMergesOverlappingRedactSpans(t *testing.T) {
	// Phone span [0,10) and email span [9,16) overlap; the email's
	// tail must not survive redaction.
	s := NewScanner(DefaultRules())
	decision, out, findings := s.Apply("12345678 9a@b.co end")

	assert.Equal(t, DecisionRedact, decision)
	require.Len(t, findings, 2)
	assert.Equal(t, "[redacted] end", out)
	assert.NotContains(t, out, "a@b.co")
	assert.Equal(t, 1, strings.Count(out, "[redacted]"))
}

func TestApplyAllowPassesThrough(t *testing.T) {
	s := NewScanner(DefaultRules())
	in := "The ceremony starts at five, sharp."
	decision, out, findings := s.Apply(in)
	assert.Equal(t, DecisionAllow, decision)
	assert.Equal(t, in, out)
	assert.Empty(t, findings)
}

func TestWarnDoesNotGate(t *testing.T) {
	s := NewScanner(DefaultRules())
	decision, out, findings := s.Apply("Discussed salary review for the setup crew.")
	assert.Equal(t, DecisionAllow, decision)
	assert.Contains(t, out, "salary")
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityWarn, findings[0].Severity)
}

func TestEmptyRuleSetBlocksNothing(t *testing.T) {
	s := NewScanner(nil)
	decision, out, findings := s.Apply("commission internal only passport number")
	assert.Equal(t, DecisionAllow, decision)
	assert.NotEmpty(t, out)
	assert.Empty(t, findings)
}

func TestConfigExtensions(t *testing.T) {
	s := NewDefaultScanner([]string{"villa owner payout"}, nil, []string{"banjar fee"})

	decision, _, _ := s.Apply("Pending villa owner payout for Q3.")
	assert.Equal(t, DecisionBlock, decision)

	decision, _, findings := s.Apply("Add the banjar fee to the quote.")
	assert.Equal(t, DecisionAllow, decision)
	require.Len(t, findings, 1)
	assert.Equal(t, "config_warn", findings[0].Rule)
}
