package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapPrefersLookupTable(t *testing.T) {
	m := NewMapper(map[string]string{
		"1608112425402x100": "venue",
	})

	// Text screams "wedding" but the table entry wins.
	cat, kind := m.Map("1608112425402x100", "wedding ceremony at the chapel")
	assert.Equal(t, CategoryVenue, cat)
	assert.Equal(t, MatchTable, kind)
}

func TestMapKeywordFallback(t *testing.T) {
	m := NewMapper(nil)

	tests := []struct {
		text string
		want Category
	}{
		{"guest complaint about late refund", CategoryIssue},
		{"villa with ocean view, capacity 150", CategoryVenue},
		{"new staff onboarding quiz results", CategoryTraining},
		{"standard operating procedure for setup", CategorySOP},
		{"WhatsApp inquiry from a planner", CategoryMessage},
		{"sunset ceremony timeline", CategoryEvent},
		{"coordinator roster for May", CategoryTeam},
	}
	for _, tt := range tests {
		cat, kind := m.Map("some-id", tt.text)
		assert.Equal(t, tt.want, cat, tt.text)
		assert.Equal(t, MatchKeyword, kind, tt.text)
	}
}

func TestMapFallbackIsTotal(t *testing.T) {
	m := NewMapper(nil)
	cat, kind := m.Map("1608112425402x999", "zzz qqq unrelated")
	assert.Equal(t, CategoryGeneral, cat)
	assert.Equal(t, MatchFallback, kind)
}

func TestNewMapperDropsUnknownCategories(t *testing.T) {
	m := NewMapper(map[string]string{
		"a": "venue",
		"b": "spaceship",
	})
	assert.Equal(t, 1, m.TableSize())
}

func TestCoverage(t *testing.T) {
	cov := NewCoverage()
	cov.Observe("id1", CategoryEvent, MatchTable)
	cov.Observe("id2", CategoryEvent, MatchKeyword)
	cov.Observe("id3", CategoryGeneral, MatchFallback)
	cov.Observe("id3", CategoryGeneral, MatchFallback) // duplicate ID
	cov.Observe("id4", CategoryGeneral, MatchFallback)

	assert.Equal(t, 5, cov.Total())
	assert.Equal(t, 2, cov.Count(CategoryEvent))
	assert.Equal(t, 3, cov.Count(CategoryGeneral))
	assert.Equal(t, 1, cov.KindCount(MatchTable))
	assert.Equal(t, 3, cov.KindCount(MatchFallback))
	assert.Equal(t, []string{"id3", "id4"}, cov.UnmappedIDs())
}
