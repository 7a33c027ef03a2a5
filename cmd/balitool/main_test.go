package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BaliLove/chat-langchain-sub001/internal/bubble"
)

func TestCommandRegistration(t *testing.T) {
	expected := []string{"schema", "ingest", "search", "audit", "sync", "prompts", "stats"}
	registered := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "command %q not registered", name)
	}
}

func TestSchemaSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range schemaCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["discover"])
	assert.True(t, names["fields"])
}

func TestFirstTextProbesFieldVariants(t *testing.T) {
	rec := bubble.Record{Fields: map[string]interface{}{
		"email_text": "ayu@bali.love",
		"role":       "",
	}}
	assert.Equal(t, "ayu@bali.love", firstText(rec, emailFields))
	assert.Equal(t, "", firstText(rec, roleFields))

	team := bubble.Record{Fields: map[string]interface{}{
		"pages_list_text": []interface{}{"events", "venues"},
	}}
	assert.Equal(t, []string{"events", "venues"}, firstStrings(team, pagesFields))
}
