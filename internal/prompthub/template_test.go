package prompthub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, file, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "qa.yaml", `
name: qa_answer
description: Answer guest questions from retrieved context.
tags: [chat]
model: gpt-4o
text: |
  Answer using only the context below.
  {context}
  Question: {question}
`)
	writeTemplate(t, dir, "condense.yml", `
name: condense_question
text: "Rewrite {question} as a standalone question."
`)
	writeTemplate(t, dir, "README.md", "not a template")

	templates, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, templates, 2)

	// Sorted by name.
	assert.Equal(t, "condense_question", templates[0].Name)
	assert.Equal(t, "qa_answer", templates[1].Name)
	assert.Equal(t, []string{"chat"}, templates[1].Tags)
	assert.Contains(t, templates[1].Text, "{context}")
	assert.NotEmpty(t, templates[0].SourceFile)
}

func TestLoadDirRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.yaml", "name: same\ntext: one")
	writeTemplate(t, dir, "b.yaml", "name: same\ntext: two")

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate template name")
}

func TestLoadDirRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "bad.yaml", "description: no name or text")
	_, err := LoadDir(dir)
	assert.Error(t, err)
}

func TestHashVersionsBodyNotDescription(t *testing.T) {
	a := Template{Name: "qa", Model: "gpt-4o", Text: "body", Description: "one"}
	b := Template{Name: "qa", Model: "gpt-4o", Text: "body", Description: "two"}
	c := Template{Name: "qa", Model: "gpt-4o", Text: "changed"}

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}
