// Package prompthub publishes local YAML prompt templates to the
// prompt-management service. Templates are versioned by content hash so
// a push only uploads what actually changed.
package prompthub

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is one local prompt template.
type Template struct {
	// Name identifies the template in the service, e.g. "qa_answer".
	Name string `yaml:"name"`

	// Description shows up in the service UI.
	Description string `yaml:"description"`

	// Tags classify the template (chat, ingest, eval, ...).
	Tags []string `yaml:"tags"`

	// Model hints the intended model, informational only.
	Model string `yaml:"model"`

	// Text is the template body with {variable} placeholders.
	Text string `yaml:"text"`

	// SourceFile records where the template was loaded from.
	SourceFile string `yaml:"-"`
}

// Hash returns the content hash that versions this template. Name and
// body participate; description and tags do not force a new version.
func (t Template) Hash() string {
	sum := sha256.Sum256([]byte(t.Name + "\x00" + t.Model + "\x00" + t.Text))
	return hex.EncodeToString(sum[:])
}

// Validate checks required fields.
func (t Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template %s: name must not be empty", t.SourceFile)
	}
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("template %q: text must not be empty", t.Name)
	}
	return nil
}

// LoadDir loads every .yaml/.yml template under dir (one template per
// file), sorted by name. Duplicate names are an error: the push would
// otherwise be order-dependent.
func LoadDir(dir string) ([]Template, error) {
	var templates []Template
	byName := map[string]string{}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", path, err)
		}

		var t Template
		if err := yaml.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", path, err)
		}
		t.SourceFile = path
		if err := t.Validate(); err != nil {
			return err
		}
		if prev, dup := byName[t.Name]; dup {
			return fmt.Errorf("duplicate template name %q in %s and %s", t.Name, prev, path)
		}
		byName[t.Name] = path

		templates = append(templates, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}
