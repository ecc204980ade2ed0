// Package rules loads the keyword, prompt and gazetteer table the bot runs on.
// The bundled table is embedded; an operator can point RULES_PATH at a YAML
// file with the same shape to extend or replace it.
package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mr1hm/cuya-bot/internal/models"
)

//go:embed default.yaml
var defaultRules []byte

type Rules struct {
	Replies    Replies        `yaml:"replies"`
	Smalltalk  SmalltalkRules `yaml:"smalltalk"`
	Gazetteer  []string       `yaml:"gazetteer"`
	Categories []CategoryRule `yaml:"categories"`
}

// Replies holds the fixed reply strings. Placeholders in braces are filled in
// by the dialogue machine: {label}, {location}, {map_url}.
type Replies struct {
	Fallback       string `yaml:"fallback"`
	LocationPrompt string `yaml:"location_prompt"`
	OutOfArea      string `yaml:"out_of_area"`
	Recorded       string `yaml:"recorded"`
	PersistFailed  string `yaml:"persist_failed"`
}

type SmalltalkRules struct {
	Greeting SmalltalkRule `yaml:"greeting"`
	Help     SmalltalkRule `yaml:"help"`
	Identity SmalltalkRule `yaml:"identity"`
}

type SmalltalkRule struct {
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

type CategoryRule struct {
	ID        string   `yaml:"id"`
	Label     string   `yaml:"label"`
	Keywords  []string `yaml:"keywords"`
	Questions []string `yaml:"questions"`
}

// Default returns the embedded rule table.
func Default() (*Rules, error) {
	return Parse(defaultRules)
}

// Load reads the rule table from path, or the embedded table when path is empty.
func Load(path string) (*Rules, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading rules file: %w", err)
	}

	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing rules file %s: %w", path, err)
	}
	return r, nil
}

func Parse(data []byte) (*Rules, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var r Rules
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("error decoding rules: %w", err)
	}

	r.normalize()
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// normalize lower-cases every keyword and gazetteer entry, since matching is
// done against lower-cased input.
func (r *Rules) normalize() {
	lowerAll(r.Smalltalk.Greeting.Keywords)
	lowerAll(r.Smalltalk.Help.Keywords)
	lowerAll(r.Smalltalk.Identity.Keywords)
	lowerAll(r.Gazetteer)
	for i := range r.Categories {
		lowerAll(r.Categories[i].Keywords)
	}
}

func (r *Rules) validate() error {
	if len(r.Categories) == 0 {
		return errors.New("rules: at least one category is required")
	}
	if len(r.Gazetteer) == 0 {
		return errors.New("rules: gazetteer is empty")
	}
	if r.Replies.Fallback == "" || r.Replies.LocationPrompt == "" || r.Replies.OutOfArea == "" || r.Replies.Recorded == "" {
		return errors.New("rules: fallback, location_prompt, out_of_area and recorded replies are required")
	}

	seen := make(map[string]bool, len(r.Categories))
	for i, c := range r.Categories {
		if c.ID == "" {
			return fmt.Errorf("rules: category %d has no id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("rules: duplicate category id %q", c.ID)
		}
		seen[c.ID] = true

		if c.Label == "" {
			return fmt.Errorf("rules: category %q has no label", c.ID)
		}
		if len(c.Keywords) == 0 {
			return fmt.Errorf("rules: category %q has no keywords", c.ID)
		}
		for _, k := range c.Keywords {
			if strings.TrimSpace(k) == "" {
				return fmt.Errorf("rules: category %q has an empty keyword", c.ID)
			}
		}
	}

	for _, g := range r.Gazetteer {
		if strings.TrimSpace(g) == "" {
			return errors.New("rules: gazetteer contains an empty entry")
		}
	}
	return nil
}

// CategoryTable returns the categories in classification order.
func (r *Rules) CategoryTable() []models.Category {
	table := make([]models.Category, 0, len(r.Categories))
	for _, c := range r.Categories {
		table = append(table, models.Category{
			ID:        models.CategoryID(c.ID),
			Label:     c.Label,
			Keywords:  append([]string(nil), c.Keywords...),
			Questions: append([]string(nil), c.Questions...),
		})
	}
	return table
}

func lowerAll(ss []string) {
	for i, s := range ss {
		ss[i] = strings.ToLower(s)
	}
}
