// Package catalog ships the built-in survey templates.
package catalog

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
)

//go:embed templates/*.yaml
var files embed.FS

type entry struct {
	Key         string                    `yaml:"key"`
	Title       string                    `yaml:"title"`
	Category    string                    `yaml:"category"`
	Description string                    `yaml:"description"`
	Questions   []models.TemplateQuestion `yaml:"questions"`
}

type document struct {
	Templates []entry `yaml:"templates"`
}

// BuiltIn returns every embedded template, in file order, with question
// positions assigned.
func BuiltIn() ([]models.Template, error) {
	names, err := files.ReadDir("templates")
	if err != nil {
		return nil, err
	}
	var out []models.Template
	seen := map[string]bool{}
	for _, n := range names {
		raw, err := files.ReadFile("templates/" + n.Name())
		if err != nil {
			return nil, err
		}
		tpls, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", n.Name(), err)
		}
		for _, t := range tpls {
			if seen[t.Key] {
				return nil, fmt.Errorf("catalog: duplicate template key %q", t.Key)
			}
			seen[t.Key] = true
			out = append(out, t)
		}
	}
	return out, nil
}

// Parse decodes a YAML template document.
func Parse(raw []byte) ([]models.Template, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := make([]models.Template, 0, len(doc.Templates))
	for _, e := range doc.Templates {
		if e.Key == "" || e.Title == "" {
			return nil, fmt.Errorf("template needs key and title")
		}
		if len(e.Questions) == 0 {
			return nil, fmt.Errorf("template %q has no questions", e.Key)
		}
		qs := make([]models.TemplateQuestion, len(e.Questions))
		for i, q := range e.Questions {
			q.Position = i
			qs[i] = q
		}
		out = append(out, models.Template{
			Key:         e.Key,
			Title:       e.Title,
			Category:    e.Category,
			Description: e.Description,
			Questions:   qs,
			BuiltIn:     true,
		})
	}
	return out, nil
}
