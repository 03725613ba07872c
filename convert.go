package qmarimo

import (
	"fmt"
	"strings"

	"github.com/alnah/go-qmarimo/internal/notebook"
	"github.com/alnah/go-qmarimo/internal/pipeline"
	"github.com/alnah/go-qmarimo/internal/yamlutil"
)

// DefaultMarimoVersion is written to __generated_with when no version is set.
const DefaultMarimoVersion = "0.9.14"

// Option configures ToNotebook.
type Option func(*notebookConfig)

type notebookConfig struct {
	version string
}

// WithMarimoVersion sets the marimo version recorded in generated notebooks.
// Panics if v is empty (programmer error).
func WithMarimoVersion(v string) Option {
	if v == "" {
		panic("qmarimo: WithMarimoVersion version must not be empty")
	}
	return func(c *notebookConfig) {
		c.version = v
	}
}

// frontMatter is the Quarto header written by ToMarkdown.
type frontMatter struct {
	Title   string   `yaml:"title,omitempty"`
	Format  string   `yaml:"format"`
	Filters []string `yaml:"filters"`
}

// ToMarkdown converts marimo notebook source into a Quarto document.
func ToMarkdown(src []byte) (string, error) {
	if strings.TrimSpace(string(src)) == "" {
		return "", ErrEmptyNotebook
	}
	app, err := notebook.Parse(src)
	if err != nil {
		return "", err
	}

	header, err := yamlutil.MarshalDocument(frontMatter{
		Title:   app.Config.Title,
		Format:  "html",
		Filters: []string{"marimo/quarto"},
	})
	if err != nil {
		return "", fmt.Errorf("front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n")

	for _, cell := range app.Cells {
		if text, ok := notebook.MarkdownOf(cell); ok {
			b.WriteString(text)
			b.WriteString("\n")
			continue
		}
		b.WriteString("\n```" + fenceHead(cell.Config) + "\n")
		b.WriteString(cell.Code)
		b.WriteString("\n```\n")
	}
	return b.String(), nil
}

func fenceHead(cfg notebook.CellConfig) string {
	if cfg.Disabled {
		return `{marimo disabled="true"}`
	}
	return "{marimo}"
}

// ToNotebook converts a Quarto document into marimo notebook source.
// Markdown runs become mo.md cells and {marimo} fences become code cells.
func ToNotebook(md string, opts ...Option) (string, error) {
	if strings.TrimSpace(md) == "" {
		return "", ErrEmptyMarkdown
	}

	cfg := notebookConfig{version: DefaultMarimoVersion}
	for _, opt := range opts {
		opt(&cfg)
	}

	doc, err := pipeline.Classify(md)
	if err != nil {
		return "", err
	}

	app := &notebook.App{Config: appConfig(doc.Meta)}
	hasMarkdown, definesMo := false, false
	for _, block := range doc.Blocks {
		var cell notebook.Cell
		switch block.Kind {
		case pipeline.BlockMarkdown:
			hasMarkdown = true
			cell = notebook.NewCell(notebook.MarkdownCell(block.Text), notebook.CellConfig{})
		case pipeline.BlockCode:
			cell = notebook.NewCell(block.Text, notebook.CellConfig{
				Disabled: block.Attrs["disabled"] == "true",
			})
		}
		for _, d := range cell.Defs {
			definesMo = definesMo || d == "mo"
		}
		app.Cells = append(app.Cells, cell)
	}

	if hasMarkdown && !definesMo {
		app.Cells = append(app.Cells, notebook.NewCell("import marimo as mo", notebook.CellConfig{}))
	}

	return notebook.Generate(app, cfg.version), nil
}

// appConfig maps Quarto front matter onto marimo.App arguments.
func appConfig(meta map[string]any) notebook.AppConfig {
	str := func(key string) string {
		if v, ok := meta[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}
	return notebook.AppConfig{
		Title:      str("title"),
		LayoutFile: str("marimo-layout"),
		Width:      str("marimo-width"),
		CSSFile:    str("marimo-css"),
	}
}
