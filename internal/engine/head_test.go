package engine

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestGenerator_RenderHead - Islands frontend tags
// ---------------------------------------------------------------------------

func TestGenerator_RenderHead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     HeadOptions
		contains []string
		excludes []string
	}{
		{
			name: "cdn",
			opts: HeadOptions{Version: "0.9.14"},
			contains: []string{
				`src="https://cdn.jsdelivr.net/npm/@marimo-team/islands@0.9.14/dist/main.js"`,
				`href="https://cdn.jsdelivr.net/npm/@marimo-team/islands@0.9.14/dist/style.css"`,
				"<style>",
			},
			excludes: []string{"@vite/client"},
		},
		{
			name: "development server",
			opts: HeadOptions{Version: "0.9.14", DevelopmentURL: "http://localhost:3000/"},
			contains: []string{
				`src="http://localhost:3000/@vite/client"`,
				`src="http://localhost:3000/src/core/islands/main.ts"`,
			},
			excludes: []string{"cdn.jsdelivr.net"},
		},
	}

	g := NewGenerator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := g.RenderHead(tt.opts)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("missing %q in:\n%s", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("unexpected %q in:\n%s", bad, got)
				}
			}
		})
	}
}

func TestHighlightCSS(t *testing.T) {
	t.Parallel()

	if css := highlightCSS(); !strings.Contains(css, ".chroma") {
		t.Errorf("highlightCSS() missing .chroma rules:\n%s", css)
	}
}
