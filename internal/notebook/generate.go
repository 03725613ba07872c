package notebook

import (
	"fmt"
	"sort"
	"strings"
)

// Generate renders app as marimo notebook source. Every cell becomes a
// function named "__" whose parameters are the names it reads from other
// cells and whose return exports its definitions.
func Generate(app *App, version string) string {
	defined := make(map[string]bool)
	analyzed := make([]Cell, len(app.Cells))
	for i, c := range app.Cells {
		c.Refs, c.Defs = Analyze(c.Code)
		analyzed[i] = c
		for _, d := range c.Defs {
			defined[d] = true
		}
	}

	var b strings.Builder
	b.WriteString("import marimo\n\n")
	fmt.Fprintf(&b, "__generated_with = %q\n", version)
	fmt.Fprintf(&b, "app = marimo.App(%s)\n\n\n", appArgs(app.Config))

	for _, c := range analyzed {
		writeCell(&b, c, defined)
		b.WriteString("\n\n")
	}

	b.WriteString("if __name__ == \"__main__\":\n    app.run()\n")
	return b.String()
}

func appArgs(cfg AppConfig) string {
	var args []string
	add := func(key, value string) {
		if value != "" {
			args = append(args, fmt.Sprintf("%s=%q", key, value))
		}
	}
	add("width", cfg.Width)
	add("app_title", cfg.Title)
	add("layout_file", cfg.LayoutFile)
	add("css_file", cfg.CSSFile)
	return strings.Join(args, ", ")
}

func writeCell(b *strings.Builder, c Cell, defined map[string]bool) {
	var flags []string
	if c.Config.Disabled {
		flags = append(flags, "disabled=True")
	}
	if c.Config.HideCode {
		flags = append(flags, "hide_code=True")
	}
	if len(flags) == 0 {
		b.WriteString("@app.cell\n")
	} else {
		fmt.Fprintf(b, "@app.cell(%s)\n", strings.Join(flags, ", "))
	}

	var params []string
	for _, r := range c.Refs {
		if defined[r] {
			params = append(params, r)
		}
	}
	sort.Strings(params)
	fmt.Fprintf(b, "def __(%s):\n", strings.Join(params, ", "))

	if body := Indent(strings.Trim(c.Code, "\n")); strings.TrimSpace(body) != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}
	b.WriteString("    " + returnStatement(c.Defs) + "\n")
}

func returnStatement(defs []string) string {
	switch len(defs) {
	case 0:
		return "return"
	case 1:
		return fmt.Sprintf("return (%s,)", defs[0])
	default:
		return "return " + strings.Join(defs, ", ")
	}
}
