// Package qmarimo converts between marimo notebooks and Quarto Markdown.
//
// # Quick Start
//
// Turn a notebook into a Quarto document:
//
//	src, _ := os.ReadFile("analysis.py")
//	md, err := qmarimo.ToMarkdown(src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// And back:
//
//	py, err := qmarimo.ToNotebook(md, qmarimo.WithMarimoVersion("0.9.14"))
//
// # Document Layout
//
// Cells that only call mo.md on a string literal become plain Markdown.
// Every other cell becomes a fenced block:
//
//	```{marimo}
//	x = slider.value * 2
//	```
//
// Disabled cells carry disabled="true" in the fence head. Fenced blocks in
// other languages, and marimo fences nested in lists, quotes or other fences,
// stay Markdown.
//
// # Rendering
//
// Executing cells and rendering their outputs into a Quarto page is done by
// the qmarimo serve command together with the marimo Quarto filter; see the
// internal/server and internal/quarto packages.
package qmarimo
