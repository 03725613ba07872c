// Package quarto maps Quarto execution options onto rendered marimo cells.
//
// Options come from three layers, later layers winning: DefaultOptions, the
// document (front matter and its execute: map, or the options posted to the
// render service), and the cell's own "#| key: value" lines. Render turns a
// built cell into the fragment the Quarto filter splices into the page.
package quarto
