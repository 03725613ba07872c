// Package engine executes notebook cells and renders their outputs as
// marimo islands.
//
// A Generator collects the cells of one document. Build sends them, in
// order, to a Runner that executes them in a shared namespace; cells that
// only call mo.md are rendered directly with goldmark. Each cell is
// represented by a Stub whose Render method produces the island HTML that
// the marimo islands frontend hydrates in the browser.
//
// PythonRunner is the Runner used in production. It drives a Python
// interpreter through an embedded script and exchanges JSON over stdio.
package engine
