// Package notebook models marimo notebook source files.
//
// A marimo notebook is a Python module that declares `app = marimo.App(...)`
// and one function per cell, decorated with `@app.cell`. This package parses
// such files with tree-sitter, performs the static name analysis marimo uses
// to wire cells together (refs and defs), recognises pure markdown cells
// (`mo.md(...)`) and generates notebook source back from a list of cells.
package notebook
