// Package pipeline prepares Markdown documents for notebook conversion and
// rendering.
//
// It covers three stages:
//   - Front matter extraction (YAML between --- fences)
//   - Block classification into markdown runs and marimo code cells
//   - Markdown to HTML conversion via Goldmark for markdown cells
//
// Classification uses goldmark's parser to locate top-level fenced code
// blocks, so fences nested in lists or block quotes, and fences inside
// other fences, are never mistaken for cells.
package pipeline
