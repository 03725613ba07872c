// Package server implements the local render service used by the Quarto
// filter.
//
// The filter posts every marimo cell of a document to /run, asks for one
// build per document with /execute, reads each rendered cell once with
// /lookup and finally collects the page head with /assets-and-flush.
// State lives in memory only: one engine.Generator per document ("app")
// and one entry per posted cell ("key"). A key is removed when it is looked
// up; an app and its remaining keys are removed when flushed.
package server
