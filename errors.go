package qmarimo

import (
	"errors"

	"github.com/alnah/go-qmarimo/internal/notebook"
	"github.com/alnah/go-qmarimo/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown = errors.New("markdown content cannot be empty")
	ErrEmptyNotebook = errors.New("notebook source cannot be empty")

	// Errors surfaced from the parsing layers.
	ErrNotNotebook = notebook.ErrNotNotebook
	ErrFrontMatter = pipeline.ErrFrontMatter
)
