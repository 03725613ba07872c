package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Placeholders use Unicode Private Use Area characters, which never occur in
// real documents and pass through Goldmark unchanged.
const (
	MarkStartPlaceholder  = "\uE000" // ==highlight== start
	MarkEndPlaceholder    = "\uE001" // ==highlight== end
	FenceStartPlaceholder = "\uE002" // stashed fenced block start
	FenceEndPlaceholder   = "\uE003" // stashed fenced block end
)

var (
	crlfOrCR         = regexp.MustCompile(`\r\n?`)
	highlightPattern = regexp.MustCompile(`==(.*?)==`)
	fencePlaceholder = regexp.MustCompile(`^` + FenceStartPlaceholder + `(\d+)` + FenceEndPlaceholder + `$`)
)

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// CellPreprocessor prepares markdown cell text for Goldmark.
type CellPreprocessor struct{}

// PreprocessMarkdown normalizes line endings and marks ==highlights==.
func (p *CellPreprocessor) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	content = normalizeLineEndings(content)
	content = convertHighlights(content)
	return content
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// convertHighlights transforms ==text== to placeholder markers, turned into
// <mark> tags by ConvertMarkPlaceholders after Goldmark runs.
func convertHighlights(content string) string {
	return highlightPattern.ReplaceAllString(content, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
}

// ConvertMarkPlaceholders converts placeholder markers to <mark> tags.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}

// fenceLine returns the placeholder line standing for stashed fence n.
func fenceLine(n int) string {
	return FenceStartPlaceholder + strconv.Itoa(n) + FenceEndPlaceholder
}

// parseFenceLine returns the stash index of a placeholder line.
func parseFenceLine(line string) (int, bool) {
	m := fencePlaceholder.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}
