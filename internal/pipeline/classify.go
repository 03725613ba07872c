package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// BlockKind distinguishes markdown runs from marimo code cells.
type BlockKind int

const (
	BlockMarkdown BlockKind = iota
	BlockCode
)

func (k BlockKind) String() string {
	if k == BlockCode {
		return "code"
	}
	return "markdown"
}

// Block is one classified region of a document. Attrs holds the key="value"
// attributes of a code cell's fence head.
type Block struct {
	Kind  BlockKind
	Text  string
	Attrs map[string]string
}

// Document is a classified Markdown document.
type Document struct {
	Meta   map[string]any
	Blocks []Block
}

var (
	marimoInfo = regexp.MustCompile(`^\{\s*\.?marimo(?:\s+([^}]*))?\s*\}$`)
	fenceAttr  = regexp.MustCompile(`([A-Za-z_][\w-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// fence is a stashed top-level fenced code block.
type fence struct {
	lines []string // opening line through closing line
	info  string
	open  int
	close int // index of the closing line, or of the last line if unterminated
	term  bool
}

// Classify splits md into front matter, markdown runs and marimo code cells.
// Every top-level fenced block found by goldmark is replaced by a placeholder
// line; placeholders whose info string is {marimo ...} become code blocks and
// the rest are expanded back into the surrounding markdown.
func Classify(md string) (*Document, error) {
	meta, body, err := SplitFrontMatter(normalizeLineEndings(md))
	if err != nil {
		return nil, err
	}

	lines := strings.Split(body, "\n")
	fences := findFences([]byte(body), lines)

	var (
		doc     = &Document{Meta: meta}
		run     []string
		first   = true
		stashed = make([]string, 0, len(lines))
	)

	next := 0
	for i := 0; i < len(lines); i++ {
		if next < len(fences) && fences[next].open == i {
			stashed = append(stashed, fenceLine(next))
			i = fences[next].close
			next++
			continue
		}
		stashed = append(stashed, lines[i])
	}

	flush := func() {
		text := trimBlankLines(run)
		run = run[:0]
		if text == "" {
			return
		}
		if first {
			first = false
			if text == "---" {
				return
			}
		}
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockMarkdown, Text: text})
	}

	for _, line := range stashed {
		n, ok := parseFenceLine(line)
		if !ok || n >= len(fences) {
			run = append(run, line)
			continue
		}
		f := fences[n]
		m := marimoInfo.FindStringSubmatch(f.info)
		if m == nil {
			run = append(run, f.lines...)
			continue
		}
		flush()
		first = false
		doc.Blocks = append(doc.Blocks, Block{
			Kind:  BlockCode,
			Text:  strings.Join(f.body(), "\n"),
			Attrs: parseAttrs(m[1]),
		})
	}
	flush()

	return doc, nil
}

// body returns the lines between the fence delimiters.
func (f fence) body() []string {
	end := len(f.lines)
	if f.term {
		end--
	}
	if end <= 1 {
		return nil
	}
	return f.lines[1:end]
}

// findFences locates top-level fenced code blocks with goldmark and maps
// them back to source line ranges.
func findFences(src []byte, lines []string) []fence {
	starts := make([]int, len(lines))
	off := 0
	for i, l := range lines {
		starts[i] = off
		off += len(l) + 1
	}
	lineOf := func(pos int) int {
		return sort.Search(len(starts), func(i int) bool { return starts[i] > pos }) - 1
	}

	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	var out []fence
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			continue
		}
		segs := block.Lines()

		open := -1
		switch {
		case block.Info != nil:
			open = lineOf(block.Info.Segment.Start)
		case segs.Len() > 0:
			open = lineOf(segs.At(0).Start) - 1
		}
		if open < 0 || open >= len(lines) {
			// An empty fence without info string holds nothing to protect.
			continue
		}

		last := open
		if segs.Len() > 0 {
			last = lineOf(segs.At(segs.Len() - 1).Start)
		}

		marker, width := fenceMarker(lines[open])
		f := fence{open: open, close: last, info: fenceInfo(lines[open], width)}
		if last+1 < len(lines) && isClosingFence(lines[last+1], marker, width) {
			f.close, f.term = last+1, true
		}
		f.lines = lines[open : f.close+1]
		out = append(out, f)
	}
	return out
}

// fenceMarker returns the fence character and run length of an opening line.
func fenceMarker(line string) (byte, int) {
	s := strings.TrimLeft(line, " ")
	if s == "" {
		return 0, 0
	}
	c := s[0]
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return c, n
}

func fenceInfo(line string, width int) string {
	s := strings.TrimLeft(line, " ")
	if width > len(s) {
		return ""
	}
	return strings.TrimSpace(s[width:])
}

func isClosingFence(line string, marker byte, width int) bool {
	indent := len(line) - len(strings.TrimLeft(line, " "))
	if indent > 3 || marker == 0 {
		return false
	}
	s := strings.TrimRight(line[indent:], " \t")
	if len(s) < width {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != marker {
			return false
		}
	}
	return true
}

func parseAttrs(s string) map[string]string {
	matches := fenceAttr.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(matches))
	for _, m := range matches {
		if m[2] != "" || !strings.Contains(m[0], "'") {
			attrs[m[1]] = m[2]
		} else {
			attrs[m[1]] = m[3]
		}
	}
	return attrs
}

// trimBlankLines joins lines after dropping leading and trailing
// whitespace-only lines.
func trimBlankLines(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
