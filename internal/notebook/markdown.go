package notebook

import (
	"regexp"
	"strings"
)

type markdownPattern struct {
	prefix string
	re     *regexp.Regexp
}

// markdownPatterns match a whole cell of the form mo.md(<string literal>).
// Order matters: triple quotes must be tried before single quotes.
var markdownPatterns = func() []markdownPattern {
	prefixes := []string{"", "f", "r", "fr", "rf"}
	quotes := []string{`"""`, `'''`, `"`, `'`}

	var out []markdownPattern
	for _, prefix := range prefixes {
		for _, q := range quotes {
			out = append(out, markdownPattern{prefix: prefix, re: regexp.MustCompile(
				`(?s)^mo\.md\(\s*` + regexp.QuoteMeta(prefix+q) + `(.*)` + regexp.QuoteMeta(q) + `\s*\)$`)})
		}
	}
	return out
}()

// MarkdownOf returns the markdown text of a cell that does nothing but call
// mo.md on a string literal.
func MarkdownOf(c Cell) (string, bool) {
	_, text, ok := markdownLiteral(c)
	return text, ok
}

// StaticMarkdownOf is MarkdownOf restricted to literals whose value is their
// source text: f-strings without replacement fields and non-raw strings
// without escapes.
func StaticMarkdownOf(c Cell) (string, bool) {
	prefix, text, ok := markdownLiteral(c)
	if !ok {
		return "", false
	}
	if strings.Contains(prefix, "f") && strings.ContainsAny(text, "{}") {
		return "", false
	}
	if !strings.Contains(prefix, "r") && strings.Contains(text, `\`) {
		return "", false
	}
	return text, true
}

func markdownLiteral(c Cell) (prefix, text string, ok bool) {
	refs, defs := Analyze(c.Code)
	if len(defs) != 0 || len(refs) != 1 || refs[0] != "mo" {
		return "", "", false
	}

	code := strings.TrimSpace(c.Code)
	calls := 0
	for _, line := range strings.Split(code, "\n") {
		if strings.HasPrefix(line, "mo.md(") {
			calls++
		}
	}
	if calls != 1 {
		return "", "", false
	}

	for _, p := range markdownPatterns {
		m := p.re.FindStringSubmatch(code)
		if m == nil {
			continue
		}
		text := strings.ReplaceAll(Dedent(m[1]), `\"\"\"`, `"""`)
		if strings.TrimSpace(text) == "" {
			return "", "", false
		}
		return p.prefix, text, true
	}
	return "", "", false
}

// MarkdownCell wraps markdown text in a raw-string mo.md call.
func MarkdownCell(text string) string {
	text = strings.ReplaceAll(text, `"""`, `\"\"\"`)
	return strings.Join([]string{
		"mo.md(",
		Indent(`r"""`),
		Indent(text),
		Indent(`"""`),
		")",
	}, "\n")
}

// Indent prefixes every non-blank line with four spaces.
func Indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = "    " + line
		}
	}
	return strings.Join(lines, "\n")
}

// Dedent removes the whitespace prefix common to all non-blank lines.
// Whitespace-only lines are emptied.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")

	margin := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ws := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			margin, first = ws, false
			continue
		}
		margin = commonPrefix(margin, ws)
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = line[len(margin):]
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
