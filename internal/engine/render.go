package engine

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// codeStyle is the chroma style for echoed cell source.
const codeStyle = "github"

// RenderOptions controls what an island shows.
type RenderOptions struct {
	DisplayCode   bool
	DisplayOutput bool
	Reactive      bool
}

// DefaultRenderOptions shows the output only, with a reactive island.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{DisplayOutput: true, Reactive: true}
}

// Render returns the cell as a <marimo-island> element.
func (s *Stub) Render(opts RenderOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<marimo-island data-app-id="%s" data-cell-idx="%d" data-reactive="%s">`,
		html.EscapeString(s.app), s.idx, strconv.FormatBool(opts.Reactive))
	b.WriteString("\n")

	if opts.DisplayCode {
		b.WriteString(`<div class="marimo-cell-source">`)
		b.WriteString(highlight(s.code))
		b.WriteString("</div>\n")
	}

	b.WriteString("<marimo-cell-output>\n")
	if opts.DisplayOutput {
		if body := OutputHTML(s.Output()); body != "" {
			b.WriteString(body)
			b.WriteString("\n")
		}
	}
	b.WriteString("</marimo-cell-output>\n")

	b.WriteString("<marimo-cell-code hidden>")
	b.WriteString(url.PathEscape(s.code))
	b.WriteString("</marimo-cell-code>\n")
	b.WriteString("</marimo-island>")
	return b.String()
}

// OutputHTML renders an output as an HTML fragment. HTML outputs are
// re-serialized so unbalanced markup cannot close the surrounding island.
func OutputHTML(o Output) string {
	switch {
	case o.Data == "":
		return ""
	case o.Mimetype == MimeHTML:
		return normalizeHTML(o.Data)
	case o.IsImage():
		return fmt.Sprintf(`<img src="%s" alt=""/>`, html.EscapeString(o.Data))
	case o.IsError():
		return `<pre class="marimo-error">` + html.EscapeString(o.Data) + "</pre>"
	default:
		return "<pre>" + html.EscapeString(o.Data) + "</pre>"
	}
}

// normalizeHTML parses s as the content of a <div> and renders it back.
func normalizeHTML(s string) string {
	parent := &xhtml.Node{Type: xhtml.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := xhtml.ParseFragment(strings.NewReader(s), parent)
	if err != nil {
		return html.EscapeString(s)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := xhtml.Render(&buf, n); err != nil {
			return html.EscapeString(s)
		}
	}
	return buf.String()
}

// highlight renders Python source with chroma CSS classes.
func highlight(code string) string {
	lexer := lexers.Get("python")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "<pre>" + html.EscapeString(code) + "</pre>"
	}

	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.Format(&buf, styles.Get(codeStyle), iterator); err != nil {
		return "<pre>" + html.EscapeString(code) + "</pre>"
	}
	return buf.String()
}

// highlightCSS returns the stylesheet for highlighted code.
func highlightCSS() string {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(codeStyle)); err != nil {
		return ""
	}
	return buf.String()
}
