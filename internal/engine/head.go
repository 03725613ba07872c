package engine

import (
	"fmt"
	"html"
	"strings"
)

// islandsCDN hosts the marimo islands frontend bundle.
const islandsCDN = "https://cdn.jsdelivr.net/npm/@marimo-team/islands@%s/dist"

// HeadOptions selects where the islands frontend is loaded from.
type HeadOptions struct {
	// Version of @marimo-team/islands on the CDN.
	Version string
	// DevelopmentURL points at a local marimo frontend dev server and
	// takes precedence over Version.
	DevelopmentURL string
}

// RenderHead returns the <head> tags needed to hydrate this generator's
// islands.
func (g *Generator) RenderHead(opts HeadOptions) string {
	var b strings.Builder

	if dev := strings.TrimRight(opts.DevelopmentURL, "/"); dev != "" {
		dev = html.EscapeString(dev)
		fmt.Fprintf(&b, "<script type=\"module\" src=\"%s/@vite/client\"></script>\n", dev)
		fmt.Fprintf(&b, "<script type=\"module\" src=\"%s/src/core/islands/main.ts\"></script>\n", dev)
	} else {
		base := fmt.Sprintf(islandsCDN, html.EscapeString(opts.Version))
		fmt.Fprintf(&b, "<script type=\"module\" src=\"%s/main.js\"></script>\n", base)
		fmt.Fprintf(&b, "<link href=\"%s/style.css\" rel=\"stylesheet\" crossorigin=\"anonymous\"/>\n", base)
	}

	b.WriteString("<style>\n")
	b.WriteString(highlightCSS())
	b.WriteString("</style>")
	return b.String()
}
