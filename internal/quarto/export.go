package quarto

import (
	"context"
	"fmt"
	"io"

	"github.com/alnah/go-qmarimo/internal/engine"
	"github.com/alnah/go-qmarimo/internal/pipeline"
)

// attrsWarning is printed when fence attributes other than disabled are set.
const attrsWarning = "Warning: Only the `disabled` codeblock attribute is utilized " +
	"for pandoc export. Be sure to set desired code attributes in quarto form."

// Export is the rendered form of a whole document.
type Export struct {
	Header  string     `json:"header"`
	Outputs []Fragment `json:"outputs"`
	Count   int        `json:"count"`
}

// Exporter builds every code cell of a document in one generator.
type Exporter struct {
	// NewGenerator returns the generator cells are added to.
	NewGenerator func() *engine.Generator
	// Head selects where the islands frontend is loaded from.
	Head engine.HeadOptions
	// Warn receives cell errors and attribute warnings. Nil discards them.
	Warn io.Writer
}

type exportCell struct {
	opts Options
	stub *engine.Stub
}

// Export classifies md, builds its code cells and renders one Fragment per
// cell. Disabled cells are never executed and render empty.
func (e *Exporter) Export(ctx context.Context, md string, mimeSensitive bool) (*Export, error) {
	if md == "" {
		return &Export{Outputs: []Fragment{}}, nil
	}
	warn := e.Warn
	if warn == nil {
		warn = io.Discard
	}

	doc, err := pipeline.Classify(md)
	if err != nil {
		return nil, err
	}

	global := Merge(DefaultOptions(), AppOptions(doc.Meta))
	gen := e.NewGenerator()

	var (
		cells    []exportCell
		hasAttrs bool
	)
	for _, block := range doc.Blocks {
		if block.Kind != pipeline.BlockCode {
			continue
		}
		if block.Attrs["disabled"] == "true" {
			cells = append(cells, exportCell{opts: Options{"include": false}})
			continue
		}
		hasAttrs = hasAttrs || len(block.Attrs) > 0

		opts, code, err := ExtractOptions(block.Text)
		if err != nil {
			return nil, err
		}
		cells = append(cells, exportCell{opts: opts, stub: gen.AddCode(code)})
	}

	if hasAttrs && global.Bool("warning") {
		_, _ = fmt.Fprintln(warn, attrsWarning)
	}

	if err := gen.Build(ctx); err != nil {
		return nil, err
	}

	out := &Export{
		Header:  gen.RenderHead(e.Head),
		Outputs: make([]Fragment, 0, len(cells)),
		Count:   len(cells),
	}
	for _, c := range cells {
		var island Island
		if c.stub != nil {
			island = c.stub
		}
		out.Outputs = append(out.Outputs, Render(global, island, c.opts, mimeSensitive, warn))
	}
	return out, nil
}
