package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/alnah/go-qmarimo/internal/notebook"
	"github.com/alnah/go-qmarimo/internal/pipeline"
)

// Runner executes cells in order in one shared namespace and returns one
// Output per Source.
type Runner interface {
	Run(ctx context.Context, cells []Source) ([]Output, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cells []Source) ([]Output, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, cells []Source) ([]Output, error) {
	return f(ctx, cells)
}

// Generator collects the cells of one document and builds them together.
// It is safe for concurrent use.
type Generator struct {
	id       string
	runner   Runner
	markdown pipeline.HTMLConverter

	mu    sync.Mutex
	stubs []*Stub
	built int // stubs covered by the last successful build
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithAppID overrides the generated island app id.
func WithAppID(id string) GeneratorOption {
	return func(g *Generator) {
		g.id = id
	}
}

// WithMarkdownConverter sets the converter used for mo.md cells.
func WithMarkdownConverter(c pipeline.HTMLConverter) GeneratorOption {
	return func(g *Generator) {
		g.markdown = c
	}
}

// NewGenerator creates an empty Generator executing cells with runner.
func NewGenerator(runner Runner, opts ...GeneratorOption) *Generator {
	g := &Generator{
		id:       uuid.NewString(),
		runner:   runner,
		markdown: pipeline.NewGoldmarkConverter(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AppID identifies the generator's islands in rendered HTML.
func (g *Generator) AppID() string {
	return g.id
}

// AddCode appends a cell and returns its stub. The cell has no output until
// the next Build.
func (g *Generator) AddCode(code string) *Stub {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := &Stub{app: g.id, idx: len(g.stubs), code: code}
	g.stubs = append(g.stubs, s)
	return s
}

// Stubs returns the cells added so far, in order.
func (g *Generator) Stubs() []*Stub {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Stub, len(g.stubs))
	copy(out, g.stubs)
	return out
}

// Pending reports whether cells were added since the last build.
func (g *Generator) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.built < len(g.stubs)
}

// Build executes every cell. Cells share one namespace, so adding a cell
// re-runs the whole document. Build is a no-op when nothing is pending.
func (g *Generator) Build(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.built == len(g.stubs) {
		return nil
	}

	outputs := make([]Output, len(g.stubs))
	var (
		sources []Source
		index   []int
	)
	for i, s := range g.stubs {
		if text, ok := notebook.StaticMarkdownOf(notebook.Cell{Code: s.code}); ok {
			html, err := g.markdown.ToHTML(ctx, text)
			if err != nil {
				return err
			}
			outputs[i] = Output{Mimetype: MimeHTML, Data: html}
			continue
		}
		sources = append(sources, Source{Code: s.code})
		index = append(index, i)
	}

	if len(sources) > 0 {
		if g.runner == nil {
			return ErrNoRunner
		}
		results, err := g.runner.Run(ctx, sources)
		if err != nil {
			return err
		}
		if len(results) != len(sources) {
			return fmt.Errorf("%w: got %d, want %d", ErrOutputMismatch, len(results), len(sources))
		}
		for j, out := range results {
			if out.Mimetype == MimeMarkdown {
				html, err := g.markdown.ToHTML(ctx, out.Data)
				if err != nil {
					return err
				}
				out = Output{Mimetype: MimeHTML, Data: html}
			}
			outputs[index[j]] = out
		}
	}

	for i, s := range g.stubs {
		s.setOutput(outputs[i])
	}
	g.built = len(g.stubs)
	return nil
}
