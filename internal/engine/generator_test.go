package engine

// Notes:
// - Runners are faked with RunnerFunc; PythonRunner is covered by the
//   integration-tagged tests in python_integration_test.go.

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// echoRunner returns each cell's code as plain text and counts calls.
type echoRunner struct {
	mu    sync.Mutex
	calls [][]Source
}

func (r *echoRunner) Run(_ context.Context, cells []Source) ([]Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cells)

	out := make([]Output, len(cells))
	for i, c := range cells {
		out[i] = Output{Mimetype: MimePlain, Data: c.Code}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// TestGenerator_Build - Execution and output assignment
// ---------------------------------------------------------------------------

func TestGenerator_Build(t *testing.T) {
	t.Parallel()

	runner := &echoRunner{}
	g := NewGenerator(runner, WithAppID("app-1"))

	a := g.AddCode("x = 1")
	md := g.AddCode(`mo.md("# Title")`)
	b := g.AddCode("x + 1")

	if a.Built() || !g.Pending() {
		t.Fatal("cells should be pending before Build")
	}
	if err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if g.Pending() {
		t.Error("Pending() = true after Build")
	}
	if len(runner.calls) != 1 || len(runner.calls[0]) != 2 {
		t.Fatalf("runner calls = %v, want one call with 2 cells", runner.calls)
	}
	if got := a.Output(); got.Data != "x = 1" {
		t.Errorf("a output = %+v", got)
	}
	if got := b.Output(); got.Data != "x + 1" {
		t.Errorf("b output = %+v", got)
	}
	if got := md.Output(); got.Mimetype != MimeHTML || !strings.Contains(got.Data, "<h1") {
		t.Errorf("markdown output = %+v, want rendered heading", got)
	}
	if a.Index() != 0 || b.Index() != 2 || g.AppID() != "app-1" {
		t.Errorf("unexpected ids: %d %d %s", a.Index(), b.Index(), g.AppID())
	}
}

func TestGenerator_BuildReRunsAllCells(t *testing.T) {
	t.Parallel()

	runner := &echoRunner{}
	g := NewGenerator(runner)
	g.AddCode("a = 1")
	if err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Nothing pending: no runner call.
	if err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("runner called %d times, want 1", len(runner.calls))
	}

	g.AddCode("b = a")
	if err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(runner.calls) != 2 || len(runner.calls[1]) != 2 {
		t.Fatalf("second build = %v, want both cells", runner.calls)
	}
	if len(g.Stubs()) != 2 {
		t.Errorf("Stubs() = %d, want 2", len(g.Stubs()))
	}
}

func TestGenerator_BuildMarkdownOnlySkipsRunner(t *testing.T) {
	t.Parallel()

	g := NewGenerator(nil)
	s := g.AddCode("mo.md(r\"\"\"\n**bold**\n\"\"\")")
	if err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(s.Output().Data, "<strong>bold</strong>") {
		t.Errorf("output = %+v", s.Output())
	}
}

func TestGenerator_BuildEvaluatedMarkdownUsesRunner(t *testing.T) {
	t.Parallel()

	r := &echoRunner{}
	g := NewGenerator(r)
	fstring := g.AddCode(`mo.md(f"{1 + 1} apples")`)
	escaped := g.AddCode(`mo.md("a\tb")`)
	static := g.AddCode(`mo.md(r"**bold**")`)
	if err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(r.calls) != 1 || len(r.calls[0]) != 2 {
		t.Fatalf("runner calls = %+v, want one call with two cells", r.calls)
	}
	if fstring.Output().Data != `mo.md(f"{1 + 1} apples")` {
		t.Errorf("f-string output = %+v, want runner output", fstring.Output())
	}
	if escaped.Output().Data != `mo.md("a\tb")` {
		t.Errorf("escaped output = %+v, want runner output", escaped.Output())
	}
	if !strings.Contains(static.Output().Data, "<strong>bold</strong>") {
		t.Errorf("static output = %+v", static.Output())
	}
}

func TestGenerator_BuildErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tests := []struct {
		name    string
		runner  Runner
		wantErr error
	}{
		{
			name:    "no runner",
			runner:  nil,
			wantErr: ErrNoRunner,
		},
		{
			name: "runner error",
			runner: RunnerFunc(func(context.Context, []Source) ([]Output, error) {
				return nil, boom
			}),
			wantErr: boom,
		},
		{
			name: "output count mismatch",
			runner: RunnerFunc(func(context.Context, []Source) ([]Output, error) {
				return []Output{}, nil
			}),
			wantErr: ErrOutputMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := NewGenerator(tt.runner)
			s := g.AddCode("x = 1")
			err := g.Build(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
			}
			if s.Built() || !g.Pending() {
				t.Error("failed build must leave cells pending")
			}
		})
	}
}

func TestGenerator_MarkdownOutputConverted(t *testing.T) {
	t.Parallel()

	runner := RunnerFunc(func(_ context.Context, cells []Source) ([]Output, error) {
		return []Output{{Mimetype: MimeMarkdown, Data: "*hi*"}}, nil
	})
	g := NewGenerator(runner)
	s := g.AddCode("obj")
	if err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := s.Output(); got.Mimetype != MimeHTML || !strings.Contains(got.Data, "<em>hi</em>") {
		t.Errorf("output = %+v", got)
	}
}

func TestGenerator_ConcurrentAddAndBuild(t *testing.T) {
	t.Parallel()

	g := NewGenerator(&echoRunner{})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.AddCode("x = 1")
		}()
		go func() {
			defer wg.Done()
			_ = g.Build(context.Background())
		}()
	}
	wg.Wait()

	if err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, s := range g.Stubs() {
		if !s.Built() {
			t.Fatalf("stub %d not built", s.Index())
		}
	}
}
