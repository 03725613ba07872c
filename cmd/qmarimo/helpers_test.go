package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-qmarimo/internal/engine"
)

const testNotebook = `import marimo

__generated_with = "0.9.14"
app = marimo.App(app_title="Demo")


@app.cell
def __(mo):
    mo.md(r"""# Hello""")
    return


@app.cell
def __():
    import marimo as mo
    return (mo,)


if __name__ == "__main__":
    app.run()
`

const testDocument = "---\ntitle: Demo\n---\n\n# Hello\n\n```{marimo}\n#| echo: true\n6 * 7\n```\n"

// testEnv is an Environment with captured output and a fixed environment.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	vars   map[string]string
}

// newTestEnv returns an environment reading stdin from the given string
// and running cells with echoRunner.
func newTestEnv(stdin string) *testEnv {
	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		vars:   map[string]string{},
	}
	te.Environment = &Environment{
		Now:     time.Now,
		Stdin:   strings.NewReader(stdin),
		Stdout:  te.stdout,
		Stderr:  te.stderr,
		Getenv:  func(k string) string { return te.vars[k] },
		Environ: te.environ,
		NewRunner: func(string, time.Duration) engine.Runner {
			return echoRunner
		},
	}
	return te
}

func (te *testEnv) environ() []string {
	out := make([]string, 0, len(te.vars))
	for k, v := range te.vars {
		out = append(out, k+"="+v)
	}
	return out
}

// echoRunner returns each cell's code as plain text.
var echoRunner = engine.RunnerFunc(func(_ context.Context, cells []engine.Source) ([]engine.Output, error) {
	out := make([]engine.Output, len(cells))
	for i, c := range cells {
		out[i] = engine.Output{Mimetype: engine.MimePlain, Data: "out:" + c.Code}
	}
	return out, nil
})

// writeFile writes content under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
