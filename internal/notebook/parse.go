package notebook

import (
	"errors"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrNotNotebook indicates Python source without an `app = marimo.App(...)`
// declaration.
var ErrNotNotebook = errors.New("not a marimo notebook")

// App is a parsed notebook: its App() arguments and its cells in file order.
type App struct {
	Config AppConfig
	Cells  []Cell
}

// AppConfig holds the marimo.App keyword arguments this package understands.
type AppConfig struct {
	Width      string // width="medium"
	Title      string // app_title="..."
	LayoutFile string // layout_file="layouts/x.json"
	CSSFile    string // css_file="custom.css"
}

// CellConfig holds @app.cell keyword arguments.
type CellConfig struct {
	Disabled bool
	HideCode bool
}

// Cell is one notebook cell.
type Cell struct {
	Name   string // function name, "__" when generated
	Code   string // dedented body without the trailing return
	Config CellConfig
	Refs   []string
	Defs   []string
}

// NewCell returns a generated cell with its names analyzed.
func NewCell(code string, cfg CellConfig) Cell {
	refs, defs := Analyze(code)
	return Cell{Name: "__", Code: code, Config: cfg, Refs: refs, Defs: defs}
}

// Parse reads a marimo notebook file. Cells that marimo could not parse when
// saving (app._unparsable_cell) are returned with their raw source.
func Parse(src []byte) (*App, error) {
	tree, err := parseTree(src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	p := &fileParser{src: src, lines: strings.Split(string(src), "\n")}
	app := &App{}
	found := false

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "expression_statement":
			if call := p.appDeclaration(stmt); call != nil {
				found = true
				p.applyAppArgs(call, &app.Config)
				continue
			}
			if cell, ok := p.unparsableCell(stmt); ok {
				app.Cells = append(app.Cells, cell)
			}
		case "decorated_definition":
			if cell, ok := p.cell(stmt); ok {
				app.Cells = append(app.Cells, cell)
			}
		}
	}

	if !found {
		return nil, ErrNotNotebook
	}
	for i := range app.Cells {
		app.Cells[i].Refs, app.Cells[i].Defs = Analyze(app.Cells[i].Code)
	}
	return app, nil
}

type fileParser struct {
	src   []byte
	lines []string
}

func (p *fileParser) text(n *sitter.Node) string {
	return n.Content(p.src)
}

// appDeclaration returns the marimo.App(...) call of `app = marimo.App(...)`.
func (p *fileParser) appDeclaration(stmt *sitter.Node) *sitter.Node {
	if stmt.NamedChildCount() == 0 {
		return nil
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return nil
	}
	left, right := assign.ChildByFieldName("left"), assign.ChildByFieldName("right")
	if left == nil || right == nil || p.text(left) != "app" || right.Type() != "call" {
		return nil
	}
	if fn := right.ChildByFieldName("function"); fn == nil || p.text(fn) != "marimo.App" {
		return nil
	}
	return right
}

func (p *fileParser) applyAppArgs(call *sitter.Node, cfg *AppConfig) {
	for key, value := range p.keywordArgs(call) {
		switch key {
		case "width":
			cfg.Width = value
		case "app_title":
			cfg.Title = value
		case "layout_file":
			cfg.LayoutFile = value
		case "css_file":
			cfg.CSSFile = value
		}
	}
}

// unparsableCell handles `app._unparsable_cell(r"""...""", name="__")`.
func (p *fileParser) unparsableCell(stmt *sitter.Node) (Cell, bool) {
	call := stmt.NamedChild(0)
	if call == nil || call.Type() != "call" {
		return Cell{}, false
	}
	if fn := call.ChildByFieldName("function"); fn == nil || p.text(fn) != "app._unparsable_cell" {
		return Cell{}, false
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 || args.NamedChild(0).Type() != "string" {
		return Cell{}, false
	}
	name := p.keywordArgs(call)["name"]
	if name == "" {
		name = "__"
	}
	code := strings.Trim(Dedent(unquote(p.text(args.NamedChild(0)))), "\n")
	return Cell{Name: name, Code: code}, true
}

// cell converts an @app.cell decorated function into a Cell.
func (p *fileParser) cell(def *sitter.Node) (Cell, bool) {
	var cfg CellConfig
	isCell := false
	for i := 0; i < int(def.NamedChildCount()); i++ {
		dec := def.NamedChild(i)
		if dec.Type() != "decorator" || dec.NamedChildCount() == 0 {
			continue
		}
		expr := dec.NamedChild(0)
		switch expr.Type() {
		case "attribute":
			isCell = isCell || p.text(expr) == "app.cell"
		case "call":
			if fn := expr.ChildByFieldName("function"); fn != nil && p.text(fn) == "app.cell" {
				isCell = true
				args := p.keywordArgs(expr)
				cfg.Disabled = args["disabled"] == "True"
				cfg.HideCode = args["hide_code"] == "True"
			}
		}
	}
	fn := def.ChildByFieldName("definition")
	if !isCell || fn == nil || fn.Type() != "function_definition" {
		return Cell{}, false
	}

	name := "__"
	if n := fn.ChildByFieldName("name"); n != nil {
		name = p.text(n)
	}
	return Cell{Name: name, Code: p.cellBody(fn), Config: cfg}, true
}

// cellBody returns the dedented function body without its final return.
func (p *fileParser) cellBody(fn *sitter.Node) string {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return ""
	}

	start := -1
	for i := 0; i < int(fn.ChildCount()); i++ {
		if c := fn.Child(i); c.Type() == ":" {
			start = int(c.StartPoint().Row) + 1
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := int(fn.EndPoint().Row)
	if fn.EndPoint().Column == 0 {
		end--
	}
	if last := lastStatement(body); last != nil && last.Type() == "return_statement" {
		end = int(last.StartPoint().Row) - 1
	}
	if end >= len(p.lines) {
		end = len(p.lines) - 1
	}
	if end < start {
		return ""
	}

	code := Dedent(strings.Join(p.lines[start:end+1], "\n"))
	return strings.Trim(code, "\n")
}

func lastStatement(block *sitter.Node) *sitter.Node {
	for i := int(block.NamedChildCount()) - 1; i >= 0; i-- {
		if c := block.NamedChild(i); c.Type() != "comment" {
			return c
		}
	}
	return nil
}

// keywordArgs returns the keyword arguments of a call. String values are
// unquoted, everything else is returned as source text ("True", "3").
func (p *fileParser) keywordArgs(call *sitter.Node) map[string]string {
	out := make(map[string]string)
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return out
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		kw := args.NamedChild(i)
		if kw.Type() != "keyword_argument" {
			continue
		}
		name, value := kw.ChildByFieldName("name"), kw.ChildByFieldName("value")
		if name == nil || value == nil {
			continue
		}
		v := p.text(value)
		if value.Type() == "string" {
			v = unquote(v)
		}
		out[p.text(name)] = v
	}
	return out
}

// unquote strips a Python string literal's prefix and quotes. Escapes are
// decoded for plain double-quoted strings only; raw and triple-quoted
// strings are returned verbatim.
func unquote(lit string) string {
	body := strings.TrimLeft(lit, "rRbBuUfF")
	raw := len(body) != len(lit) && strings.ContainsAny(lit[:len(lit)-len(body)], "rR")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(q) && strings.HasPrefix(body, q) && strings.HasSuffix(body, q) {
			inner := body[len(q) : len(body)-len(q)]
			if q == `"` && !raw {
				if s, err := strconv.Unquote(body); err == nil {
					return s
				}
			}
			return inner
		}
	}
	return lit
}
