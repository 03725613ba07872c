package notebook

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrParse indicates tree-sitter could not produce a syntax tree.
var ErrParse = errors.New("python parse failed")

// parseTree parses Python source. A fresh parser is used per call because
// sitter.Parser is not safe for concurrent use.
func parseTree(src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return tree, nil
}

// Analyze returns the names a cell reads from other cells (refs) and the
// names it exports (defs), both sorted. Names starting with an underscore are
// cell-private and never exported; builtins are never refs.
func Analyze(code string) (refs, defs []string) {
	src := []byte(code)
	tree, err := parseTree(src)
	if err != nil {
		return nil, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	a := &analyzer{src: src}

	bound := make(map[string]bool)
	a.collectBindings(root, bound)

	loads := make(map[string]bool)
	a.walkLoads(root, nil, nil, loads)

	for name := range loads {
		if !bound[name] && !pythonBuiltins[name] {
			refs = append(refs, name)
		}
	}
	for name := range bound {
		if !strings.HasPrefix(name, "_") {
			defs = append(defs, name)
		}
	}
	sort.Strings(refs)
	sort.Strings(defs)
	return refs, defs
}

type analyzer struct {
	src []byte
}

func (a *analyzer) text(n *sitter.Node) string {
	return n.Content(a.src)
}

// collectBindings records names bound at the scope of node: assignments,
// walrus targets, imports, def/class names, loop, with and except targets.
// Function and class bodies open new scopes and are not entered.
func (a *analyzer) collectBindings(node *sitter.Node, out map[string]bool) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		a.bindNamedExpressions(child, out)
		switch child.Type() {
		case "expression_statement":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				a.bindAssignment(child.NamedChild(j), out)
			}
		case "import_statement":
			a.bindImport(child, out)
		case "import_from_statement":
			a.bindFromImport(child, out)
		case "function_definition", "class_definition":
			if name := child.ChildByFieldName("name"); name != nil {
				out[a.text(name)] = true
			}
		case "decorated_definition":
			if def := child.ChildByFieldName("definition"); def != nil {
				if name := def.ChildByFieldName("name"); name != nil {
					out[a.text(name)] = true
				}
			}
		case "for_statement":
			a.bindTargets(child.ChildByFieldName("left"), out)
			a.collectBindings(child, out)
		case "with_statement":
			a.bindWith(child, out)
			a.collectBindings(child, out)
		case "except_clause", "except_group_clause":
			a.bindExcept(child, out)
			a.collectBindings(child, out)
		case "if_statement", "while_statement", "try_statement", "match_statement",
			"block", "elif_clause", "else_clause", "finally_clause",
			"case_clause":
			a.collectBindings(child, out)
		}
	}
}

func (a *analyzer) bindAssignment(n *sitter.Node, out map[string]bool) {
	switch n.Type() {
	case "assignment":
		a.bindTargets(n.ChildByFieldName("left"), out)
		// a = b = 1 nests the second assignment on the right.
		if right := n.ChildByFieldName("right"); right != nil && right.Type() == "assignment" {
			a.bindAssignment(right, out)
		}
	case "augmented_assignment":
		a.bindTargets(n.ChildByFieldName("left"), out)
	}
}

// bindTargets binds identifiers in an assignment target. Attribute and
// subscript targets mutate existing objects and bind nothing.
func (a *analyzer) bindTargets(n *sitter.Node, out map[string]bool) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier":
		out[a.text(n)] = true
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list",
		"list_splat_pattern", "parenthesized_expression", "expression_list":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			a.bindTargets(n.NamedChild(i), out)
		}
	}
}

// bindNamedExpressions binds walrus targets in n that belong to the current
// scope. Comprehensions are entered because := binds in the enclosing scope.
func (a *analyzer) bindNamedExpressions(n *sitter.Node, out map[string]bool) {
	switch n.Type() {
	case "function_definition", "class_definition", "decorated_definition", "lambda", "block":
		return
	case "named_expression":
		if name := n.ChildByFieldName("name"); name != nil {
			out[a.text(name)] = true
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		a.bindNamedExpressions(n.NamedChild(i), out)
	}
}

// bindExcept binds the name after "as" in an except clause.
func (a *analyzer) bindExcept(n *sitter.Node, out map[string]bool) {
	afterAs := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch {
		case child.Type() == "as":
			afterAs = true
		case afterAs && child.IsNamed():
			a.bindTargets(child, out)
			return
		case child.Type() == "as_pattern":
			if target := child.ChildByFieldName("alias"); target != nil {
				for j := 0; j < int(target.NamedChildCount()); j++ {
					a.bindTargets(target.NamedChild(j), out)
				}
			}
			return
		}
	}
}

func (a *analyzer) bindImport(n *sitter.Node, out map[string]bool) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			// import a.b binds a
			if child.NamedChildCount() > 0 {
				out[a.text(child.NamedChild(0))] = true
			}
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				out[a.text(alias)] = true
			}
		}
	}
}

func (a *analyzer) bindFromImport(n *sitter.Node, out map[string]bool) {
	afterImport := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() == "import" {
			afterImport = true
			continue
		}
		if !afterImport {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			out[a.text(child)] = true
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				out[a.text(alias)] = true
			}
		}
	}
}

func (a *analyzer) bindWith(n *sitter.Node, out map[string]bool) {
	var visit func(*sitter.Node)
	visit = func(x *sitter.Node) {
		if x.Type() == "as_pattern_target" {
			for i := 0; i < int(x.NamedChildCount()); i++ {
				a.bindTargets(x.NamedChild(i), out)
			}
			return
		}
		if x.Type() == "block" {
			return
		}
		for i := 0; i < int(x.NamedChildCount()); i++ {
			visit(x.NamedChild(i))
		}
	}
	visit(n)
}

// walkLoads records identifiers read in node that are not local to an
// enclosing function, lambda, comprehension or class body. Class-body names
// (classLocals) are not visible inside nested functions.
func (a *analyzer) walkLoads(n *sitter.Node, locals, classLocals, out map[string]bool) {
	switch n.Type() {
	case "identifier":
		name := a.text(n)
		if !locals[name] && !classLocals[name] && isLoad(n) {
			out[name] = true
		}
		return
	case "import_statement", "import_from_statement", "future_import_statement",
		"global_statement", "nonlocal_statement":
		return
	case "function_definition", "lambda":
		locals = extend(locals, a.functionLocals(n))
		classLocals = nil
	case "class_definition":
		// Bases and keywords are evaluated in the enclosing scope.
		if bases := n.ChildByFieldName("superclasses"); bases != nil {
			a.walkLoads(bases, locals, classLocals, out)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			scope := make(map[string]bool)
			a.collectBindings(body, scope)
			a.walkLoads(body, locals, scope, out)
		}
		return
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		locals = extend(locals, a.comprehensionLocals(n))
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		a.walkLoads(n.NamedChild(i), locals, classLocals, out)
	}
}

func (a *analyzer) functionLocals(fn *sitter.Node) map[string]bool {
	locals := make(map[string]bool)
	if params := fn.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			if name := paramName(params.NamedChild(i)); name != nil {
				locals[a.text(name)] = true
			}
		}
	}
	if body := fn.ChildByFieldName("body"); body != nil && body.Type() == "block" {
		a.collectBindings(body, locals)
	}
	return locals
}

func (a *analyzer) comprehensionLocals(n *sitter.Node) map[string]bool {
	locals := make(map[string]bool)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "for_in_clause" {
			a.bindTargets(child.ChildByFieldName("left"), locals)
		}
	}
	return locals
}

// paramName returns the identifier a parameter node binds.
func paramName(p *sitter.Node) *sitter.Node {
	switch p.Type() {
	case "identifier":
		return p
	case "default_parameter", "typed_default_parameter":
		return p.ChildByFieldName("name")
	case "typed_parameter", "list_splat_pattern", "dictionary_splat_pattern":
		if p.NamedChildCount() == 0 {
			return nil
		}
		return paramName(p.NamedChild(0))
	}
	return nil
}

// isLoad reports whether an identifier is a read rather than an attribute
// name, keyword, parameter or definition name.
func isLoad(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return true
	}
	switch p.Type() {
	case "attribute":
		return !sameNode(p.ChildByFieldName("attribute"), n)
	case "keyword_argument", "function_definition", "class_definition",
		"default_parameter", "typed_default_parameter":
		return !sameNode(p.ChildByFieldName("name"), n)
	case "named_expression":
		return !sameNode(p.ChildByFieldName("name"), n)
	case "except_clause", "except_group_clause":
		prev := n.PrevSibling()
		return prev == nil || prev.Type() != "as"
	case "parameters", "lambda_parameters", "as_pattern_target":
		return false
	case "typed_parameter":
		return !sameNode(p.NamedChild(0), n)
	case "list_splat_pattern", "dictionary_splat_pattern":
		if pp := p.Parent(); pp != nil {
			return pp.Type() != "parameters" && pp.Type() != "lambda_parameters" && pp.Type() != "typed_parameter"
		}
	}
	return true
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

func extend(base, extra map[string]bool) map[string]bool {
	merged := make(map[string]bool, len(base)+len(extra))
	for k := range base {
		merged[k] = true
	}
	for k := range extra {
		merged[k] = true
	}
	return merged
}

var pythonBuiltins = func() map[string]bool {
	names := []string{
		"abs", "aiter", "all", "anext", "any", "ascii", "bin", "bool", "breakpoint",
		"bytearray", "bytes", "callable", "chr", "classmethod", "compile", "complex",
		"copyright", "credits", "delattr", "dict", "dir", "divmod", "enumerate", "eval",
		"exec", "exit", "filter", "float", "format", "frozenset", "getattr", "globals",
		"hasattr", "hash", "help", "hex", "id", "input", "int", "isinstance",
		"issubclass", "iter", "len", "license", "list", "locals", "map", "max",
		"memoryview", "min", "next", "object", "oct", "open", "ord", "pow", "print",
		"property", "quit", "range", "repr", "reversed", "round", "set", "setattr",
		"slice", "sorted", "staticmethod", "str", "sum", "super", "tuple", "type",
		"vars", "zip", "__import__", "__name__", "__file__", "__doc__", "__builtins__",
		"NotImplemented", "Ellipsis",
		"BaseException", "BaseExceptionGroup", "Exception", "ExceptionGroup",
		"ArithmeticError", "AssertionError", "AttributeError", "BlockingIOError",
		"BrokenPipeError", "BufferError", "ConnectionError", "EOFError",
		"FileExistsError", "FileNotFoundError", "FloatingPointError", "GeneratorExit",
		"ImportError", "IndentationError", "IndexError", "InterruptedError",
		"IsADirectoryError", "KeyError", "KeyboardInterrupt", "LookupError",
		"MemoryError", "ModuleNotFoundError", "NameError", "NotADirectoryError",
		"NotImplementedError", "OSError", "OverflowError", "PermissionError",
		"RecursionError", "ReferenceError", "RuntimeError", "StopAsyncIteration",
		"StopIteration", "SyntaxError", "SystemError", "SystemExit", "TimeoutError",
		"TypeError", "UnboundLocalError", "UnicodeDecodeError", "UnicodeEncodeError",
		"UnicodeError", "ValueError", "ZeroDivisionError",
		"DeprecationWarning", "FutureWarning", "RuntimeWarning", "UserWarning", "Warning",
	}
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}()
