// Package java parses Java source files into the structural model
// using tree-sitter.
package java

import (
	"bytes"
	"context"
	"errors"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/c360studio/semlint/source"
)

func init() {
	source.DefaultRegistry.Register("java",
		[]string{".java"},
		func() source.Frontend { return New() })
}

// Frontend parses Java source files.
type Frontend struct {
	parser *sitter.Parser
}

// New creates a Java frontend.
func New() *Frontend {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	return &Frontend{parser: parser}
}

// Language returns the frontend name.
func (f *Frontend) Language() string {
	return "java"
}

// Parse decomposes Java source into the structural model.
func (f *Frontend) Parse(ctx context.Context, path string, content []byte) (*source.File, error) {
	tree, err := f.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, source.NewParseError(path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, source.NewParseError(path, errors.New("syntax error: source has unbalanced or malformed structure"))
	}

	file := &source.File{
		Path:     path,
		Language: "java",
		Hash:     source.ComputeHash(content),
		Lines:    bytes.Count(content, []byte("\n")) + 1,
	}

	ex := &extractor{content: content, out: file}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		ex.declaration(root.NamedChild(i))
	}

	return file, nil
}

// extractor holds shared state while walking one parse tree.
type extractor struct {
	content []byte
	out     *source.File
}

func (e *extractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(e.content[n.StartByte():n.EndByte()])
}

func (e *extractor) span(n *sitter.Node) source.Span {
	return source.Span{
		Start: source.Position{Line: int(n.StartPoint().Row) + 1, Column: int(n.StartPoint().Column) + 1},
		End:   source.Position{Line: int(n.EndPoint().Row) + 1, Column: int(n.EndPoint().Column) + 1},
	}
}

func (e *extractor) addIdent(name string, kind source.IdentKind, n *sitter.Node, unit int) {
	if name == "" || name == "_" {
		return
	}
	e.out.Identifiers = append(e.out.Identifiers, source.Identifier{
		Name: name,
		Kind: kind,
		Span: e.span(n),
		Unit: unit,
	})
}

func (e *extractor) addLoop(n *sitter.Node, unit, parent int) int {
	e.out.Loops = append(e.out.Loops, source.Loop{
		Span:   e.span(n),
		Unit:   unit,
		Parent: parent,
	})
	return len(e.out.Loops) - 1
}

// declaration walks top-level and type-body declarations.
func (e *extractor) declaration(n *sitter.Node) {
	switch n.Type() {
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration", "annotation_type_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			e.addIdent(e.text(name), source.IdentType, name, -1)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.NamedChildCount()); i++ {
				e.declaration(body.NamedChild(i))
			}
		}

	case "method_declaration", "constructor_declaration":
		e.function(n)

	case "field_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() != "variable_declarator" {
				continue
			}
			if name := child.ChildByFieldName("name"); name != nil {
				e.addIdent(e.text(name), source.IdentVariable, name, -1)
			}
			if value := child.ChildByFieldName("value"); value != nil {
				w := &walker{ex: e, unit: -1}
				w.walk(value, -1)
			}
		}
	}
}

// function extracts one method or constructor as a logical unit.
func (e *extractor) function(fn *sitter.Node) {
	nameNode := fn.ChildByFieldName("name")
	unitIdx := len(e.out.Units)
	e.out.Units = append(e.out.Units, source.Unit{
		Name: e.text(nameNode),
		Span: e.span(fn),
	})

	if nameNode != nil {
		e.addIdent(e.text(nameNode), source.IdentFunction, nameNode, unitIdx)
	}

	w := &walker{ex: e, unit: unitIdx}
	if params := fn.ChildByFieldName("parameters"); params != nil {
		w.paramIdents(params)
	}
	if body := fn.ChildByFieldName("body"); body != nil {
		w.walk(body, -1)
	}

	e.out.Units[unitIdx].Statements = w.stmts
	e.out.Units[unitIdx].Branches = w.branches
}

// walker accumulates statement and branch counts for one unit.
type walker struct {
	ex       *extractor
	unit     int
	stmts    int
	branches int
}

func (w *walker) walkChildren(n *sitter.Node, loop int) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i), loop)
	}
}

func (w *walker) walk(n *sitter.Node, loop int) {
	switch n.Type() {
	case "block", "constructor_body", "labeled_statement", "parenthesized_expression",
		"switch_block", "switch_block_statement_group", "finally_clause":
		w.walkChildren(n, loop)

	case "local_variable_declaration":
		w.stmts++
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() != "variable_declarator" {
				continue
			}
			if name := child.ChildByFieldName("name"); name != nil {
				w.ex.addIdent(w.ex.text(name), source.IdentVariable, name, w.unit)
			}
			if value := child.ChildByFieldName("value"); value != nil {
				w.walk(value, loop)
			}
		}

	case "if_statement":
		w.stmts++
		w.branches++
		w.walkChildren(n, loop)

	case "ternary_expression":
		w.branches++
		w.walkChildren(n, loop)

	case "for_statement":
		w.stmts++
		w.branches++
		loopIdx := w.ex.addLoop(n, w.unit, loop)
		if init := n.ChildByFieldName("init"); init != nil {
			// The header declaration is part of the for statement, not
			// a statement of its own.
			saved := w.stmts
			w.walk(init, loop)
			w.stmts = saved
		}
		if cond := n.ChildByFieldName("condition"); cond != nil {
			w.walk(cond, loopIdx)
		}
		if update := n.ChildByFieldName("update"); update != nil {
			w.walk(update, loopIdx)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.walk(body, loopIdx)
		}

	case "enhanced_for_statement":
		w.stmts++
		w.branches++
		loopIdx := w.ex.addLoop(n, w.unit, loop)
		if name := n.ChildByFieldName("name"); name != nil {
			w.ex.addIdent(w.ex.text(name), source.IdentVariable, name, w.unit)
		}
		if value := n.ChildByFieldName("value"); value != nil {
			w.walk(value, loop)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.walk(body, loopIdx)
		}

	case "while_statement", "do_statement":
		w.stmts++
		w.branches++
		loopIdx := w.ex.addLoop(n, w.unit, loop)
		if cond := n.ChildByFieldName("condition"); cond != nil {
			w.walk(cond, loopIdx)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.walk(body, loopIdx)
		}

	case "switch_expression", "switch_statement":
		w.stmts++
		w.walkChildren(n, loop)

	case "switch_label":
		if w.ex.text(n) != "default" {
			w.branches++
		}

	case "switch_rule":
		if label := n.NamedChild(0); label != nil && w.ex.text(label) != "default" {
			w.branches++
		}
		w.walkChildren(n, loop)

	case "try_statement", "try_with_resources_statement":
		w.stmts++
		w.walkChildren(n, loop)

	case "catch_clause":
		w.branches++
		w.ex.handler(n, w.unit)
		if param := n.ChildByFieldName("parameter"); param != nil {
			if name := param.ChildByFieldName("name"); name != nil {
				w.ex.addIdent(w.ex.text(name), source.IdentParameter, name, w.unit)
			}
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.walk(body, loop)
		}

	case "expression_statement", "return_statement", "throw_statement",
		"break_statement", "continue_statement", "assert_statement",
		"yield_statement", "synchronized_statement":
		w.stmts++
		w.walkChildren(n, loop)

	case "binary_expression":
		if op := n.ChildByFieldName("operator"); op != nil {
			opText := w.ex.text(op)
			if opText == "&&" || opText == "||" {
				w.branches++
			}
		}
		w.walkChildren(n, loop)

	case "method_invocation", "object_creation_expression":
		w.ex.call(n, w.unit, loop)
		if object := n.ChildByFieldName("object"); object != nil {
			w.walk(object, loop)
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			w.walkChildren(args, loop)
		}

	case "lambda_expression":
		// Lambdas contribute to the enclosing unit. The loop context
		// is kept: a lambda created per iteration runs per iteration.
		if params := n.ChildByFieldName("parameters"); params != nil {
			w.paramIdents(params)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.walk(body, loop)
		}

	case "local_class_declaration":
		w.stmts++

	default:
		w.walkChildren(n, loop)
	}
}

// paramIdents records formal and lambda parameters.
func (w *walker) paramIdents(params *sitter.Node) {
	if params.Type() == "identifier" {
		w.ex.addIdent(w.ex.text(params), source.IdentParameter, params, w.unit)
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case "formal_parameter", "spread_parameter", "catch_formal_parameter":
			if name := child.ChildByFieldName("name"); name != nil {
				w.ex.addIdent(w.ex.text(name), source.IdentParameter, name, w.unit)
			} else if ident := lastIdentifier(child); ident != nil {
				w.ex.addIdent(w.ex.text(ident), source.IdentParameter, ident, w.unit)
			}
		case "identifier":
			w.ex.addIdent(w.ex.text(child), source.IdentParameter, child, w.unit)
		case "inferred_parameters":
			w.paramIdents(child)
		}
	}
}

// call records one call site.
func (e *extractor) call(n *sitter.Node, unit, loop int) {
	var callee string
	switch n.Type() {
	case "method_invocation":
		name := e.text(n.ChildByFieldName("name"))
		if base := flattenObject(n.ChildByFieldName("object"), e.content); base != "" {
			callee = base + "." + name
		} else {
			callee = name
		}
	case "object_creation_expression":
		callee = "new." + e.text(n.ChildByFieldName("type"))
	}

	var args []source.Arg
	if argList := n.ChildByFieldName("arguments"); argList != nil {
		for i := 0; i < int(argList.NamedChildCount()); i++ {
			arg := argList.NamedChild(i)
			args = append(args, source.Arg{
				Text:   e.text(arg),
				Concat: isConcat(arg, e.content),
			})
		}
	}

	e.out.Calls = append(e.out.Calls, source.Call{
		Callee: strings.ToLower(callee),
		Args:   args,
		Span:   e.span(n),
		Unit:   unit,
		Loop:   loop,
	})
}

// handler records a catch clause as a failure handler.
func (e *extractor) handler(clause *sitter.Node, unit int) {
	h := source.Handler{
		Span: e.span(clause),
		Unit: unit,
	}

	alias := ""
	if param := clause.ChildByFieldName("parameter"); param != nil {
		if name := param.ChildByFieldName("name"); name != nil {
			alias = e.text(name)
		}
	}

	body := clause.ChildByFieldName("body")
	if body != nil {
		h.Statements = countStmts(body)

		for i := 0; i < int(body.NamedChildCount()); i++ {
			child := body.NamedChild(i)
			if child.Type() != "expression_statement" || child.NamedChildCount() != 1 {
				continue
			}
			expr := child.NamedChild(0)
			if expr.Type() == "method_invocation" {
				name := e.text(expr.ChildByFieldName("name"))
				stmtCall := name
				if base := flattenObject(expr.ChildByFieldName("object"), e.content); base != "" {
					stmtCall = base + "." + name
				}
				h.StmtCalls = append(h.StmtCalls, strings.ToLower(stmtCall))
			}
		}

		eachNamedDescendant(body, func(d *sitter.Node) {
			switch d.Type() {
			case "throw_statement":
				h.Rethrows = true
			case "return_statement":
				if alias != "" && mentionsName(d, alias, e.content) {
					h.ReturnsErr = true
				}
			case "method_invocation":
				name := strings.ToLower(e.text(d.ChildByFieldName("name")))
				base := strings.ToLower(flattenObject(d.ChildByFieldName("object"), e.content))
				if base == "system" && name == "exit" {
					h.Rethrows = true
				}
			}
		})
	}

	e.out.Handlers = append(e.out.Handlers, h)
}

// flattenObject renders a call receiver as a dotted path.
func flattenObject(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier":
		return string(content[n.StartByte():n.EndByte()])
	case "field_access":
		field := n.ChildByFieldName("field")
		name := ""
		if field != nil {
			name = string(content[field.StartByte():field.EndByte()])
		}
		if base := flattenObject(n.ChildByFieldName("object"), content); base != "" {
			return base + "." + name
		}
		return name
	case "this":
		return "this"
	}
	return ""
}

// isConcat reports whether an expression builds a string dynamically:
// a + chain with a string operand or a String.format invocation.
func isConcat(n *sitter.Node, content []byte) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "binary_expression":
		op := n.ChildByFieldName("operator")
		if op == nil || string(content[op.StartByte():op.EndByte()]) != "+" {
			return false
		}
		return containsString(n.ChildByFieldName("left"), content) ||
			containsString(n.ChildByFieldName("right"), content)
	case "method_invocation":
		name := n.ChildByFieldName("name")
		object := n.ChildByFieldName("object")
		if name != nil && object != nil {
			callee := strings.ToLower(flattenObject(object, content) + "." +
				string(content[name.StartByte():name.EndByte()]))
			return callee == "string.format" || callee == "messageformat.format"
		}
	case "parenthesized_expression":
		if n.NamedChildCount() > 0 {
			return isConcat(n.NamedChild(0), content)
		}
	}
	return false
}

// containsString walks a + chain looking for a string operand.
func containsString(n *sitter.Node, content []byte) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "string_literal", "text_block":
		return true
	case "binary_expression":
		return containsString(n.ChildByFieldName("left"), content) ||
			containsString(n.ChildByFieldName("right"), content)
	case "parenthesized_expression":
		if n.NamedChildCount() > 0 {
			return containsString(n.NamedChild(0), content)
		}
	}
	return false
}

// countStmts counts statement nodes under n, including nested ones.
func countStmts(n *sitter.Node) int {
	count := 0
	eachNamedDescendant(n, func(d *sitter.Node) {
		if isStmtType(d.Type()) {
			count++
		}
	})
	return count
}

func isStmtType(t string) bool {
	switch t {
	case "expression_statement", "local_variable_declaration", "return_statement",
		"if_statement", "for_statement", "enhanced_for_statement", "while_statement",
		"do_statement", "try_statement", "try_with_resources_statement",
		"switch_expression", "switch_statement", "break_statement",
		"continue_statement", "throw_statement", "assert_statement",
		"yield_statement", "synchronized_statement":
		return true
	}
	return false
}

// mentionsName reports whether the subtree references the given name.
func mentionsName(n *sitter.Node, name string, content []byte) bool {
	found := false
	eachNamedDescendant(n, func(d *sitter.Node) {
		if d.Type() == "identifier" && string(content[d.StartByte():d.EndByte()]) == name {
			found = true
		}
	})
	return found
}

func eachNamedDescendant(n *sitter.Node, fn func(*sitter.Node)) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		fn(child)
		eachNamedDescendant(child, fn)
	}
}

func lastIdentifier(n *sitter.Node) *sitter.Node {
	var found *sitter.Node
	eachNamedDescendant(n, func(d *sitter.Node) {
		if d.Type() == "identifier" {
			found = d
		}
	})
	return found
}
