// Package javascript parses JavaScript and TypeScript source files into
// the structural model using tree-sitter.
package javascript

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/c360studio/semlint/source"
)

func init() {
	source.DefaultRegistry.Register("typescript",
		[]string{".ts", ".tsx", ".mts", ".cts"},
		func() source.Frontend { return New() })
	source.DefaultRegistry.Register("javascript",
		[]string{".js", ".jsx", ".mjs", ".cjs"},
		func() source.Frontend { return New() })
}

// Frontend parses JavaScript and TypeScript source files.
type Frontend struct{}

// New creates a JavaScript/TypeScript frontend.
func New() *Frontend {
	return &Frontend{}
}

// Language returns the frontend name.
func (f *Frontend) Language() string {
	return "javascript"
}

// Parse decomposes JavaScript or TypeScript source into the structural model.
func (f *Frontend) Parse(ctx context.Context, path string, content []byte) (*source.File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(grammarFor(path))

	tree, err := parser.ParseCtx(ctx, nil, content)
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
		Language: detectLanguage(path),
		Hash:     source.ComputeHash(content),
		Lines:    bytes.Count(content, []byte("\n")) + 1,
	}

	ex := &extractor{content: content, out: file}
	w := &walker{ex: ex, unit: -1}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		w.walk(root.NamedChild(i), -1)
	}

	return file, nil
}

// grammarFor returns the tree-sitter grammar for the file type.
func grammarFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return tsx.GetLanguage()
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// detectLanguage names the language from the file extension.
func detectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return "typescript"
	default:
		return "javascript"
	}
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
	case "function_declaration", "generator_function_declaration":
		if w.unit >= 0 {
			w.stmts++
		}
		w.ex.function(n, w.ex.text(n.ChildByFieldName("name")), n.ChildByFieldName("name"))

	case "method_definition":
		w.ex.function(n, w.ex.text(n.ChildByFieldName("name")), n.ChildByFieldName("name"))

	case "class_declaration", "abstract_class_declaration":
		if w.unit >= 0 {
			w.stmts++
		}
		w.ex.class(n)

	case "interface_declaration", "type_alias_declaration", "enum_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			w.ex.addIdent(w.ex.text(name), source.IdentType, name, -1)
		}

	case "lexical_declaration", "variable_declaration":
		w.stmts++
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "variable_declarator" {
				w.declarator(child, loop)
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
		if init := n.ChildByFieldName("initializer"); init != nil {
			// The header declaration is part of the for statement, not
			// a statement of its own.
			switch init.Type() {
			case "lexical_declaration", "variable_declaration":
				for i := 0; i < int(init.NamedChildCount()); i++ {
					child := init.NamedChild(i)
					if child.Type() == "variable_declarator" {
						w.declarator(child, loop)
					}
				}
			default:
				w.walk(init, loop)
			}
		}
		if cond := n.ChildByFieldName("condition"); cond != nil {
			w.walk(cond, loopIdx)
		}
		if inc := n.ChildByFieldName("increment"); inc != nil {
			w.walk(inc, loopIdx)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.walk(body, loopIdx)
		}

	case "for_in_statement":
		w.stmts++
		w.branches++
		loopIdx := w.ex.addLoop(n, w.unit, loop)
		if left := n.ChildByFieldName("left"); left != nil {
			w.targetIdents(left)
		}
		if right := n.ChildByFieldName("right"); right != nil {
			w.walk(right, loop)
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

	case "switch_statement":
		w.stmts++
		w.walkChildren(n, loop)

	case "switch_case":
		w.branches++
		w.walkChildren(n, loop)

	case "switch_default":
		w.walkChildren(n, loop)

	case "try_statement":
		w.stmts++
		w.walkChildren(n, loop)

	case "catch_clause":
		w.branches++
		w.ex.handler(n, w.unit)
		if param := n.ChildByFieldName("parameter"); param != nil {
			if ident := firstIdentifier(param); ident != nil {
				w.ex.addIdent(w.ex.text(ident), source.IdentParameter, ident, w.unit)
			}
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.walk(body, loop)
		}

	case "expression_statement", "return_statement", "throw_statement",
		"break_statement", "continue_statement", "debugger_statement",
		"export_statement", "import_statement":
		w.stmts++
		w.walkChildren(n, loop)

	case "labeled_statement", "statement_block", "else_clause", "parenthesized_expression":
		w.walkChildren(n, loop)

	case "binary_expression":
		if op := n.ChildByFieldName("operator"); op != nil {
			opText := w.ex.text(op)
			if opText == "&&" || opText == "||" || opText == "??" {
				w.branches++
			}
		}
		w.walkChildren(n, loop)

	case "assignment_expression":
		w.walkChildren(n, loop)

	case "call_expression", "new_expression":
		w.ex.call(n, w.unit, loop)
		if fn := n.ChildByFieldName("function"); fn != nil {
			w.walkChildren(fn, loop)
		}
		if ctor := n.ChildByFieldName("constructor"); ctor != nil {
			w.walkChildren(ctor, loop)
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			w.walkChildren(args, loop)
		}

	case "arrow_function", "function", "function_expression":
		// Anonymous callbacks contribute to the enclosing unit and
		// keep the loop context.
		w.paramIdents(n)
		if body := n.ChildByFieldName("body"); body != nil {
			w.walk(body, loop)
		}

	default:
		w.walkChildren(n, loop)
	}
}

// declarator handles one `name = value` declaration. Declarators whose
// value is a function become named logical units.
func (w *walker) declarator(n *sitter.Node, loop int) {
	nameNode := n.ChildByFieldName("name")
	value := n.ChildByFieldName("value")

	if value != nil && isFunctionValue(value.Type()) && nameNode != nil && nameNode.Type() == "identifier" {
		w.ex.function(value, w.ex.text(nameNode), nameNode)
		return
	}

	if nameNode != nil {
		w.targetIdents(nameNode)
	}
	if value != nil {
		w.walk(value, loop)
	}
}

func isFunctionValue(t string) bool {
	switch t {
	case "arrow_function", "function", "function_expression", "generator_function":
		return true
	}
	return false
}

// targetIdents records binding targets as variables.
func (w *walker) targetIdents(n *sitter.Node) {
	switch n.Type() {
	case "identifier":
		w.ex.addIdent(w.ex.text(n), source.IdentVariable, n, w.unit)
	case "array_pattern", "object_pattern":
		eachNamedDescendant(n, func(d *sitter.Node) {
			if d.Type() == "shorthand_property_identifier_pattern" || d.Type() == "identifier" {
				w.ex.addIdent(w.ex.text(d), source.IdentVariable, d, w.unit)
			}
		})
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "variable_declarator" {
				if name := child.ChildByFieldName("name"); name != nil {
					w.targetIdents(name)
				}
			}
		}
	}
}

// paramIdents records function parameters, unwrapping the TypeScript
// required/optional parameter nodes.
func (w *walker) paramIdents(fn *sitter.Node) {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		// Single-identifier arrow functions: x => ...
		if param := fn.ChildByFieldName("parameter"); param != nil && param.Type() == "identifier" {
			w.ex.addIdent(w.ex.text(param), source.IdentParameter, param, w.unit)
		}
		return
	}

	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case "identifier":
			w.ex.addIdent(w.ex.text(child), source.IdentParameter, child, w.unit)
		case "required_parameter", "optional_parameter", "rest_pattern", "assignment_pattern":
			if ident := firstIdentifier(child); ident != nil {
				w.ex.addIdent(w.ex.text(ident), source.IdentParameter, ident, w.unit)
			}
		}
	}
}

// function extracts one function-like node as a logical unit.
func (e *extractor) function(fn *sitter.Node, name string, nameNode *sitter.Node) {
	unitIdx := len(e.out.Units)
	e.out.Units = append(e.out.Units, source.Unit{
		Name: name,
		Span: e.span(fn),
	})

	if nameNode != nil {
		e.addIdent(name, source.IdentFunction, nameNode, unitIdx)
	}

	w := &walker{ex: e, unit: unitIdx}
	w.paramIdents(fn)
	if body := fn.ChildByFieldName("body"); body != nil {
		w.walk(body, -1)
	}

	e.out.Units[unitIdx].Statements = w.stmts
	e.out.Units[unitIdx].Branches = w.branches
}

// class extracts a class: its name as a type identifier, its methods
// and arrow-valued fields as logical units.
func (e *extractor) class(n *sitter.Node) {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		e.addIdent(e.text(nameNode), source.IdentType, nameNode, -1)
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}

	w := &walker{ex: e, unit: -1}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "method_definition":
			e.function(child, e.text(child.ChildByFieldName("name")), child.ChildByFieldName("name"))
		case "public_field_definition", "field_definition":
			nameNode := child.ChildByFieldName("name")
			value := child.ChildByFieldName("value")
			if value != nil && isFunctionValue(value.Type()) && nameNode != nil {
				e.function(value, e.text(nameNode), nameNode)
			} else {
				if nameNode != nil {
					e.addIdent(e.text(nameNode), source.IdentVariable, nameNode, -1)
				}
				if value != nil {
					w.walk(value, -1)
				}
			}
		default:
			w.walk(child, -1)
		}
	}
}

// call records one call site.
func (e *extractor) call(n *sitter.Node, unit, loop int) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		fn = n.ChildByFieldName("constructor")
	}
	callee := strings.ToLower(flattenCallee(fn, e.content))

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

	await := false
	if parent := n.Parent(); parent != nil && parent.Type() == "await_expression" {
		await = true
	}

	e.out.Calls = append(e.out.Calls, source.Call{
		Callee: callee,
		Args:   args,
		Span:   e.span(n),
		Await:  await,
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
		if ident := firstIdentifier(param); ident != nil {
			alias = e.text(ident)
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
			if expr.Type() == "await_expression" && expr.NamedChildCount() > 0 {
				expr = expr.NamedChild(0)
			}
			if expr.Type() == "call_expression" {
				h.StmtCalls = append(h.StmtCalls,
					strings.ToLower(flattenCallee(expr.ChildByFieldName("function"), e.content)))
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
			case "call_expression":
				callee := strings.ToLower(flattenCallee(d.ChildByFieldName("function"), e.content))
				if callee == "process.exit" {
					h.Rethrows = true
				}
			}
		})
	}

	e.out.Handlers = append(e.out.Handlers, h)
}

// flattenCallee renders a call target as a dotted path.
func flattenCallee(fn *sitter.Node, content []byte) string {
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier", "property_identifier":
		return string(content[fn.StartByte():fn.EndByte()])
	case "member_expression":
		property := fn.ChildByFieldName("property")
		object := fn.ChildByFieldName("object")
		name := ""
		if property != nil {
			name = string(content[property.StartByte():property.EndByte()])
		}
		if base := flattenCallee(object, content); base != "" {
			return base + "." + name
		}
		return name
	case "this":
		return "this"
	}
	return ""
}

// isConcat reports whether an expression builds a string dynamically:
// a + chain with a string operand or a template literal with
// substitutions.
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
	case "template_string":
		return hasNamedChildOfType(n, "template_substitution")
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
	case "string", "template_string":
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
	case "expression_statement", "lexical_declaration", "variable_declaration",
		"return_statement", "if_statement", "for_statement", "for_in_statement",
		"while_statement", "do_statement", "try_statement", "switch_statement",
		"break_statement", "continue_statement", "throw_statement",
		"debugger_statement":
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

func hasNamedChildOfType(n *sitter.Node, t string) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == t {
			return true
		}
	}
	return false
}

func firstIdentifier(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "identifier" {
		return n
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if found := firstIdentifier(n.NamedChild(i)); found != nil {
			return found
		}
	}
	return nil
}
