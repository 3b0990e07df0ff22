// Package python parses Python source files into the structural model
// using tree-sitter.
package python

import (
	"bytes"
	"context"
	"errors"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/c360studio/semlint/source"
)

func init() {
	source.DefaultRegistry.Register("python", []string{".py"},
		func() source.Frontend { return New() })
}

// Frontend parses Python source files using tree-sitter.
type Frontend struct {
	parser *sitter.Parser
}

// New creates a Python frontend.
func New() *Frontend {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Frontend{parser: p}
}

// Language returns the frontend name.
func (f *Frontend) Language() string {
	return "python"
}

// Parse decomposes Python source into the structural model.
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
		Language: "python",
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
	if name == "" || name == "_" || name == "self" || name == "cls" {
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
	case "function_definition":
		if w.unit >= 0 {
			w.stmts++
		}
		w.ex.function(n)

	case "decorated_definition":
		if def := findDefinition(n); def != nil {
			w.walk(def, loop)
		}

	case "class_definition":
		if w.unit >= 0 {
			w.stmts++
		}
		w.ex.class(n)

	case "if_statement":
		w.stmts++
		w.branches++
		w.walkChildren(n, loop)

	case "elif_clause":
		w.branches++
		w.walkChildren(n, loop)

	case "for_statement":
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

	case "while_statement":
		w.stmts++
		w.branches++
		loopIdx := w.ex.addLoop(n, w.unit, loop)
		if cond := n.ChildByFieldName("condition"); cond != nil {
			w.walk(cond, loopIdx)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.walk(body, loopIdx)
		}

	case "try_statement":
		w.stmts++
		w.walkChildren(n, loop)

	case "except_clause":
		w.branches++
		w.ex.handler(n, w.unit)
		w.walkChildren(n, loop)

	case "match_statement":
		w.stmts++
		w.walkChildren(n, loop)

	case "case_clause":
		w.branches++
		w.walkChildren(n, loop)

	case "with_statement":
		w.stmts++
		w.walkChildren(n, loop)

	case "as_pattern_target":
		if ident := firstIdentifier(n); ident != nil {
			w.ex.addIdent(w.ex.text(ident), source.IdentVariable, ident, w.unit)
		}

	case "expression_statement", "return_statement", "raise_statement",
		"assert_statement", "pass_statement", "break_statement",
		"continue_statement", "delete_statement", "global_statement",
		"nonlocal_statement", "import_statement", "import_from_statement",
		"exec_statement", "print_statement":
		w.stmts++
		w.walkChildren(n, loop)

	case "assignment":
		if left := n.ChildByFieldName("left"); left != nil {
			w.targetIdents(left)
		}
		if right := n.ChildByFieldName("right"); right != nil {
			w.walk(right, loop)
		}

	case "augmented_assignment":
		if right := n.ChildByFieldName("right"); right != nil {
			w.walk(right, loop)
		}

	case "call":
		w.ex.call(n, w.unit, loop)
		if fn := n.ChildByFieldName("function"); fn != nil {
			w.walkChildren(fn, loop)
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			w.walkChildren(args, loop)
		}

	case "boolean_operator":
		w.branches++
		w.walkChildren(n, loop)

	case "conditional_expression":
		w.branches++
		w.walkChildren(n, loop)

	case "lambda":
		if params := n.ChildByFieldName("parameters"); params != nil {
			w.paramIdents(params)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.walk(body, loop)
		}

	default:
		w.walkChildren(n, loop)
	}
}

// targetIdents records assignment or loop targets as variables.
func (w *walker) targetIdents(n *sitter.Node) {
	switch n.Type() {
	case "identifier":
		w.ex.addIdent(w.ex.text(n), source.IdentVariable, n, w.unit)
	case "pattern_list", "tuple_pattern", "list_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			w.targetIdents(n.NamedChild(i))
		}
	}
}

// paramIdents records function parameters.
func (w *walker) paramIdents(params *sitter.Node) {
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case "identifier":
			w.ex.addIdent(w.ex.text(child), source.IdentParameter, child, w.unit)
		case "typed_parameter", "default_parameter", "typed_default_parameter",
			"list_splat_pattern", "dictionary_splat_pattern":
			if ident := firstIdentifier(child); ident != nil {
				w.ex.addIdent(w.ex.text(ident), source.IdentParameter, ident, w.unit)
			}
		}
	}
}

// function extracts one def as a logical unit.
func (e *extractor) function(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode)

	unitIdx := len(e.out.Units)
	e.out.Units = append(e.out.Units, source.Unit{
		Name: name,
		Span: e.span(n),
	})

	e.addIdent(name, source.IdentFunction, nameNode, unitIdx)

	w := &walker{ex: e, unit: unitIdx}
	if params := n.ChildByFieldName("parameters"); params != nil {
		w.paramIdents(params)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body, -1)
	}

	e.out.Units[unitIdx].Statements = w.stmts
	e.out.Units[unitIdx].Branches = w.branches
}

// class extracts a class: its name as a type identifier and its
// methods as logical units.
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
		case "function_definition":
			e.function(child)
		case "decorated_definition":
			if def := findDefinition(child); def != nil && def.Type() == "function_definition" {
				e.function(def)
			}
		default:
			w.walk(child, -1)
		}
	}
}

// call records one call site.
func (e *extractor) call(n *sitter.Node, unit, loop int) {
	fn := n.ChildByFieldName("function")
	callee := strings.ToLower(flattenCallee(fn, e.content))

	var args []source.Arg
	if argList := n.ChildByFieldName("arguments"); argList != nil {
		for i := 0; i < int(argList.NamedChildCount()); i++ {
			arg := argList.NamedChild(i)
			value := arg
			if arg.Type() == "keyword_argument" {
				if v := arg.ChildByFieldName("value"); v != nil {
					value = v
				}
			}
			args = append(args, source.Arg{
				Text:   e.text(arg),
				Concat: isConcat(value, e.content),
			})
		}
	}

	await := false
	if parent := n.Parent(); parent != nil && parent.Type() == "await" {
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

// handler records an except clause as a failure handler.
func (e *extractor) handler(clause *sitter.Node, unit int) {
	h := source.Handler{
		Span: e.span(clause),
		Unit: unit,
	}

	block := lastChildOfType(clause, "block")
	alias := exceptAlias(clause, e.content)

	if block != nil {
		h.Statements = countStmts(block)

		for i := 0; i < int(block.NamedChildCount()); i++ {
			child := block.NamedChild(i)
			if child.Type() != "expression_statement" || child.NamedChildCount() != 1 {
				continue
			}
			expr := child.NamedChild(0)
			if expr.Type() == "call" {
				h.StmtCalls = append(h.StmtCalls,
					strings.ToLower(flattenCallee(expr.ChildByFieldName("function"), e.content)))
			}
		}

		eachNamedDescendant(block, func(d *sitter.Node) {
			switch d.Type() {
			case "raise_statement":
				h.Rethrows = true
			case "return_statement":
				if alias != "" && mentionsName(d, alias, e.content) {
					h.ReturnsErr = true
				}
			case "call":
				callee := strings.ToLower(flattenCallee(d.ChildByFieldName("function"), e.content))
				if callee == "sys.exit" || callee == "os._exit" {
					h.Rethrows = true
				}
			}
		})
	}

	e.out.Handlers = append(e.out.Handlers, h)
}

// findDefinition returns the definition wrapped by a decorated_definition.
func findDefinition(n *sitter.Node) *sitter.Node {
	if def := n.ChildByFieldName("definition"); def != nil {
		return def
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "function_definition", "class_definition":
			return child
		}
	}
	return nil
}

// flattenCallee renders a call target as a dotted path.
func flattenCallee(fn *sitter.Node, content []byte) string {
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return string(content[fn.StartByte():fn.EndByte()])
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		object := fn.ChildByFieldName("object")
		name := ""
		if attr != nil {
			name = string(content[attr.StartByte():attr.EndByte()])
		}
		if base := flattenCallee(object, content); base != "" {
			return base + "." + name
		}
		return name
	}
	return ""
}

// isConcat reports whether an expression builds a string dynamically:
// + or % with a string operand, an f-string with substitutions, or a
// str.format call.
func isConcat(n *sitter.Node, content []byte) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "binary_operator":
		op := n.ChildByFieldName("operator")
		if op == nil {
			return false
		}
		opText := string(content[op.StartByte():op.EndByte()])
		if opText != "+" && opText != "%" {
			return false
		}
		return containsString(n.ChildByFieldName("left"), content) ||
			containsString(n.ChildByFieldName("right"), content)
	case "string":
		return hasNamedChildOfType(n, "interpolation")
	case "call":
		fn := n.ChildByFieldName("function")
		if fn != nil && fn.Type() == "attribute" {
			attr := fn.ChildByFieldName("attribute")
			object := fn.ChildByFieldName("object")
			if attr != nil && object != nil &&
				string(content[attr.StartByte():attr.EndByte()]) == "format" &&
				object.Type() == "string" {
				return true
			}
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
	case "string", "concatenated_string":
		return true
	case "binary_operator":
		return containsString(n.ChildByFieldName("left"), content) ||
			containsString(n.ChildByFieldName("right"), content)
	case "parenthesized_expression":
		if n.NamedChildCount() > 0 {
			return containsString(n.NamedChild(0), content)
		}
	}
	return false
}

// exceptAlias extracts the bound name from `except E as name`.
func exceptAlias(clause *sitter.Node, content []byte) string {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "block":
			continue
		case "as_pattern":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				if ident := firstIdentifier(alias); ident != nil {
					return string(content[ident.StartByte():ident.EndByte()])
				}
			}
			if count := int(child.NamedChildCount()); count > 1 {
				if ident := firstIdentifier(child.NamedChild(count - 1)); ident != nil {
					return string(content[ident.StartByte():ident.EndByte()])
				}
			}
		case "identifier":
			// `except E, name` legacy form or grammar without as_pattern
			if i > 0 {
				return string(content[child.StartByte():child.EndByte()])
			}
		}
	}
	return ""
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
	case "expression_statement", "return_statement", "raise_statement",
		"assert_statement", "pass_statement", "break_statement",
		"continue_statement", "delete_statement", "global_statement",
		"nonlocal_statement", "import_statement", "import_from_statement",
		"exec_statement", "print_statement", "if_statement", "for_statement",
		"while_statement", "try_statement", "with_statement",
		"match_statement", "function_definition", "class_definition":
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

func lastChildOfType(n *sitter.Node, t string) *sitter.Node {
	var last *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == t {
			last = child
		}
	}
	return last
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
