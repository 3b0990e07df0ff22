// Package golang parses Go source files into the structural model
// using the standard library parser.
package golang

import (
	"bytes"
	"context"
	goast "go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/c360studio/semlint/source"
)

func init() {
	source.DefaultRegistry.Register("go", []string{".go"},
		func() source.Frontend { return New() })
}

// Frontend parses Go source files.
type Frontend struct{}

// New creates a Go frontend.
func New() *Frontend {
	return &Frontend{}
}

// Language returns the frontend name.
func (f *Frontend) Language() string {
	return "go"
}

// Parse decomposes Go source into the structural model.
func (f *Frontend) Parse(ctx context.Context, path string, content []byte) (*source.File, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fset := token.NewFileSet()
	astFile, err := parser.ParseFile(fset, path, content, parser.SkipObjectResolution)
	if err != nil {
		return nil, source.NewParseError(path, err)
	}

	file := &source.File{
		Path:     path,
		Language: "go",
		Hash:     source.ComputeHash(content),
		Lines:    bytes.Count(content, []byte("\n")) + 1,
	}

	ex := &extractor{fset: fset, content: content, out: file}
	for _, decl := range astFile.Decls {
		ex.declaration(decl)
	}

	return file, nil
}

// extractor walks one parsed file and fills in the structural model.
type extractor struct {
	fset    *token.FileSet
	content []byte
	out     *source.File
}

func (e *extractor) span(n goast.Node) source.Span {
	start := e.fset.Position(n.Pos())
	end := e.fset.Position(n.End())
	return source.Span{
		Start: source.Position{Line: start.Line, Column: start.Column},
		End:   source.Position{Line: end.Line, Column: end.Column},
	}
}

func (e *extractor) text(n goast.Node) string {
	start := e.fset.Position(n.Pos()).Offset
	end := e.fset.Position(n.End()).Offset
	if start < 0 || end > len(e.content) || start > end {
		return ""
	}
	return string(e.content[start:end])
}

func (e *extractor) addIdent(name string, kind source.IdentKind, n goast.Node, unit int) {
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

func (e *extractor) addLoop(n goast.Node, unit, parent int) int {
	e.out.Loops = append(e.out.Loops, source.Loop{
		Span:   e.span(n),
		Unit:   unit,
		Parent: parent,
	})
	return len(e.out.Loops) - 1
}

// declaration extracts top-level declarations.
func (e *extractor) declaration(decl goast.Decl) {
	switch d := decl.(type) {
	case *goast.FuncDecl:
		e.function(d)

	case *goast.GenDecl:
		w := &walker{ex: e, unit: -1}
		for _, spec := range d.Specs {
			switch s := spec.(type) {
			case *goast.TypeSpec:
				e.addIdent(s.Name.Name, source.IdentType, s.Name, -1)
				e.typeFields(s.Type)
			case *goast.ValueSpec:
				for _, name := range s.Names {
					e.addIdent(name.Name, source.IdentVariable, name, -1)
				}
				for _, value := range s.Values {
					w.expr(value, -1)
				}
			}
		}
	}
}

// typeFields records struct field names as identifiers.
func (e *extractor) typeFields(expr goast.Expr) {
	st, ok := expr.(*goast.StructType)
	if !ok || st.Fields == nil {
		return
	}
	for _, field := range st.Fields.List {
		for _, name := range field.Names {
			e.addIdent(name.Name, source.IdentVariable, name, -1)
		}
	}
}

// function extracts one function or method declaration.
// Receiver names are deliberately not recorded: one-letter receivers
// are conventional Go style, not a naming defect.
func (e *extractor) function(fn *goast.FuncDecl) {
	unitIdx := len(e.out.Units)
	e.out.Units = append(e.out.Units, source.Unit{
		Name: fn.Name.Name,
		Span: e.span(fn),
	})

	e.addIdent(fn.Name.Name, source.IdentFunction, fn.Name, unitIdx)

	if fn.Type.Params != nil {
		for _, field := range fn.Type.Params.List {
			for _, name := range field.Names {
				e.addIdent(name.Name, source.IdentParameter, name, unitIdx)
			}
		}
	}
	if fn.Type.Results != nil {
		for _, field := range fn.Type.Results.List {
			for _, name := range field.Names {
				e.addIdent(name.Name, source.IdentParameter, name, unitIdx)
			}
		}
	}

	if fn.Body == nil {
		return
	}

	w := &walker{ex: e, unit: unitIdx}
	w.block(fn.Body, -1)
	e.out.Units[unitIdx].Statements = w.stmts
	e.out.Units[unitIdx].Branches = w.branches
}

// walker accumulates statement and branch counts for one unit while
// extracting identifiers, calls, handlers, and loops.
type walker struct {
	ex       *extractor
	unit     int
	stmts    int
	branches int
}

func (w *walker) block(b *goast.BlockStmt, loop int) {
	for _, s := range b.List {
		w.stmt(s, loop)
	}
}

func (w *walker) stmt(s goast.Stmt, loop int) {
	switch st := s.(type) {
	case nil:
		return

	case *goast.BlockStmt:
		// Braces alone are not a statement
		w.block(st, loop)

	case *goast.IfStmt:
		w.stmts++
		w.branches++
		if st.Init != nil {
			w.stmt(st.Init, loop)
		}
		w.expr(st.Cond, loop)
		if errName, ok := errCheckName(st.Cond); ok {
			w.ex.handler(st, errName, w.unit)
		}
		w.block(st.Body, loop)
		if st.Else != nil {
			w.stmt(st.Else, loop)
		}

	case *goast.ForStmt:
		w.stmts++
		w.branches++
		loopIdx := w.ex.addLoop(st, w.unit, loop)
		if st.Init != nil {
			w.stmt(st.Init, loop)
		}
		if st.Cond != nil {
			w.expr(st.Cond, loopIdx)
		}
		if st.Post != nil {
			w.stmt(st.Post, loopIdx)
		}
		w.block(st.Body, loopIdx)

	case *goast.RangeStmt:
		w.stmts++
		w.branches++
		loopIdx := w.ex.addLoop(st, w.unit, loop)
		if st.Tok == token.DEFINE {
			if ident, ok := st.Key.(*goast.Ident); ok {
				w.ex.addIdent(ident.Name, source.IdentVariable, ident, w.unit)
			}
			if ident, ok := st.Value.(*goast.Ident); ok {
				w.ex.addIdent(ident.Name, source.IdentVariable, ident, w.unit)
			}
		}
		w.expr(st.X, loop)
		w.block(st.Body, loopIdx)

	case *goast.SwitchStmt:
		w.stmts++
		if st.Init != nil {
			w.stmt(st.Init, loop)
		}
		if st.Tag != nil {
			w.expr(st.Tag, loop)
		}
		for _, clause := range st.Body.List {
			cc, ok := clause.(*goast.CaseClause)
			if !ok {
				continue
			}
			// default clauses are not decision points
			if cc.List != nil {
				w.branches++
			}
			for _, x := range cc.List {
				w.expr(x, loop)
			}
			for _, body := range cc.Body {
				w.stmt(body, loop)
			}
		}

	case *goast.TypeSwitchStmt:
		w.stmts++
		if st.Init != nil {
			w.stmt(st.Init, loop)
		}
		w.stmt(st.Assign, loop)
		for _, clause := range st.Body.List {
			cc, ok := clause.(*goast.CaseClause)
			if !ok {
				continue
			}
			if cc.List != nil {
				w.branches++
			}
			for _, body := range cc.Body {
				w.stmt(body, loop)
			}
		}

	case *goast.SelectStmt:
		w.stmts++
		for _, clause := range st.Body.List {
			cc, ok := clause.(*goast.CommClause)
			if !ok {
				continue
			}
			if cc.Comm != nil {
				w.branches++
				w.stmt(cc.Comm, loop)
			}
			for _, body := range cc.Body {
				w.stmt(body, loop)
			}
		}

	case *goast.AssignStmt:
		w.stmts++
		if st.Tok == token.DEFINE {
			for _, lhs := range st.Lhs {
				if ident, ok := lhs.(*goast.Ident); ok {
					w.ex.addIdent(ident.Name, source.IdentVariable, ident, w.unit)
				}
			}
		} else {
			for _, lhs := range st.Lhs {
				w.expr(lhs, loop)
			}
		}
		for _, rhs := range st.Rhs {
			w.expr(rhs, loop)
		}

	case *goast.DeclStmt:
		w.stmts++
		if gd, ok := st.Decl.(*goast.GenDecl); ok {
			for _, spec := range gd.Specs {
				if vs, ok := spec.(*goast.ValueSpec); ok {
					for _, name := range vs.Names {
						w.ex.addIdent(name.Name, source.IdentVariable, name, w.unit)
					}
					for _, value := range vs.Values {
						w.expr(value, loop)
					}
				}
			}
		}

	case *goast.ExprStmt:
		w.stmts++
		w.expr(st.X, loop)

	case *goast.GoStmt:
		w.stmts++
		w.call(st.Call, loop, true)

	case *goast.DeferStmt:
		w.stmts++
		w.call(st.Call, loop, false)

	case *goast.ReturnStmt:
		w.stmts++
		for _, result := range st.Results {
			w.expr(result, loop)
		}

	case *goast.SendStmt:
		w.stmts++
		w.expr(st.Chan, loop)
		w.expr(st.Value, loop)

	case *goast.IncDecStmt:
		w.stmts++
		w.expr(st.X, loop)

	case *goast.LabeledStmt:
		w.stmt(st.Stmt, loop)

	default:
		// break, continue, goto, fallthrough, empty
		w.stmts++
	}
}

func (w *walker) expr(x goast.Expr, loop int) {
	switch ex := x.(type) {
	case nil:
		return

	case *goast.CallExpr:
		w.call(ex, loop, false)

	case *goast.BinaryExpr:
		if ex.Op == token.LAND || ex.Op == token.LOR {
			w.branches++
		}
		w.expr(ex.X, loop)
		w.expr(ex.Y, loop)

	case *goast.UnaryExpr:
		w.expr(ex.X, loop)

	case *goast.StarExpr:
		w.expr(ex.X, loop)

	case *goast.ParenExpr:
		w.expr(ex.X, loop)

	case *goast.SelectorExpr:
		w.expr(ex.X, loop)

	case *goast.IndexExpr:
		w.expr(ex.X, loop)
		w.expr(ex.Index, loop)

	case *goast.SliceExpr:
		w.expr(ex.X, loop)
		w.expr(ex.Low, loop)
		w.expr(ex.High, loop)
		w.expr(ex.Max, loop)

	case *goast.TypeAssertExpr:
		w.expr(ex.X, loop)

	case *goast.CompositeLit:
		for _, elt := range ex.Elts {
			w.expr(elt, loop)
		}

	case *goast.KeyValueExpr:
		w.expr(ex.Value, loop)

	case *goast.FuncLit:
		// Closures contribute to the enclosing unit. The loop context
		// is kept: a closure launched per iteration runs per iteration.
		for _, field := range ex.Type.Params.List {
			for _, name := range field.Names {
				w.ex.addIdent(name.Name, source.IdentParameter, name, w.unit)
			}
		}
		w.block(ex.Body, loop)
	}
}

// call records one call site and walks its arguments.
func (w *walker) call(call *goast.CallExpr, loop int, await bool) {
	args := make([]source.Arg, 0, len(call.Args))
	for _, arg := range call.Args {
		args = append(args, source.Arg{
			Text:   w.ex.text(arg),
			Concat: isConcatExpr(arg),
		})
	}

	w.ex.out.Calls = append(w.ex.out.Calls, source.Call{
		Callee: strings.ToLower(calleeName(call.Fun)),
		Args:   args,
		Span:   w.ex.span(call),
		Await:  await,
		Unit:   w.unit,
		Loop:   loop,
	})

	w.expr(call.Fun, loop)
	for _, arg := range call.Args {
		w.expr(arg, loop)
	}
}

// calleeName renders a call target as a dotted path as written.
func calleeName(fn goast.Expr) string {
	switch f := fn.(type) {
	case *goast.Ident:
		return f.Name
	case *goast.SelectorExpr:
		if base := calleeName(f.X); base != "" {
			return base + "." + f.Sel.Name
		}
		return f.Sel.Name
	case *goast.IndexExpr:
		return calleeName(f.X)
	case *goast.ParenExpr:
		return calleeName(f.X)
	case *goast.StarExpr:
		return calleeName(f.X)
	}
	return ""
}

// isConcatExpr reports whether an expression builds a string by
// concatenation or interpolation: a + chain with a string literal
// operand, or a fmt.Sprintf call.
func isConcatExpr(x goast.Expr) bool {
	switch ex := x.(type) {
	case *goast.BinaryExpr:
		if ex.Op != token.ADD {
			return false
		}
		return hasStringOperand(ex)
	case *goast.CallExpr:
		name := strings.ToLower(calleeName(ex.Fun))
		return name == "fmt.sprintf"
	case *goast.ParenExpr:
		return isConcatExpr(ex.X)
	}
	return false
}

// hasStringOperand walks a + chain looking for a string literal.
func hasStringOperand(x goast.Expr) bool {
	switch ex := x.(type) {
	case *goast.BasicLit:
		return ex.Kind == token.STRING
	case *goast.BinaryExpr:
		if ex.Op != token.ADD {
			return false
		}
		return hasStringOperand(ex.X) || hasStringOperand(ex.Y)
	case *goast.ParenExpr:
		return hasStringOperand(ex.X)
	}
	return false
}

// errCheckName matches the `err != nil` condition shape and returns
// the guarded identifier.
func errCheckName(cond goast.Expr) (string, bool) {
	be, ok := cond.(*goast.BinaryExpr)
	if !ok || be.Op != token.NEQ {
		return "", false
	}

	x, xOK := be.X.(*goast.Ident)
	y, yOK := be.Y.(*goast.Ident)
	if !xOK || !yOK {
		return "", false
	}

	if y.Name == "nil" && isErrName(x.Name) {
		return x.Name, true
	}
	if x.Name == "nil" && isErrName(y.Name) {
		return y.Name, true
	}
	return "", false
}

func isErrName(name string) bool {
	lower := strings.ToLower(name)
	return lower == "e" || strings.Contains(lower, "err")
}

// handler records an `if err != nil` block as a failure handler.
func (e *extractor) handler(st *goast.IfStmt, errName string, unit int) {
	h := source.Handler{
		Span: e.span(st),
		Unit: unit,
	}

	h.Statements = countStmts(st.Body)

	for _, s := range st.Body.List {
		es, ok := s.(*goast.ExprStmt)
		if !ok {
			continue
		}
		if call, ok := es.X.(*goast.CallExpr); ok {
			h.StmtCalls = append(h.StmtCalls, strings.ToLower(calleeName(call.Fun)))
		}
	}

	goast.Inspect(st.Body, func(n goast.Node) bool {
		switch node := n.(type) {
		case *goast.CallExpr:
			if isTerminalCall(node) {
				h.Rethrows = true
			}
		case *goast.ReturnStmt:
			if len(node.Results) > 0 && mentionsIdent(node, errName) {
				h.ReturnsErr = true
			}
		}
		return true
	})

	e.out.Handlers = append(e.out.Handlers, h)
}

// countStmts counts statements in a block, including nested ones.
func countStmts(b *goast.BlockStmt) int {
	count := 0
	goast.Inspect(b, func(n goast.Node) bool {
		switch n.(type) {
		case *goast.BlockStmt, nil:
			return true
		case goast.Stmt:
			count++
		}
		return true
	})
	return count
}

// isTerminalCall matches calls that abort or re-raise: panic,
// os.Exit, and the log Fatal family.
func isTerminalCall(call *goast.CallExpr) bool {
	name := strings.ToLower(calleeName(call.Fun))
	if name == "panic" || name == "os.exit" {
		return true
	}
	return strings.HasSuffix(name, ".fatal") ||
		strings.HasSuffix(name, ".fatalf") ||
		strings.HasSuffix(name, ".fatalln")
}

// mentionsIdent reports whether the node references the named identifier.
func mentionsIdent(n goast.Node, name string) bool {
	found := false
	goast.Inspect(n, func(node goast.Node) bool {
		if ident, ok := node.(*goast.Ident); ok && ident.Name == name {
			found = true
			return false
		}
		return !found
	})
	return found
}
