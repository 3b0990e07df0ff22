// Package source loads source files into a language-neutral structural
// model. Language frontends register themselves by file extension and
// produce a File describing the constructs the rule evaluators inspect:
// logical units, identifiers, call sites, failure handlers, and loops.
package source

import (
	"crypto/sha256"
	"encoding/hex"
)

// Position is a 1-based line and column in a source file.
type Position struct {
	Line   int
	Column int
}

// Span is the source region a construct occupies.
type Span struct {
	Start Position
	End   Position
}

// IdentKind classifies where an identifier was declared.
type IdentKind string

const (
	IdentFunction  IdentKind = "function"
	IdentParameter IdentKind = "parameter"
	IdentVariable  IdentKind = "variable"
	IdentType      IdentKind = "type"
)

// Identifier is one declared name.
type Identifier struct {
	Name string
	Kind IdentKind
	Span Span

	// Unit indexes the logical unit the identifier belongs to,
	// or -1 for file-scope declarations.
	Unit int
}

// Unit is one logical unit: a function, method, or constructor.
type Unit struct {
	Name string
	Span Span

	// Statements counts statements in the unit body, including
	// statements nested in inner blocks.
	Statements int

	// Branches counts decision points: conditionals, loop headers,
	// switch cases, failure handlers, and boolean operators.
	Branches int
}

// Arg is one call argument.
type Arg struct {
	// Text is the argument's source text.
	Text string

	// Concat is true when the argument is built by string
	// concatenation or interpolation.
	Concat bool
}

// Call is one call site.
type Call struct {
	// Callee is the dotted callee path as written, lowercased,
	// e.g. "db.query" or "fetch".
	Callee string

	Args []Arg
	Span Span

	// Await is true for calls that dispatch or suspend
	// asynchronously: awaited expressions and go statements.
	Await bool

	// Unit indexes the enclosing logical unit, or -1.
	Unit int

	// Loop indexes the innermost enclosing loop, or -1.
	Loop int
}

// Handler is one failure-handling block: a catch or except clause,
// or an error-check branch in languages with error returns.
type Handler struct {
	Span Span

	// Unit indexes the enclosing logical unit, or -1.
	Unit int

	// Statements counts statements in the handler body.
	Statements int

	// Rethrows is true when the body re-raises or panics.
	Rethrows bool

	// ReturnsErr is true when the body returns a value derived
	// from the handled failure.
	ReturnsErr bool

	// StmtCalls lists the callees of statement-level calls in the
	// body, lowercased and in order. A handler whose Statements
	// equals len(StmtCalls) consists only of calls.
	StmtCalls []string
}

// Loop is one loop construct.
type Loop struct {
	Span Span

	// Unit indexes the enclosing logical unit, or -1.
	Unit int

	// Parent indexes the enclosing loop, or -1.
	Parent int
}

// File is the parsed, structural representation of one analyzed file.
// It is produced once by a frontend, never mutated afterwards, and is
// deterministic: identical content yields an identical File.
type File struct {
	// Path is the file path relative to the working directory.
	Path string

	// Language names the frontend that produced the file.
	Language string

	// Hash is a content hash for change detection.
	Hash string

	// Lines is the number of lines in the file.
	Lines int

	Units       []Unit
	Identifiers []Identifier
	Calls       []Call
	Handlers    []Handler
	Loops       []Loop
}

// ComputeHash computes a short content hash for change detection.
func ComputeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8])
}
