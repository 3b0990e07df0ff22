package golang

import (
	"context"
	"testing"

	"github.com/c360studio/semlint/source"
)

func parseString(t *testing.T, src string) *source.File {
	t.Helper()
	f := New()
	file, err := f.Parse(context.Background(), "sample.go", []byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return file
}

func TestParse_UnitCounts(t *testing.T) {
	file := parseString(t, `package sample

func process(items []string) int {
	total := 0
	for _, item := range items {
		if len(item) > 2 {
			total++
		}
	}
	return total
}
`)

	if len(file.Units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(file.Units))
	}

	unit := file.Units[0]
	if unit.Name != "process" {
		t.Errorf("expected unit name 'process', got %q", unit.Name)
	}
	if unit.Statements != 5 {
		t.Errorf("expected 5 statements, got %d", unit.Statements)
	}
	if unit.Branches != 2 {
		t.Errorf("expected 2 branches (range + if), got %d", unit.Branches)
	}
}

func TestParse_Identifiers(t *testing.T) {
	file := parseString(t, `package sample

type Point struct {
	X, Y int
}

func (p *Point) scale(factor int) {
	doubled := factor * 2
	p.X = doubled
	_ = doubled
}
`)

	byName := make(map[string]source.IdentKind)
	for _, ident := range file.Identifiers {
		byName[ident.Name] = ident.Kind
	}

	if byName["Point"] != source.IdentType {
		t.Errorf("expected Point as type identifier, got %q", byName["Point"])
	}
	if byName["scale"] != source.IdentFunction {
		t.Errorf("expected scale as function identifier, got %q", byName["scale"])
	}
	if byName["factor"] != source.IdentParameter {
		t.Errorf("expected factor as parameter identifier, got %q", byName["factor"])
	}
	if byName["doubled"] != source.IdentVariable {
		t.Errorf("expected doubled as variable identifier, got %q", byName["doubled"])
	}

	// Receiver names follow Go's short-receiver convention and are
	// not subject to naming checks.
	if _, found := byName["p"]; found {
		t.Error("receiver name should not be recorded as an identifier")
	}
}

func TestParse_Handlers(t *testing.T) {
	file := parseString(t, `package sample

func propagates() error {
	if err := step(); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	return nil
}

func logsOnly() {
	if err := step(); err != nil {
		log.Printf("failed: %v", err)
	}
}

func ignores() {
	if err := step(); err != nil {
	}
}

func panics() {
	if err := step(); err != nil {
		panic(err)
	}
}
`)

	if len(file.Handlers) != 4 {
		t.Fatalf("expected 4 handlers, got %d", len(file.Handlers))
	}

	propagates := file.Handlers[0]
	if !propagates.ReturnsErr {
		t.Error("handler returning wrapped error should have ReturnsErr set")
	}

	logsOnly := file.Handlers[1]
	if logsOnly.ReturnsErr || logsOnly.Rethrows {
		t.Error("log-only handler should neither return nor rethrow")
	}
	if logsOnly.Statements != 1 || len(logsOnly.StmtCalls) != 1 {
		t.Errorf("log-only handler: expected 1 statement and 1 call, got %d/%d",
			logsOnly.Statements, len(logsOnly.StmtCalls))
	}
	if logsOnly.StmtCalls[0] != "log.printf" {
		t.Errorf("expected lowercased callee 'log.printf', got %q", logsOnly.StmtCalls[0])
	}

	ignores := file.Handlers[2]
	if ignores.Statements != 0 {
		t.Errorf("empty handler should have 0 statements, got %d", ignores.Statements)
	}

	panics := file.Handlers[3]
	if !panics.Rethrows {
		t.Error("panicking handler should have Rethrows set")
	}
}

func TestParse_CallsAndConcat(t *testing.T) {
	file := parseString(t, `package sample

func queries(id string) {
	db.Query("SELECT * FROM users WHERE id = " + id)
	db.Query("SELECT * FROM users WHERE id = ?", id)
	db.Exec(fmt.Sprintf("DELETE FROM users WHERE id = %s", id))
}
`)

	byCallee := make(map[string][]source.Call)
	for _, call := range file.Calls {
		byCallee[call.Callee] = append(byCallee[call.Callee], call)
	}

	queries := byCallee["db.query"]
	if len(queries) != 2 {
		t.Fatalf("expected 2 db.query calls, got %d", len(queries))
	}
	if !queries[0].Args[0].Concat {
		t.Error("concatenated query argument should be marked Concat")
	}
	if queries[1].Args[0].Concat {
		t.Error("parameterized query argument should not be marked Concat")
	}

	execs := byCallee["db.exec"]
	if len(execs) != 1 {
		t.Fatalf("expected 1 db.exec call, got %d", len(execs))
	}
	if !execs[0].Args[0].Concat {
		t.Error("Sprintf-built argument should be marked Concat")
	}
}

func TestParse_LoopsAndAsync(t *testing.T) {
	file := parseString(t, `package sample

func fanout(items []string) {
	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go process(item)
	}
	wg.Wait()
}
`)

	if len(file.Loops) != 1 {
		t.Fatalf("expected 1 loop, got %d", len(file.Loops))
	}

	var goCall, waitCall *source.Call
	for i := range file.Calls {
		switch file.Calls[i].Callee {
		case "process":
			goCall = &file.Calls[i]
		case "wg.wait":
			waitCall = &file.Calls[i]
		}
	}

	if goCall == nil {
		t.Fatal("expected a call to process")
	}
	if !goCall.Await {
		t.Error("go statement call should be marked Await")
	}
	if goCall.Loop != 0 {
		t.Errorf("go call should be attributed to loop 0, got %d", goCall.Loop)
	}

	if waitCall == nil {
		t.Fatal("expected a call to wg.Wait")
	}
	if waitCall.Loop != -1 {
		t.Errorf("wg.Wait is outside the loop, got loop %d", waitCall.Loop)
	}
}

func TestParse_NestedLoops(t *testing.T) {
	file := parseString(t, `package sample

func nested(grid [][]int) {
	for i := 0; i < len(grid); i++ {
		for j := 0; j < len(grid[i]); j++ {
			visit(grid[i][j])
		}
	}
}
`)

	if len(file.Loops) != 2 {
		t.Fatalf("expected 2 loops, got %d", len(file.Loops))
	}
	if file.Loops[0].Parent != -1 {
		t.Errorf("outer loop parent should be -1, got %d", file.Loops[0].Parent)
	}
	if file.Loops[1].Parent != 0 {
		t.Errorf("inner loop parent should be 0, got %d", file.Loops[1].Parent)
	}

	for _, call := range file.Calls {
		if call.Callee == "visit" && call.Loop != 1 {
			t.Errorf("visit should be attributed to the inner loop, got %d", call.Loop)
		}
	}
}

func TestParse_SyntaxError(t *testing.T) {
	f := New()
	_, err := f.Parse(context.Background(), "broken.go", []byte("package sample\nfunc broken( {\n"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !source.IsParseError(err) {
		t.Errorf("expected ParseError, got %T: %v", err, err)
	}
}

func TestParse_Deterministic(t *testing.T) {
	src := `package sample

func one() { step() }
func two() { step() }
`
	a := parseString(t, src)
	b := parseString(t, src)

	if a.Hash != b.Hash {
		t.Error("identical content should produce identical hashes")
	}
	if len(a.Units) != len(b.Units) || len(a.Calls) != len(b.Calls) {
		t.Error("identical content should produce identical structure")
	}
}
