package java

import (
	"context"
	"strings"
	"testing"

	"github.com/c360studio/semlint/source"
)

func parseString(t *testing.T, code string) *source.File {
	t.Helper()
	f := New()
	file, err := f.Parse(context.Background(), "Test.java", []byte(code))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return file
}

func findUnit(t *testing.T, file *source.File, name string) source.Unit {
	t.Helper()
	for _, u := range file.Units {
		if u.Name == name {
			return u
		}
	}
	t.Fatalf("unit %q not found, have %v", name, file.Units)
	return source.Unit{}
}

func TestParse_MethodsAndFields(t *testing.T) {
	code := `
public class OrderService {
    private int retries;

    public int total(List<Item> items) {
        int sum = 0;
        for (Item item : items) {
            sum += item.price();
        }
        return sum;
    }
}
`
	file := parseString(t, code)

	if file.Language != "java" {
		t.Errorf("Language = %q, want java", file.Language)
	}
	if len(file.Units) != 1 {
		t.Fatalf("expected 1 unit, got %d: %v", len(file.Units), file.Units)
	}

	total := findUnit(t, file, "total")
	if total.Statements != 4 {
		t.Errorf("total statements = %d, want 4", total.Statements)
	}
	if total.Branches != 1 {
		t.Errorf("total branches = %d, want 1", total.Branches)
	}

	wantKinds := map[string]source.IdentKind{
		"OrderService": source.IdentType,
		"retries":      source.IdentVariable,
		"total":        source.IdentFunction,
		"items":        source.IdentParameter,
		"sum":          source.IdentVariable,
		"item":         source.IdentVariable,
	}
	got := make(map[string]source.IdentKind)
	for _, ident := range file.Identifiers {
		got[ident.Name] = ident.Kind
	}
	for name, kind := range wantKinds {
		if got[name] != kind {
			t.Errorf("identifier %q kind = %q, want %q", name, got[name], kind)
		}
	}
}

func TestParse_BranchCounting(t *testing.T) {
	code := `
class Router {
    int pick(int code, boolean strict) {
        if (code > 0 && strict) {
            return code;
        }
        switch (code) {
        case 1:
            return 1;
        case 2:
            return 2;
        default:
            return 0;
        }
    }
}
`
	file := parseString(t, code)

	pick := findUnit(t, file, "pick")
	// if + && + two non-default case labels
	if pick.Branches != 4 {
		t.Errorf("pick branches = %d, want 4", pick.Branches)
	}
}

func TestParse_CatchHandlers(t *testing.T) {
	code := `
class SyncJob {
    void run(Store store) {
        try {
            store.push();
        } catch (Exception e) {
            throw new RuntimeException("push failed", e);
        }

        try {
            store.cleanup();
        } catch (Exception e) {
            logger.warn("cleanup failed", e);
        }

        try {
            store.refresh();
        } catch (Exception e) {
        }
    }
}
`
	file := parseString(t, code)

	if len(file.Handlers) != 3 {
		t.Fatalf("expected 3 handlers, got %d", len(file.Handlers))
	}

	rethrows := file.Handlers[0]
	if !rethrows.Rethrows {
		t.Error("first handler should rethrow")
	}

	logsOnly := file.Handlers[1]
	if logsOnly.Rethrows || logsOnly.ReturnsErr {
		t.Error("second handler should neither rethrow nor return the failure")
	}
	if logsOnly.Statements != 1 || len(logsOnly.StmtCalls) != 1 {
		t.Fatalf("second handler statements = %d, calls = %v", logsOnly.Statements, logsOnly.StmtCalls)
	}
	if logsOnly.StmtCalls[0] != "logger.warn" {
		t.Errorf("second handler call = %q, want logger.warn", logsOnly.StmtCalls[0])
	}

	empty := file.Handlers[2]
	if empty.Statements != 0 {
		t.Errorf("third handler statements = %d, want 0", empty.Statements)
	}
}

func TestParse_ConcatDetection(t *testing.T) {
	code := `
class Repo {
    void find(Connection db, String name) {
        db.execute("SELECT * FROM users WHERE name = '" + name + "'");
        db.execute("SELECT * FROM users WHERE name = ?", name);
        db.execute(String.format("SELECT * FROM users WHERE name = '%s'", name));
    }
}
`
	file := parseString(t, code)

	var executes []source.Call
	for _, call := range file.Calls {
		if call.Callee == "db.execute" {
			executes = append(executes, call)
		}
	}
	if len(executes) != 3 {
		t.Fatalf("expected 3 db.execute calls, got %d", len(executes))
	}

	if !executes[0].Args[0].Concat {
		t.Error("plus-chain argument should be flagged as concatenation")
	}
	if executes[1].Args[0].Concat {
		t.Error("parameterized query should not be flagged")
	}
	if !executes[2].Args[0].Concat {
		t.Error("String.format argument should be flagged")
	}
}

func TestParse_CallsInLoops(t *testing.T) {
	code := `
class Batch {
    void flush(List<Row> rows) {
        for (Row row : rows) {
            client.send(row);
        }
        client.commit();
    }
}
`
	file := parseString(t, code)

	if len(file.Loops) != 1 {
		t.Fatalf("expected 1 loop, got %d", len(file.Loops))
	}
	if file.Loops[0].Parent != -1 {
		t.Errorf("loop parent = %d, want -1", file.Loops[0].Parent)
	}

	byCallee := make(map[string]source.Call)
	for _, call := range file.Calls {
		byCallee[call.Callee] = call
	}

	send, ok := byCallee["client.send"]
	if !ok {
		t.Fatalf("client.send not found in %v", file.Calls)
	}
	if send.Loop != 0 {
		t.Errorf("client.send loop = %d, want 0", send.Loop)
	}

	commit, ok := byCallee["client.commit"]
	if !ok {
		t.Fatalf("client.commit not found in %v", file.Calls)
	}
	if commit.Loop != -1 {
		t.Errorf("client.commit loop = %d, want -1", commit.Loop)
	}
}

func TestParse_SyntaxError(t *testing.T) {
	f := New()
	_, err := f.Parse(context.Background(), "Broken.java", []byte("class Broken { void run( {"))
	if err == nil {
		t.Fatal("expected parse error for malformed source")
	}
	if !source.IsParseError(err) {
		t.Errorf("error should be a ParseError, got %T", err)
	}
	if !strings.Contains(err.Error(), "Broken.java") {
		t.Errorf("error should name the file: %v", err)
	}
}
