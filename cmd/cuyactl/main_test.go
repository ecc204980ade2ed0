package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestChatThenListAndDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "data", "reports.db")

	script := strings.Join([]string{
		"May sunog sa Burgos!",
		"Burgos",
		"Wala namang nasugatan",
		"Katamtaman lang",
		"/quit",
	}, "\n")

	out, err := execute(t, script, "--db", db, "chat")
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	for _, want := range []string{"Saan po nangyari", "Are there any injuries?", "How large is the fire?", "q=Burgos"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected chat output to contain %q, got:\n%s", want, out)
		}
	}

	out, err = execute(t, "", "--db", db, "reports", "list")
	if err != nil {
		t.Fatalf("reports list failed: %v", err)
	}
	if !strings.Contains(out, "Burgos") || !strings.Contains(out, "Katamtaman lang") {
		t.Errorf("expected report in listing, got:\n%s", out)
	}

	if _, err := execute(t, "", "--db", db, "reports", "delete", "1"); err != nil {
		t.Fatalf("reports delete failed: %v", err)
	}
	// Deleting again is not an error.
	if _, err := execute(t, "", "--db", db, "reports", "delete", "1"); err != nil {
		t.Fatalf("repeated delete failed: %v", err)
	}

	out, err = execute(t, "", "--db", db, "reports", "list")
	if err != nil {
		t.Fatalf("reports list failed: %v", err)
	}
	if !strings.Contains(out, "No reports.") {
		t.Errorf("expected empty listing, got:\n%s", out)
	}
}

func TestReportsDelete_InvalidID(t *testing.T) {
	db := filepath.Join(t.TempDir(), "reports.db")
	if _, err := execute(t, "", "--db", db, "reports", "delete", "abc"); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestMigrate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "reports.db")
	out, err := execute(t, "", "--db", db, "migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(out, "schema version 2") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestClassify(t *testing.T) {
	db := filepath.Join(t.TempDir(), "reports.db")

	out, err := execute(t, "", "--db", db, "classify", "May", "sunog", "sa", "Burgos")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if !strings.Contains(out, "intent: emergency (fire") {
		t.Errorf("expected fire intent, got: %s", out)
	}
	if !strings.Contains(out, "geofence: in area (burgos)") {
		t.Errorf("expected in-area verdict, got: %s", out)
	}

	out, _ = execute(t, "", "--db", db, "classify", "asdf")
	if !strings.Contains(out, "intent: unknown") || !strings.Contains(out, "out of area") {
		t.Errorf("expected unknown/out of area, got: %s", out)
	}
}

func TestChat_UsesMapSearchURL(t *testing.T) {
	t.Setenv("MAP_SEARCH_URL", "https://maps.example.com/search?q=")
	db := filepath.Join(t.TempDir(), "reports.db")

	script := strings.Join([]string{"May sunog!", "San Jose", "Wala", "Maliit", "/quit"}, "\n")
	out, err := execute(t, script, "--db", db, "chat")
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if !strings.Contains(out, "https://maps.example.com/search?q=San%20Jose") {
		t.Errorf("expected configured map link, got:\n%s", out)
	}
}

func TestDBPathFromEnv(t *testing.T) {
	db := filepath.Join(t.TempDir(), "env", "reports.db")
	t.Setenv("DB_PATH", db)

	// Clear a --db value left by earlier runs.
	dbPath = ""
	t.Cleanup(func() { dbPath = "" })

	out, err := execute(t, "", "migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(out, db+": schema version 2") {
		t.Errorf("expected env database path, got: %s", out)
	}
}
