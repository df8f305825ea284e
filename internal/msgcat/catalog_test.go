package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalogRendersEveryKey(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	keys := c.Keys()
	if len(keys) == 0 {
		t.Fatalf("embedded catalog is empty")
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, "cricket.") {
			t.Fatalf("unexpected key namespace %q", k)
		}
		if !c.Has(k) {
			t.Fatalf("key %q has no template", k)
		}
	}
	got, err := c.Render("cricket.leaderboard_header", map[string]any{"Limit": 10})
	if err != nil || got != "🏆 TOP 10 PLAYERS" {
		t.Fatalf("Render: %q %v", got, err)
	}
	if Default() != Default() {
		t.Fatalf("Default must be a singleton")
	}
}

func TestRenderErrors(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("cricket.nope", nil); err == nil {
		t.Fatalf("missing template must fail")
	}
	if _, err := c.Render("cricket.leaderboard_header", map[string]any{}); err == nil {
		t.Fatalf("missing map key must fail")
	}
}

func TestOverrides(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("a.yaml", "cricket:\n  leaderboard_empty: \"empty!\"\n")
	write("notes.txt", "ignored")

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, _ := c.Render("cricket.leaderboard_empty", nil); got != "empty!" {
		t.Fatalf("override not applied: %q", got)
	}
	if got, _ := c.Render("cricket.reason_defended", nil); got != "DEFENDED SUCCESSFULLY!" {
		t.Fatalf("embedded default lost: %q", got)
	}

	write("b.yml", "cricket:\n  leaderboard_empty: \"again\"\n")
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}

	bad := t.TempDir()
	if err := os.WriteFile(filepath.Join(bad, "x.yaml"), []byte("cricket:\n  help: \"{{.Prefix\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(bad); err == nil {
		t.Fatalf("unparsable template must fail at load")
	}

	nested := t.TempDir()
	if err := os.WriteFile(filepath.Join(nested, "x.yaml"), []byte("cricket:\n  help: [1, 2]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(nested); err == nil {
		t.Fatalf("non-string leaves must fail")
	}
}
