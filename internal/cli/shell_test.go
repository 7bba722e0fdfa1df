package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rackinv/internal/inventory"
)

func newTestShell(t *testing.T, input string, opts ...inventory.Option) (*Shell, *bytes.Buffer, *inventory.Store) {
	t.Helper()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append(opts, inventory.WithLogger(discard))
	store, err := inventory.Open(filepath.Join(t.TempDir(), "servers.json"), opts...)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	var out bytes.Buffer
	sh := NewShell(store, NewUI(&out, "never"), strings.NewReader(input), discard)
	return sh, &out, store
}

func mustContain(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(out, w) {
			t.Fatalf("output missing %q:\n%s", w, out)
		}
	}
}

func TestShellSession(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"add", "Dell R740", "SN1", "Rack-A1", "admin",
		"ADD", "HPE DL380", "sn1", "Rack-B1", "ops",
		"list",
		"search", "DELL",
		"search", "nomatch",
		"",
		"bogus",
		"delete", "sn1",
		"list",
		"export",
		"exit",
		"list",
	}, "\n") + "\n"

	sh, out, store := newTestShell(t, input)
	if err := sh.Run(); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	got := out.String()
	mustContain(t, got,
		"Server Inventory Management System",
		"Available Commands",
		"Server added successfully!",
		"Error: a server with this serial number already exists",
		"Search Results for 'dell'",
		"Dell R740",
		"No matching servers found.",
		"Invalid command. Type 'help' for available commands.",
		"Server deleted successfully!",
		"No servers found in inventory.",
		"Error: no servers found to export",
		"Exiting program...",
	)
	if strings.Count(got, "Server added successfully!") != 1 {
		t.Fatalf("expected exactly one successful add:\n%s", got)
	}

	servers, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(servers) != 0 {
		t.Fatalf("expected empty store, got %v", servers)
	}
}

func TestShellAddRejectsShortInput(t *testing.T) {
	sh, out, store := newTestShell(t, "add\nX\nexit\n")
	if err := sh.Run(); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	mustContain(t, out.String(), "product_name must be at least 2 characters long")
	servers, _ := store.Load()
	if len(servers) != 0 {
		t.Fatalf("nothing should be stored, got %v", servers)
	}
}

func TestShellEOFMidCommand(t *testing.T) {
	sh, out, _ := newTestShell(t, "add\nDell R740\n")
	if err := sh.Run(); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	mustContain(t, out.String(), "Operation cancelled.", "Input terminated. Exiting...")
}

func TestShellExport(t *testing.T) {
	dir := t.TempDir()
	input := "add\nDell R740\nSN1\nRack-A1\nadmin\nexport\nexit\n"
	sh, out, _ := newTestShell(t, input, inventory.WithExportDir(dir))
	if err := sh.Run(); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	mustContain(t, out.String(), "Server inventory exported successfully!", "Absolute file path:", dir)

	matches, err := filepath.Glob(filepath.Join(dir, "server_inventory_*.csv"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one export file, got %v (%v)", matches, err)
	}
	b, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "Product Name,Serial Number,Rack Location,Username") {
		t.Fatalf("unexpected csv:\n%s", b)
	}
}

func TestShellCheck(t *testing.T) {
	sh, out, store := newTestShell(t, "check\nexit\n")
	if err := os.WriteFile(store.Path(), []byte(`[{"product_name":"a"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := sh.Run(); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	mustContain(t, out.String(), "problem(s)")
}
