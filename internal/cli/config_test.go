package cli

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigPrintsMergedConfig(t *testing.T) {
	home := createTestHome(t)
	useTestStore(t)
	writeConfig(t, home, "[sandbox]\nsupervise = true\n")

	out, _, err := executeRoot(t, "config")
	if err != nil {
		t.Fatalf("execute config: %v", err)
	}
	if !strings.Contains(out, "[sandbox]") || !strings.Contains(out, "supervise = true") {
		t.Fatalf("expected sandbox section from file, got %q", out)
	}
	if !strings.Contains(out, "[log]") {
		t.Fatalf("expected defaults in output, got %q", out)
	}
}

func TestConfigDefault(t *testing.T) {
	createTestHome(t)
	useTestStore(t)

	out, _, err := executeRoot(t, "config", "--default")
	if err != nil {
		t.Fatalf("execute config: %v", err)
	}
	if !strings.Contains(out, "[profiles.example]") {
		t.Fatalf("expected starter profile, got %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	home := createTestHome(t)
	useTestStore(t)

	_, stderr, err := executeRoot(t, "config", "--init")
	if err != nil {
		t.Fatalf("execute config --init: %v", err)
	}
	if !strings.Contains(stderr, filepath.Join(home, "config.toml")) {
		t.Fatalf("expected written path on stderr, got %q", stderr)
	}
	if _, _, err := executeRoot(t, "config", "--init"); err == nil {
		t.Fatalf("second init must fail instead of replacing the file")
	}
}
