package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neoclaw-ai/nono/internal/capability"
	"github.com/neoclaw-ai/nono/internal/launcher"
	"github.com/neoclaw-ai/nono/internal/profile"
	"github.com/neoclaw-ai/nono/internal/state"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"why", "profiles", "config", "version"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil {
			t.Fatalf("find %s command: %v", name, err)
		}
		if sub == nil || sub.Name() != name {
			t.Fatalf("%s command not registered", name)
		}
	}
}

func TestLaunchFlagParsing(t *testing.T) {
	createTestHome(t)
	useTestStore(t)
	rec := useFakeLauncher(t)
	src := t.TempDir()
	out := t.TempDir()

	_, stderr, err := executeRoot(t, "--read", src, "--write", out, "--net-allow", "--", "cargo", "build", "--release")
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, stderr)
	}
	if strings.Join(rec.argv, " ") != "/bin/cargo build --release" {
		t.Fatalf("unexpected argv %q", rec.argv)
	}
	caps := rec.enforcer.applied
	if caps == nil || !caps.NetAllow {
		t.Fatalf("expected network allowed, got %+v", caps)
	}
	grants := caps.FS()
	if len(grants) != 2 || grants[0].Access() != capability.Read || grants[1].Access() != capability.Write {
		t.Fatalf("unexpected grants:\n%s", caps.Summary())
	}
	if !strings.Contains(stderr, "the opposite of yolo") {
		t.Fatalf("expected banner on stderr, got %q", stderr)
	}
}

func TestLaunchDeclarationOrder(t *testing.T) {
	home := createTestHome(t)
	useTestStore(t)
	rec := useFakeLauncher(t)
	profDir := t.TempDir()
	writeConfig(t, home, "[profiles.mine]\nread = [\""+profDir+"\"]\n")

	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, stderr, err := executeRoot(t,
		"--write-file", file,
		"--read-file", file,
		"--allow-file", file,
		"--write", dir,
		"--read", dir,
		"--allow", dir,
		"--profile", "mine",
		"--", "true",
	)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, stderr)
	}

	var got []string
	for _, fs := range rec.enforcer.applied.FS() {
		got = append(got, fs.Access().String()+"/"+fs.Kind())
	}
	want := []string{"read/dir", "read+write/dir", "read/dir", "write/dir", "read+write/file", "read/file", "write/file"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestLaunchNetBlockOverridesProfile(t *testing.T) {
	createTestHome(t)
	useTestStore(t)
	rec := useFakeLauncher(t)
	t.Chdir(t.TempDir())

	_, stderr, err := executeRoot(t, "--profile", "opencode", "--net-allow", "--net-block", "--", "opencode")
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, stderr)
	}
	if rec.enforcer.applied.NetAllow {
		t.Fatalf("--net-block must win over profile and --net-allow")
	}
}

func TestLaunchConfigNetworkDefault(t *testing.T) {
	home := createTestHome(t)
	useTestStore(t)
	rec := useFakeLauncher(t)
	writeConfig(t, home, "[sandbox]\nnet_allow = true\n")

	if _, stderr, err := executeRoot(t, "--allow", t.TempDir(), "--", "true"); err != nil {
		t.Fatalf("execute: %v\n%s", err, stderr)
	}
	if !rec.enforcer.applied.NetAllow {
		t.Fatalf("expected network default from config")
	}
}

func TestLaunchProfileDefaultCommand(t *testing.T) {
	home := createTestHome(t)
	useTestStore(t)
	rec := useFakeLauncher(t)
	writeConfig(t, home, "[profiles.docs]\nallow = [\"$WORKDIR\"]\ncommand = \"make 'docs site'\"\n")
	t.Chdir(t.TempDir())

	if _, stderr, err := executeRoot(t, "--profile", "docs"); err != nil {
		t.Fatalf("execute: %v\n%s", err, stderr)
	}
	if strings.Join(rec.argv, "|") != "/bin/make|docs site" {
		t.Fatalf("unexpected argv %q", rec.argv)
	}
}

func TestLaunchUnknownProfile(t *testing.T) {
	createTestHome(t)
	useTestStore(t)
	useFakeLauncher(t)

	_, _, err := executeRoot(t, "--profile", "missing", "--", "true")
	if !errors.Is(err, profile.ErrUnknownProfile) {
		t.Fatalf("expected ErrUnknownProfile, got %v", err)
	}
}

func TestLaunchRequiresCommand(t *testing.T) {
	createTestHome(t)
	useTestStore(t)
	useFakeLauncher(t)

	_, _, err := executeRoot(t, "--allow", t.TempDir())
	if !errors.Is(err, launcher.ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
}

func TestLaunchRequiresCapabilities(t *testing.T) {
	createTestHome(t)
	useTestStore(t)
	useFakeLauncher(t)

	_, _, err := executeRoot(t, "--net-allow", "--", "true")
	if !errors.Is(err, launcher.ErrNoCapabilities) {
		t.Fatalf("expected ErrNoCapabilities, got %v", err)
	}
}

func TestLaunchDryRun(t *testing.T) {
	createTestHome(t)
	store := useTestStore(t)
	rec := useFakeLauncher(t)

	_, stderr, err := executeRoot(t, "--allow", t.TempDir(), "--dry-run", "--", "true")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if rec.argv != nil || rec.enforcer.applied != nil {
		t.Fatalf("dry run must not enforce or exec")
	}
	if !strings.Contains(stderr, "Dry run mode") {
		t.Fatalf("expected dry run notice, got %q", stderr)
	}
	entries, err := os.ReadDir(store.Dir)
	if err != nil {
		t.Fatalf("read store dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("dry run must not write state files, found %d", len(entries))
	}
}

func TestReaperRunsOnEveryInvocation(t *testing.T) {
	createTestHome(t)
	store := useTestStore(t)
	// Pid 2^31-1 cannot be a live process on any supported platform.
	stale := store.Path(2147483647)
	if err := os.WriteFile(stale, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write stale file: %v", err)
	}

	if _, _, err := executeRoot(t, "version"); err != nil {
		t.Fatalf("execute version: %v", err)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected stale state file to be reaped, got %v", err)
	}
}

func TestLaunchPublishesStateFile(t *testing.T) {
	createTestHome(t)
	store := useTestStore(t)
	rec := useFakeLauncher(t)

	if _, stderr, err := executeRoot(t, "--allow", t.TempDir(), "--", "true"); err != nil {
		t.Fatalf("execute: %v\n%s", err, stderr)
	}
	var capFile string
	for _, kv := range rec.env {
		if v, ok := strings.CutPrefix(kv, state.EnvCapFile+"="); ok {
			capFile = v
		}
	}
	if capFile != store.Path(os.Getpid()) {
		t.Fatalf("expected %s=%s, got %q", state.EnvCapFile, store.Path(os.Getpid()), capFile)
	}
	if _, err := os.Stat(capFile); err != nil {
		t.Fatalf("state file must exist after exec: %v", err)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	home := createTestHome(t)
	useTestStore(t)
	writeConfig(t, home, "[log]\ncolor = \"rainbow\"\n")

	if _, _, err := executeRoot(t, "version"); err == nil {
		t.Fatalf("expected config validation error")
	}
}

func TestVersionCommand(t *testing.T) {
	createTestHome(t)
	useTestStore(t)

	out, _, err := executeRoot(t, "version")
	if err != nil {
		t.Fatalf("execute version: %v", err)
	}
	for _, want := range []string{"nono v" + Version + " - the opposite of yolo", "commit:  " + Commit, "sandbox: "} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in version output %q", want, out)
		}
	}
}
