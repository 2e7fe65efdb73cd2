package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/neoclaw-ai/nono/internal/capability"
	"github.com/neoclaw-ai/nono/internal/config"
	"github.com/neoclaw-ai/nono/internal/launcher"
	"github.com/neoclaw-ai/nono/internal/state"
)

func createTestHome(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), "nono")
	t.Setenv(config.HomeEnvVar, home)
	return home
}

func writeConfig(t *testing.T, home, body string) {
	t.Helper()
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	if err := os.WriteFile(filepath.Join(home, config.ConfigFilePath), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// useTestStore points every command at a private temp directory.
func useTestStore(t *testing.T) *state.Store {
	t.Helper()
	store := &state.Store{Dir: t.TempDir()}
	orig := newStore
	newStore = func() *state.Store { return store }
	t.Cleanup(func() { newStore = orig })
	return store
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}

type fakeEnforcer struct {
	applied *capability.Set
}

func (f *fakeEnforcer) IsSupported() bool { return true }

func (f *fakeEnforcer) SupportInfo() string { return "fake sandbox" }

func (f *fakeEnforcer) AllowRead(string) {}

func (f *fakeEnforcer) Command(argv []string) []string { return argv }

func (f *fakeEnforcer) Apply(caps *capability.Set) error {
	f.applied = caps
	return nil
}

type launchRecorder struct {
	enforcer *fakeEnforcer
	argv     []string
	env      []string
}

// useFakeLauncher replaces process replacement and enforcement with recorders.
func useFakeLauncher(t *testing.T) *launchRecorder {
	t.Helper()
	rec := &launchRecorder{enforcer: &fakeEnforcer{}}
	orig := newLauncher
	newLauncher = func(store *state.Store) *launcher.Launcher {
		l := launcher.New(rec.enforcer, store, "test")
		l.LookPath = func(file string) (string, error) { return "/bin/" + file, nil }
		l.Exec = func(_ string, argv []string, env []string) error {
			rec.argv = argv
			rec.env = env
			return nil
		}
		return l
	}
	t.Cleanup(func() { newLauncher = orig })
	return rec
}

func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
