// Package launcher runs a command under a capability sandbox: it builds the
// policy, records it for the sandboxed program, enforces it, and hands the
// process over to the target command.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/neoclaw-ai/nono/internal/capability"
	"github.com/neoclaw-ai/nono/internal/diagnostic"
	"github.com/neoclaw-ai/nono/internal/logging"
	"github.com/neoclaw-ai/nono/internal/sandbox"
	"github.com/neoclaw-ai/nono/internal/state"
)

// Variables published to the sandboxed program.
const (
	EnvHelp           = "NONO_HELP"
	EnvSensitivePaths = "NONO_SENSITIVE_PATHS"
)

const helpText = "You are running inside a nono sandbox. File access outside granted paths is blocked. " +
	"To grant access, ask the user to re-run nono with: " +
	"--read <path> (read-only), --write <path> (write-only), or --allow <path> (read+write). " +
	"For single files use: --read-file, --write-file, or --allow-file."

var (
	// ErrNoCommand is returned when there is nothing to run.
	ErrNoCommand = errors.New("no command specified")
	// ErrNoCapabilities is returned when the policy grants no filesystem access.
	ErrNoCapabilities = errors.New("no filesystem capabilities specified; use --allow, --read, --write, or --profile")
)

// ExitError carries a supervised command's non-zero exit status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Code)
}

// Banner is the first line nono prints.
func Banner(version string) string {
	return fmt.Sprintf("nono v%s - the opposite of yolo", version)
}

// Request is one launch.
type Request struct {
	// Declarations are applied in order; the first invalid one aborts the launch.
	Declarations []capability.Declaration
	NetAllow     bool
	Command      []string
	DryRun       bool
	// Supervise keeps nono alive as the parent so a failure can be explained.
	Supervise bool
}

// Launcher wires the policy pipeline to the process it runs in.
type Launcher struct {
	Enforcer sandbox.Enforcer
	Store    *state.Store
	Stderr   io.Writer
	Logger   *slog.Logger
	Version  string

	// Exec replaces the current process image and only returns on failure.
	Exec func(path string, argv []string, env []string) error
	// Run starts argv as a child, waits, and returns its exit code.
	Run      func(ctx context.Context, argv []string, env []string) (int, error)
	LookPath func(file string) (string, error)
	Environ  func() []string
	Getpid   func() int
	HomeDir  func() (string, error)
}

// New returns a launcher bound to the current process.
func New(enforcer sandbox.Enforcer, store *state.Store, version string) *Launcher {
	return &Launcher{
		Enforcer: enforcer,
		Store:    store,
		Stderr:   os.Stderr,
		Logger:   logging.Logger(),
		Version:  version,
		Exec:     execProcess,
		Run:      runSupervised,
		LookPath: exec.LookPath,
		Environ:  os.Environ,
		Getpid:   os.Getpid,
		HomeDir:  os.UserHomeDir,
	}
}

// Launch runs req.Command under the policy described by req. Without
// Supervise it does not return on success.
func (l *Launcher) Launch(ctx context.Context, req Request) error {
	if len(req.Command) == 0 {
		return ErrNoCommand
	}

	caps, err := capability.Build(req.Declarations, req.NetAllow)
	if err != nil {
		return err
	}
	if !caps.HasFS() {
		return ErrNoCapabilities
	}
	if err := l.checkSensitive(caps); err != nil {
		return err
	}

	l.printf("%s\n\n", Banner(l.Version))
	l.printf("Capabilities:\n")
	for _, line := range strings.Split(caps.Summary(), "\n") {
		l.printf("  %s\n", line)
	}
	l.printf("\n")

	if !l.Enforcer.IsSupported() {
		return &sandbox.UnsupportedError{Info: l.Enforcer.SupportInfo()}
	}
	l.Logger.Info(l.Enforcer.SupportInfo())
	if sandbox.IsActive() {
		l.Logger.Info("already inside a nono sandbox; the new policy can only narrow access")
	}

	if req.DryRun {
		l.printf("Dry run mode - sandbox would be applied with above capabilities\n")
		l.printf("Command: %q\n", req.Command)
		return nil
	}

	binary, err := l.LookPath(req.Command[0])
	if err != nil {
		return fmt.Errorf("resolve command %q: %w", req.Command[0], err)
	}

	capFile := l.Store.Path(l.Getpid())
	if err := state.WriteFile(capFile, state.Encode(caps)); err != nil {
		return err
	}

	l.printf("Applying sandbox...\n")
	l.Enforcer.AllowRead(capFile)
	if err := l.Enforcer.Apply(caps); err != nil {
		l.removeCapFile(capFile)
		return err
	}
	l.printf("Sandbox active. Restrictions are now in effect.\n\n")
	diag := diagnostic.New(caps)
	l.Logger.Info(diag.Summary())

	argv := l.Enforcer.Command(append([]string{binary}, req.Command[1:]...))
	env := l.environment(capFile)
	l.Logger.Info("executing command", "path", binary, "args", req.Command[1:])

	if !req.Supervise {
		if err := l.Exec(argv[0], argv, env); err != nil {
			l.removeCapFile(capFile)
			return fmt.Errorf("execute %s: %w", binary, err)
		}
		return nil
	}

	code, err := l.Run(ctx, argv, env)
	l.removeCapFile(capFile)
	if err != nil {
		return fmt.Errorf("execute %s: %w", binary, err)
	}
	if code != 0 {
		l.printf("\n%s\n", diag.Footer(code))
		return &ExitError{Code: code}
	}
	return nil
}

// environment returns the current environment with nono's variables replaced.
func (l *Launcher) environment(capFile string) []string {
	ours := map[string]string{
		sandbox.EnvActive: "1",
		EnvHelp:           helpText,
		EnvSensitivePaths: capability.SensitivePathsNotice(),
		state.EnvCapFile:  capFile,
	}
	var env []string
	for _, kv := range l.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := ours[key]; ok {
			continue
		}
		env = append(env, kv)
	}
	for _, key := range []string{sandbox.EnvActive, EnvHelp, EnvSensitivePaths, state.EnvCapFile} {
		env = append(env, key+"="+ours[key])
	}
	return env
}

// checkSensitive refuses grants that would reach a sensitive path without
// naming it. Landlock cannot carve a subtree out of a granted directory.
func (l *Launcher) checkSensitive(caps *capability.Set) error {
	home, err := l.HomeDir()
	if err != nil {
		l.Logger.Debug("resolve home dir for sensitive path check", "err", err)
		return nil
	}
	return capability.CheckSensitive(caps, home)
}

// removeCapFile is best effort. Under Landlock the temp directory may no
// longer be writable; the next invocation's reaper collects the file.
func (l *Launcher) removeCapFile(path string) {
	if err := os.Remove(path); err != nil {
		l.Logger.Debug("remove capability state file", "path", path, "err", err)
	}
}

func (l *Launcher) printf(format string, args ...any) {
	fmt.Fprintf(l.Stderr, format, args...)
}
