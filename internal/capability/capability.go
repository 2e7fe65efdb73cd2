// Package capability models the filesystem and network grants of one sandboxed invocation.
package capability

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Access is the filesystem access mode of one grant.
type Access int

const (
	// Read grants read-only access.
	Read Access = iota
	// Write grants write-only access.
	Write
	// ReadWrite grants read and write access.
	ReadWrite
)

// Wire tokens for Access.
const (
	TokenRead      = "read"
	TokenWrite     = "write"
	TokenReadWrite = "readwrite"
)

var (
	ErrPathNotFound         = errors.New("path not found")
	ErrExpectedDirectory    = errors.New("expected a directory")
	ErrExpectedFile         = errors.New("expected a file")
	ErrPathCanonicalization = errors.New("failed to canonicalize path")
	ErrUnknownAccess        = errors.New("unknown access mode")
)

// PathError records why a declared path could not become a capability.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// String renders the access mode for humans.
func (a Access) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "read+write"
	default:
		return fmt.Sprintf("Access(%d)", int(a))
	}
}

// Token returns the fixed wire token for the access mode.
func (a Access) Token() string {
	switch a {
	case Write:
		return TokenWrite
	case ReadWrite:
		return TokenReadWrite
	default:
		return TokenRead
	}
}

// Reads reports whether the mode includes read access.
func (a Access) Reads() bool {
	return a == Read || a == ReadWrite
}

// Writes reports whether the mode includes write access.
func (a Access) Writes() bool {
	return a == Write || a == ReadWrite
}

// ParseAccess maps a wire token back to an Access. Unknown tokens are rejected.
func ParseAccess(token string) (Access, error) {
	switch token {
	case TokenRead:
		return Read, nil
	case TokenWrite:
		return Write, nil
	case TokenReadWrite:
		return ReadWrite, nil
	default:
		return Read, fmt.Errorf("%w %q", ErrUnknownAccess, token)
	}
}

// FS is one granted filesystem permission. Values built by NewDir or NewFile
// existed on disk with the expected type when they were constructed.
type FS struct {
	original string
	resolved string
	access   Access
	isFile   bool
}

// NewDir grants recursive access to an existing directory.
func NewDir(path string, access Access) (FS, error) {
	return newFS(path, access, false)
}

// NewFile grants access to exactly one existing file.
func NewFile(path string, access Access) (FS, error) {
	return newFS(path, access, true)
}

// Restore rebuilds a capability from previously recorded values without
// touching the filesystem. It exists for reporting a policy that was already
// enforced and must never be used to derive a new policy.
func Restore(original, resolved string, access Access, isFile bool) FS {
	return FS{
		original: original,
		resolved: resolved,
		access:   access,
		isFile:   isFile,
	}
}

func newFS(path string, access Access, isFile bool) (FS, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FS{}, &PathError{Path: path, Err: ErrPathNotFound}
		}
		return FS{}, &PathError{Path: path, Err: fmt.Errorf("%w: %w", ErrPathCanonicalization, err)}
	}
	if isFile && !info.Mode().IsRegular() {
		return FS{}, &PathError{Path: path, Err: ErrExpectedFile}
	}
	if !isFile && !info.IsDir() {
		return FS{}, &PathError{Path: path, Err: ErrExpectedDirectory}
	}

	resolved, err := Canonicalize(path)
	if err != nil {
		return FS{}, &PathError{Path: path, Err: fmt.Errorf("%w: %w", ErrPathCanonicalization, err)}
	}

	return FS{
		original: path,
		resolved: resolved,
		access:   access,
		isFile:   isFile,
	}, nil
}

// Canonicalize returns the absolute, symlink-free form of an existing path.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Original is the path exactly as it was declared.
func (c FS) Original() string {
	return c.original
}

// Resolved is the canonical absolute path the grant applies to.
func (c FS) Resolved() string {
	return c.resolved
}

// Access is the granted access mode.
func (c FS) Access() Access {
	return c.access
}

// IsFile reports whether the grant covers a single file rather than a directory tree.
func (c FS) IsFile() bool {
	return c.isFile
}

// Kind returns "file" or "dir".
func (c FS) Kind() string {
	if c.isFile {
		return "file"
	}
	return "dir"
}

// Covers reports whether an absolute, clean path falls under this grant.
func (c FS) Covers(path string) bool {
	if path == c.resolved {
		return true
	}
	if c.isFile {
		return false
	}
	prefix := c.resolved
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

func (c FS) String() string {
	return fmt.Sprintf("%s (%s)", c.resolved, c.access)
}

// Set is the complete policy for one sandboxed invocation. It is built once
// and not modified after it is handed to an enforcer or encoded.
type Set struct {
	fs []FS
	// NetAllow permits all outbound network access; there is no per-host filtering.
	NetAllow bool
	// AllowedCommands and BlockedCommands are reserved and round-tripped as-is.
	AllowedCommands []string
	BlockedCommands []string
}

// NewSet returns an empty capability set with network blocked.
func NewSet() *Set {
	return &Set{}
}

// AddFS appends a filesystem capability in declaration order.
func (s *Set) AddFS(c FS) {
	s.fs = append(s.fs, c)
}

// FS returns the filesystem capabilities in declaration order.
func (s *Set) FS() []FS {
	out := make([]FS, len(s.fs))
	copy(out, s.fs)
	return out
}

// HasFS reports whether at least one filesystem capability is present.
func (s *Set) HasFS() bool {
	return len(s.fs) > 0
}

// Matching returns every grant that covers path, in declaration order.
// Overlapping grants are not merged; how the enforcer combines them is its concern.
func (s *Set) Matching(path string) []FS {
	clean := filepath.Clean(path)
	var out []FS
	for _, c := range s.fs {
		if c.Covers(clean) {
			out = append(out, c)
		}
	}
	return out
}

// Summary renders the set for display.
func (s *Set) Summary() string {
	var lines []string
	if len(s.fs) > 0 {
		lines = append(lines, "Filesystem:")
		for _, c := range s.fs {
			lines = append(lines, fmt.Sprintf("  %s [%s] (%s)", c.resolved, c.access, c.Kind()))
		}
	}

	lines = append(lines, "Network:")
	if s.NetAllow {
		lines = append(lines, "  outbound: allowed")
	} else {
		lines = append(lines, "  outbound: blocked")
	}
	return strings.Join(lines, "\n")
}
