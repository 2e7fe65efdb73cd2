// Package state hands the granted capability set from the launcher to the
// sandboxed process tree through a process-scoped file in the system
// temporary directory, whose path travels in the NONO_CAP_FILE variable.
//
// The launcher encodes its policy with [Encode] and persists it with
// [WriteFile], which refuses to touch anything already present at the
// target path. Inside the sandbox, [Store.Load] treats the inherited path as
// attacker-influenced: it must be absolute, canonicalize into the temp
// directory, carry the exact .nono-<pid>.json name, stay under [MaxFileSize],
// and be a regular file before a single byte is parsed. [Reaper] removes
// files whose owning process has exited.
package state

import (
	"errors"
	"fmt"

	"github.com/neoclaw-ai/nono/internal/capability"
)

// EnvCapFile carries the absolute path of the hand-off file to the sandboxed process.
const EnvCapFile = "NONO_CAP_FILE"

// SandboxState is the wire form of a capability set. It is not validated on
// decode and only describes a policy that was already enforced.
type SandboxState struct {
	FS              []FSState `json:"fs"`
	NetBlocked      bool      `json:"net_blocked"`
	AllowedCommands []string  `json:"allowed_commands"`
	BlockedCommands []string  `json:"blocked_commands"`
}

// FSState is the wire form of one filesystem capability.
type FSState struct {
	Original string `json:"original"`
	Path     string `json:"path"`
	Access   string `json:"access"`
	IsFile   bool   `json:"is_file"`
}

// Encode maps a capability set to its wire form.
func Encode(caps *capability.Set) *SandboxState {
	st := &SandboxState{
		FS:              []FSState{},
		NetBlocked:      !caps.NetAllow,
		AllowedCommands: append([]string{}, caps.AllowedCommands...),
		BlockedCommands: append([]string{}, caps.BlockedCommands...),
	}
	for _, c := range caps.FS() {
		st.FS = append(st.FS, EncodeFS(c))
	}
	return st
}

// EncodeFS maps one filesystem capability to its wire form.
func EncodeFS(c capability.FS) FSState {
	return FSState{
		Original: c.Original(),
		Path:     c.Resolved(),
		Access:   c.Access().Token(),
		IsFile:   c.IsFile(),
	}
}

// Decode rebuilds a capability set for reporting. Paths are not checked for
// existence. A record with an unrecognized access token is rejected whole.
func Decode(st *SandboxState) (*capability.Set, error) {
	caps := capability.NewSet()
	for i, fs := range st.FS {
		access, err := capability.ParseAccess(fs.Access)
		if err != nil {
			return nil, &ParseError{Op: "decode", Err: fmt.Errorf("fs[%d] %s: %w", i, fs.Path, err)}
		}
		caps.AddFS(capability.Restore(fs.Original, fs.Path, access, fs.IsFile))
	}
	caps.NetAllow = !st.NetBlocked
	caps.AllowedCommands = append([]string{}, st.AllowedCommands...)
	caps.BlockedCommands = append([]string{}, st.BlockedCommands...)
	return caps, nil
}

// EnvVarError reports a malformed value in the hand-off variable.
type EnvVarError struct {
	Var    string
	Reason string
}

func (e *EnvVarError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Var, e.Reason)
}

// ValidationError reports a hand-off path that failed a safety check.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capability file validation failed: %s: %v", e.Reason, e.Err)
	}
	return "capability file validation failed: " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TooLargeError reports a hand-off file above the size ceiling.
type TooLargeError struct {
	Size int64
	Max  int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("capability file too large: %d bytes (max %d)", e.Size, e.Max)
}

// WriteError reports a failure to persist the hand-off file. An occupied
// path surfaces as errors.Is(err, fs.ErrExist).
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write sandbox state %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ParseError reports a failure to encode or decode sandbox state.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s sandbox state: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsSecurityError reports whether err came from validating the hand-off path.
func IsSecurityError(err error) bool {
	var (
		envErr      *EnvVarError
		validateErr *ValidationError
		sizeErr     *TooLargeError
	)
	return errors.As(err, &envErr) || errors.As(err, &validateErr) || errors.As(err, &sizeErr)
}
