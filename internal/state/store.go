package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	filePrefix = ".nono-"
	fileSuffix = ".json"

	// MaxFileSize bounds the hand-off file accepted at read time.
	MaxFileSize int64 = 1_048_576
)

// Environment is the process environment inherited from the launcher.
type Environment interface {
	LookupEnv(key string) (string, bool)
}

// OSEnvironment reads the real process environment.
type OSEnvironment struct{}

// LookupEnv implements Environment.
func (OSEnvironment) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnvironment is a fixed environment snapshot.
type MapEnvironment map[string]string

// LookupEnv implements Environment.
func (m MapEnvironment) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Store locates hand-off files inside one temporary directory.
type Store struct {
	// Dir is the temporary directory that contains every hand-off file.
	Dir string
}

// NewStore returns a store rooted at the system temporary directory.
func NewStore() *Store {
	return &Store{Dir: os.TempDir()}
}

// FileName returns the hand-off file name for pid.
func FileName(pid int) string {
	return filePrefix + strconv.Itoa(pid) + fileSuffix
}

// ParseFileName extracts the process id from a hand-off file name. Only
// names of the exact form .nono-<decimal pid>.json are accepted.
func ParseFileName(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, filePrefix)
	if !ok {
		return 0, false
	}
	digits, ok := strings.CutSuffix(rest, fileSuffix)
	if !ok || digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	pid, err := strconv.ParseInt(digits, 10, 32)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return int(pid), true
}

// Path returns the hand-off file path for pid.
func (s *Store) Path(pid int) string {
	return filepath.Join(s.Dir, FileName(pid))
}

// Validate checks an untrusted hand-off path and returns its canonical form.
// Every check must pass; the first failure is returned.
func (s *Store) Validate(raw string) (string, error) {
	path, _, err := s.validate(raw)
	return path, err
}

func (s *Store) validate(raw string) (string, os.FileInfo, error) {
	if !filepath.IsAbs(raw) {
		return "", nil, &EnvVarError{Var: EnvCapFile, Reason: "path must be absolute"}
	}

	canonical, err := filepath.EvalSymlinks(raw)
	if err != nil {
		return "", nil, &ValidationError{Reason: "failed to canonicalize path", Err: err}
	}

	tempDir, err := filepath.EvalSymlinks(s.Dir)
	if err != nil {
		return "", nil, &ValidationError{Reason: "failed to canonicalize temp directory", Err: err}
	}
	if !within(canonical, tempDir) {
		return "", nil, &ValidationError{
			Reason: fmt.Sprintf("path must be in temp directory (%s), got: %s", tempDir, canonical),
		}
	}

	name := filepath.Base(canonical)
	if _, ok := ParseFileName(name); !ok {
		return "", nil, &ValidationError{
			Reason: fmt.Sprintf("file name must match pattern %s<pid>%s, got: %s", filePrefix, fileSuffix, name),
		}
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return "", nil, &ValidationError{Reason: "failed to read file metadata", Err: err}
	}
	if info.Size() > MaxFileSize {
		return "", nil, &TooLargeError{Size: info.Size(), Max: MaxFileSize}
	}

	if !info.Mode().IsRegular() {
		return "", nil, &ValidationError{Reason: "path must be a regular file"}
	}

	return canonical, info, nil
}

// Load reads the hand-off file named by the environment. It reports false
// with no error when the variable is absent, meaning the process is not
// sandboxed. A present but invalid value is always an error.
func (s *Store) Load(env Environment) (*SandboxState, bool, error) {
	raw, ok := env.LookupEnv(EnvCapFile)
	if !ok {
		return nil, false, nil
	}

	path, info, err := s.validate(raw)
	if err != nil {
		return nil, true, err
	}

	data, err := readValidated(path, info)
	if err != nil {
		return nil, true, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var st SandboxState
	if err := dec.Decode(&st); err != nil {
		return nil, true, &ParseError{Op: "decode", Err: err}
	}
	return &st, true, nil
}

// readValidated reads the file only if it is still the one that was validated.
func readValidated(path string, validated os.FileInfo) ([]byte, error) {
	f, err := openNoFollow(path)
	if err != nil {
		return nil, &ValidationError{Reason: "failed to open validated file", Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &ValidationError{Reason: "failed to stat validated file", Err: err}
	}
	if !os.SameFile(info, validated) {
		return nil, &ValidationError{Reason: "file changed after validation"}
	}
	if !info.Mode().IsRegular() {
		return nil, &ValidationError{Reason: "path must be a regular file"}
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read sandbox state %s: %w", path, err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, &TooLargeError{Size: int64(len(data)), Max: MaxFileSize}
	}
	return data, nil
}

func within(path, dir string) bool {
	if path == dir {
		return false
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
