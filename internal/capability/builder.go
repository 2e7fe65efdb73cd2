package capability

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrSensitivePath reports a sensitive location reachable only through a broader grant.
var ErrSensitivePath = errors.New("sensitive path is covered by a broader grant; grant it by its own path to allow access")

// Declaration is one raw grant request, before validation.
type Declaration struct {
	Path   string
	Access Access
	File   bool
}

// Build validates declarations in order and returns the resulting set.
// The first invalid declaration aborts the build; no partial set is returned.
func Build(decls []Declaration, netAllow bool) (*Set, error) {
	set := NewSet()
	for _, decl := range decls {
		var (
			c   FS
			err error
		)
		if decl.File {
			c, err = NewFile(decl.Path, decl.Access)
		} else {
			c, err = NewDir(decl.Path, decl.Access)
		}
		if err != nil {
			return nil, err
		}
		set.AddFS(c)
	}
	set.NetAllow = netAllow
	return set, nil
}

// Paths holding credentials, keys, and shell configuration, relative to the home directory.
var sensitiveHomePaths = []string{
	".ssh",
	".aws",
	".gnupg",
	".kube",
	".docker",
	".npmrc",
	".git-credentials",
	".netrc",
	".password-store",
	".1password",
	".vault-token",
	"Library/Keychains",
	".zshrc",
	".bashrc",
	".bash_profile",
	".profile",
	".zsh_history",
	".bash_history",
	".config/gcloud",
	".azure",
	".terraform.d",
	".env",
	".envrc",
}

// SensitivePaths lists the sensitive locations in "~/..." form.
func SensitivePaths() []string {
	out := make([]string, 0, len(sensitiveHomePaths))
	for _, p := range sensitiveHomePaths {
		out = append(out, "~/"+p)
	}
	return out
}

// SensitivePathsNotice is the human-readable notice published to sandboxed processes.
func SensitivePathsNotice() string {
	return fmt.Sprintf(
		"The following paths are ALWAYS blocked for security (credentials, keys, shell configs): %s. "+
			"A broader grant never includes them; they are reachable only when granted by their own path.",
		strings.Join(SensitivePaths(), ", "),
	)
}

// SensitiveExposures returns the sensitive paths under home that some grant
// in s covers without naming them explicitly. A grant whose resolved path is
// the sensitive path itself counts as explicit.
func SensitiveExposures(s *Set, home string) []string {
	if s == nil || strings.TrimSpace(home) == "" {
		return nil
	}
	if resolved, err := Canonicalize(home); err == nil {
		home = resolved
	}
	var exposed []string
	for _, rel := range sensitiveHomePaths {
		p := filepath.Join(home, filepath.FromSlash(rel))
		if resolved, err := Canonicalize(p); err == nil {
			p = resolved
		}
		matches := s.Matching(p)
		if len(matches) == 0 || explicit(matches, p) {
			continue
		}
		exposed = append(exposed, p)
	}
	return exposed
}

// CheckSensitive rejects a set in which a broader grant would expose a
// sensitive path under home.
func CheckSensitive(s *Set, home string) error {
	exposed := SensitiveExposures(s, home)
	if len(exposed) == 0 {
		return nil
	}
	return &PathError{Path: exposed[0], Err: ErrSensitivePath}
}

func explicit(grants []FS, path string) bool {
	for _, c := range grants {
		if c.Resolved() == path {
			return true
		}
	}
	return false
}
