// Package diagnostic explains a failed sandboxed command to the user or to
// the agent that ran it. Every line carries the [nono] prefix.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/neoclaw-ai/nono/internal/capability"
)

const prefix = "[nono]"

// Formatter renders policy diagnostics for a capability set.
type Formatter struct {
	caps *capability.Set
}

// New returns a formatter for caps.
func New(caps *capability.Set) *Formatter {
	return &Formatter{caps: caps}
}

// Footer describes the policy a command ran under after it exited with exitCode.
// The wording says the failure may be due to the sandbox; a non-zero exit can be unrelated.
func (f *Formatter) Footer(exitCode int) string {
	var lines []string
	add := func(format string, args ...any) {
		line := fmt.Sprintf(format, args...)
		if line == "" {
			lines = append(lines, prefix)
			return
		}
		lines = append(lines, prefix+" "+line)
	}

	add("Command exited with code %d. This may be due to sandbox restrictions.", exitCode)
	add("")
	add("Sandbox policy:")
	add("  Allowed paths:")
	grants := f.caps.FS()
	if len(grants) == 0 {
		add("    (none)")
	}
	for _, fs := range grants {
		add("    %s (%s, %s)", fs.Resolved(), fs.Access(), fs.Kind())
	}
	add("  Network: %s", netStatus(f.caps.NetAllow))
	add("")
	add("To grant additional access, re-run with:")
	add("  --allow <path>     read+write access to directory")
	add("  --read <path>      read-only access to directory")
	add("  --write <path>     write-only access to directory")
	add("  --allow-file <f>   read+write access to a single file")
	if !f.caps.NetAllow {
		add("  --net-allow        network access (remove --net-block)")
	}
	return strings.Join(lines, "\n")
}

// Summary is a one-line description of the policy.
func (f *Formatter) Summary() string {
	return fmt.Sprintf("%s Policy: %d path(s), network %s", prefix, len(f.caps.FS()), netStatus(f.caps.NetAllow))
}

func netStatus(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "blocked"
}
