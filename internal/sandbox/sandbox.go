// Package sandbox turns a capability set into OS-enforced restrictions:
// Landlock on Linux, Seatbelt profiles via sandbox-exec on macOS.
package sandbox

import (
	"os"
	"strings"

	"github.com/neoclaw-ai/nono/internal/capability"
)

// EnvActive marks a process tree running under nono.
const EnvActive = "NONO_ACTIVE"

// Enforcer activates a capability set for the current process and its children.
type Enforcer interface {
	// IsSupported reports whether the host can enforce a policy.
	IsSupported() bool
	// SupportInfo describes the enforcement mechanism or why it is unavailable.
	SupportInfo() string
	// AllowRead permits reading one extra file outside the user's grants.
	// It must be called before Apply.
	AllowRead(path string)
	// Apply enforces caps. Restrictions cannot be lifted afterwards.
	Apply(caps *capability.Set) error
	// Command returns the argv to exec so the target runs under the policy.
	Command(argv []string) []string
}

// UnsupportedError reports a host without a usable enforcement mechanism.
type UnsupportedError struct {
	Info string
}

func (e *UnsupportedError) Error() string {
	return "sandbox initialization failed: " + e.Info
}

// IsActive reports whether the current process already runs under nono.
func IsActive() bool {
	return strings.TrimSpace(os.Getenv(EnvActive)) == "1"
}

// New returns the enforcer for the current platform.
func New() Enforcer {
	return newPlatformEnforcer()
}

func unsupported(info string) error {
	return &UnsupportedError{Info: info}
}
