//go:build !linux && !darwin

package sandbox

import (
	"runtime"

	"github.com/neoclaw-ai/nono/internal/capability"
)

type noopEnforcer struct{}

func newPlatformEnforcer() Enforcer {
	return noopEnforcer{}
}

func (noopEnforcer) IsSupported() bool { return false }

func (noopEnforcer) SupportInfo() string {
	return "no sandbox mechanism is available on " + runtime.GOOS
}

func (noopEnforcer) AllowRead(string) {}

func (e noopEnforcer) Apply(*capability.Set) error {
	return unsupported(e.SupportInfo())
}

func (noopEnforcer) Command(argv []string) []string { return argv }
