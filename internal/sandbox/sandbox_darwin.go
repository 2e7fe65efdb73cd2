//go:build darwin

package sandbox

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/neoclaw-ai/nono/internal/capability"
	"github.com/neoclaw-ai/nono/internal/logging"
)

const sandboxExecPath = "/usr/bin/sandbox-exec"

var systemReadRoots = []string{
	"/usr",
	"/bin",
	"/sbin",
	"/System",
	"/Library",
	"/private/etc",
	"/private/var/db",
	"/dev",
}

var systemDeviceFiles = []string{
	"/dev/null",
	"/dev/zero",
	"/dev/tty",
}

type seatbeltEnforcer struct {
	extraRead []string
	profile   string
}

func newPlatformEnforcer() Enforcer {
	return &seatbeltEnforcer{}
}

func (e *seatbeltEnforcer) IsSupported() bool {
	_, err := exec.LookPath(sandboxExecPath)
	return err == nil
}

func (e *seatbeltEnforcer) SupportInfo() string {
	if !e.IsSupported() {
		return "sandbox-exec is unavailable on this host"
	}
	return "macOS Seatbelt (sandbox-exec)"
}

func (e *seatbeltEnforcer) AllowRead(path string) {
	e.extraRead = append(e.extraRead, path)
}

// Apply builds the Seatbelt profile. It takes effect when the program
// returned by Command is executed.
func (e *seatbeltEnforcer) Apply(caps *capability.Set) error {
	if !e.IsSupported() {
		return unsupported(e.SupportInfo())
	}
	home, err := os.UserHomeDir()
	if err != nil {
		logging.Logger().Debug("resolve home dir for sensitive path rules", "err", err)
	}
	e.profile = seatbeltProfile(caps, e.extraRead, home)
	logging.Logger().Debug("seatbelt profile built", "paths", len(caps.FS()), "net_allow", caps.NetAllow, "bytes", len(e.profile))
	return nil
}

func (e *seatbeltEnforcer) Command(argv []string) []string {
	if e.profile == "" {
		return argv
	}
	return append([]string{sandboxExecPath, "-p", e.profile}, argv...)
}

// seatbeltProfile renders caps as an SBPL profile that denies everything not granted.
// Sensitive paths under home that only a broader grant reaches are denied
// again after the grants; the last matching rule wins.
func seatbeltProfile(caps *capability.Set, extraRead []string, home string) string {
	var profile strings.Builder
	profile.WriteString("(version 1)\n")
	profile.WriteString("(deny default)\n")
	profile.WriteString("(allow process*)\n")
	profile.WriteString("(allow signal (target same-sandbox))\n")
	profile.WriteString("(allow sysctl-read)\n")
	profile.WriteString("(allow mach-lookup)\n")
	profile.WriteString("(allow ipc-posix-shm)\n")
	profile.WriteString("(allow file-read-metadata)\n")
	for _, root := range systemReadRoots {
		fmt.Fprintf(&profile, "(allow file-read* (subpath %q))\n", root)
	}
	for _, dev := range systemDeviceFiles {
		fmt.Fprintf(&profile, "(allow file-read* file-write* (literal %q))\n", dev)
	}
	for _, path := range extraRead {
		fmt.Fprintf(&profile, "(allow file-read* (literal %q))\n", path)
	}
	for _, fs := range caps.FS() {
		filter := "subpath"
		if fs.IsFile() {
			filter = "literal"
		}
		var ops []string
		if fs.Access().Reads() {
			ops = append(ops, "file-read*")
		}
		if fs.Access().Writes() {
			ops = append(ops, "file-write*")
		}
		fmt.Fprintf(&profile, "(allow %s (%s %q))\n", strings.Join(ops, " "), filter, fs.Resolved())
	}
	for _, path := range capability.SensitiveExposures(caps, home) {
		fmt.Fprintf(&profile, "(deny file-read* file-write* (subpath %q))\n", path)
	}
	if caps.NetAllow {
		profile.WriteString("(allow network*)\n")
	}
	return profile.String()
}
