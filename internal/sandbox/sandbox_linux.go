//go:build linux

package sandbox

import (
	"fmt"

	"github.com/landlock-lsm/go-landlock/landlock"
	ll "github.com/landlock-lsm/go-landlock/landlock/syscall"
	"github.com/neoclaw-ai/nono/internal/capability"
	"github.com/neoclaw-ai/nono/internal/logging"
	"golang.org/x/sys/unix"
)

// Landlock ABI version that added TCP bind/connect restrictions.
const netABI = 4

// Directories the sandboxed program may read and execute from regardless of grants.
var systemReadRoots = []string{
	"/bin",
	"/sbin",
	"/usr",
	"/lib",
	"/lib64",
	"/etc",
	"/dev",
	"/proc",
	"/sys",
	"/run",
}

// Device nodes most programs expect to write to.
var systemDeviceFiles = []string{
	"/dev/null",
	"/dev/zero",
	"/dev/full",
	"/dev/tty",
}

const (
	writeFileAccess = landlock.AccessFSSet(ll.AccessFSWriteFile | ll.AccessFSTruncate)
	writeDirAccess  = writeFileAccess |
		landlock.AccessFSSet(ll.AccessFSRemoveDir|
			ll.AccessFSRemoveFile|
			ll.AccessFSMakeDir|
			ll.AccessFSMakeReg|
			ll.AccessFSMakeSym|
			ll.AccessFSMakeSock|
			ll.AccessFSMakeFifo)
)

type landlockEnforcer struct {
	extraRead []string
}

func newPlatformEnforcer() Enforcer {
	return &landlockEnforcer{}
}

// abiVersion returns the kernel Landlock ABI, or 0 when Landlock is unavailable.
func abiVersion() int {
	abi, _, errno := unix.Syscall(
		unix.SYS_LANDLOCK_CREATE_RULESET,
		0,
		0,
		uintptr(unix.LANDLOCK_CREATE_RULESET_VERSION),
	)
	if errno != 0 {
		return 0
	}
	return int(abi)
}

func (e *landlockEnforcer) IsSupported() bool {
	return abiVersion() >= 1
}

func (e *landlockEnforcer) SupportInfo() string {
	abi := abiVersion()
	if abi < 1 {
		return "Landlock is unavailable on this kernel (requires Linux 5.13+ with Landlock enabled)"
	}
	return fmt.Sprintf("Linux Landlock ABI v%d", abi)
}

func (e *landlockEnforcer) AllowRead(path string) {
	e.extraRead = append(e.extraRead, path)
}

func (e *landlockEnforcer) Apply(caps *capability.Set) error {
	abi := abiVersion()
	if abi < 1 {
		return unsupported(e.SupportInfo())
	}

	if !caps.NetAllow && abi < netABI {
		logging.Logger().Warn(
			"kernel landlock cannot restrict network; outbound TCP remains open",
			"abi", abi,
			"required_abi", netABI,
		)
	}
	if err := restrict(landlock.V6.BestEffort(), caps.NetAllow, landlockRules(caps, e.extraRead)); err != nil {
		return fmt.Errorf("restrict process with landlock: %w", err)
	}
	logging.Logger().Debug("landlock applied", "abi", abi, "paths", len(caps.FS()), "net_allow", caps.NetAllow)
	return nil
}

// restricter is the subset of landlock.Config used by Apply.
type restricter interface {
	Restrict(rules ...landlock.Rule) error
	RestrictPaths(rules ...landlock.Rule) error
	RestrictScoped() error
}

// restrict applies the same filesystem and IPC scoping (signals, abstract
// unix sockets) whether or not the network is allowed. With network blocked
// there are no network rules, so every TCP bind and connect is denied.
func restrict(r restricter, netAllow bool, rules []landlock.Rule) error {
	if !netAllow {
		return r.Restrict(rules...)
	}
	if err := r.RestrictPaths(rules...); err != nil {
		return err
	}
	return r.RestrictScoped()
}

// Command returns argv unchanged; Landlock restrictions are inherited across exec.
func (e *landlockEnforcer) Command(argv []string) []string {
	return argv
}

func landlockRules(caps *capability.Set, extraRead []string) []landlock.Rule {
	rules := []landlock.Rule{
		landlock.RODirs(systemReadRoots...).IgnoreIfMissing(),
		landlock.RWFiles(systemDeviceFiles...).IgnoreIfMissing(),
		landlock.RWDirs("/dev/pts").IgnoreIfMissing(),
	}
	if len(extraRead) > 0 {
		rules = append(rules, landlock.ROFiles(extraRead...))
	}
	for _, fs := range caps.FS() {
		rules = append(rules, fsRule(fs))
	}
	return rules
}

func fsRule(fs capability.FS) landlock.Rule {
	path := fs.Resolved()
	if fs.IsFile() {
		switch fs.Access() {
		case capability.Read:
			return landlock.ROFiles(path)
		case capability.Write:
			return landlock.PathAccess(writeFileAccess, path)
		default:
			return landlock.RWFiles(path)
		}
	}
	switch fs.Access() {
	case capability.Read:
		return landlock.RODirs(path)
	case capability.Write:
		return landlock.PathAccess(writeDirAccess, path)
	default:
		return landlock.RWDirs(path)
	}
}
