package state

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/neoclaw-ai/nono/internal/logging"
)

// Reaper removes hand-off files left behind by processes that have exited.
type Reaper struct {
	Dir string
	// Self is never reaped, even if Alive reports it gone.
	Self int
	// Alive must report true unless the process is known not to exist.
	Alive  func(pid int) bool
	Logger *slog.Logger
}

// NewReaper returns a reaper for the store's directory using the real
// process table and the current process id.
func (s *Store) NewReaper() *Reaper {
	return &Reaper{
		Dir:   s.Dir,
		Self:  os.Getpid(),
		Alive: ProcessAlive,
	}
}

// Run makes one non-recursive pass over the directory and returns the number
// of files removed. Failures are logged at debug level and never returned.
func (r *Reaper) Run() int {
	logger := r.Logger
	if logger == nil {
		logger = logging.Logger()
	}
	alive := r.Alive
	if alive == nil {
		alive = ProcessAlive
	}

	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		logger.Debug("read temp directory for state cleanup", "dir", r.Dir, "err", err)
		return 0
	}

	removed, active := 0, 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			continue
		}
		pid, ok := ParseFileName(name)
		if !ok {
			continue
		}
		if pid == r.Self {
			continue
		}
		if alive(pid) {
			active++
			continue
		}

		path := filepath.Join(r.Dir, name)
		if err := os.Remove(path); err != nil {
			logger.Debug("remove stale state file", "path", path, "pid", pid, "err", err)
			continue
		}
		logger.Debug("removed stale state file", "path", path, "pid", pid)
		removed++
	}

	if removed > 0 {
		logger.Debug("state cleanup complete", "removed", removed, "active", active)
	}
	return removed
}
