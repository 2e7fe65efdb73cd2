package state

import (
	"encoding/json"
	"os"
)

// WriteFile persists st at path. The file is created exclusively with
// owner-only permissions in the same call, so a pre-existing file or symlink
// at path (dangling or not) makes the write fail with fs.ErrExist and leaves
// it untouched. The file is never reopened or truncated.
//
// On platforms without permission bits the exclusive create still applies,
// but other local users may be able to read the file.
func WriteFile(path string, st *SandboxState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return &ParseError{Op: "encode", Err: err}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
