//go:build !unix

package state

import "os"

func openNoFollow(path string) (*os.File, error) {
	return os.Open(path)
}
