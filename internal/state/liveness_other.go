//go:build !unix

package state

// ProcessAlive always reports true where process existence cannot be probed
// reliably, so state files accumulate instead of being removed early.
func ProcessAlive(int) bool {
	return true
}
