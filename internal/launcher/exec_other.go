//go:build !unix

package launcher

import (
	"context"
	"errors"
	"os"
	"os/exec"
)

func execProcess(string, []string, []string) error {
	return errors.New("replacing the process image is not supported on this platform")
}

func runSupervised(ctx context.Context, argv []string, env []string) (int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return 0, err
	}
	return 0, nil
}
