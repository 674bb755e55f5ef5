package main

import (
	"os"
	"os/exec"
	"strconv"

	"github.com/standardbeagle/laze/internal/lazerr"
)

// runNinja shells out to the ninja binary against dir's build.ninja.
// The core never schedules compile jobs itself - the jobserver is an
// external collaborator per §5, and ninja is that collaborator.
func runNinja(dir string, jobs int) error {
	args := []string{"-C", dir}
	if jobs > 0 {
		args = append(args, "-j", strconv.Itoa(jobs))
	}
	cmd := exec.Command("ninja", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		return lazerr.NewExternalError("ninja -C "+dir, err)
	}
	return nil
}
