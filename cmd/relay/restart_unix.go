//go:build !windows

package main

import (
	"fmt"
	"os"
	"syscall"
)

// restart replaces the process image with a fresh copy of the same binary,
// keeping the arguments and environment
func restart() error {
	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable for restart: %w", err)
	}
	return fmt.Errorf("restarting: %w", syscall.Exec(binary, os.Args, os.Environ()))
}
