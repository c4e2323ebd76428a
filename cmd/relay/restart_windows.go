package main

import (
	"fmt"
	"os"
	"os/exec"
)

// restart starts a fresh copy of the binary and exits. Windows has no exec(2).
func restart() error {
	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable for restart: %w", err)
	}

	cmd := exec.Command(binary, os.Args[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err = cmd.Start(); err != nil {
		return fmt.Errorf("restarting: %w", err)
	}

	os.Exit(0)
	return nil
}
