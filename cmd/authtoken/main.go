// Command authtoken serves token-authenticated APIs backed by a YAML user
// directory and mints, verifies and hashes credentials from the shell.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
