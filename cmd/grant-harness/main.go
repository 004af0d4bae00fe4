// Command grant-harness drives the grant application wizards from the
// terminal. Every invocation is one user event: it hydrates the saved
// progress, applies the event and exits.
package main

import (
	"context"
	"fmt"
	"os"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}
