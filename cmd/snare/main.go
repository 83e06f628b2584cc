// Command snare is the operator console: it classifies messages and runs
// interactive honeypot conversations against the configured completion gateway.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
