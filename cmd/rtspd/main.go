// Command rtspd serves a single H.264 elementary stream over a text-based
// streaming control protocol and RTP-shaped UDP transport.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
