package main

import "github.com/tebeka/atexit"

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Exit through atexit so buffered event-log rows are flushed even
		// on a fatal error.
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
