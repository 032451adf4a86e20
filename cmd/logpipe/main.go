// FILE: lixenwraith/logpipe/cmd/logpipe/main.go
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "logpipe: %v\n", err)
		os.Exit(1)
	}
}
