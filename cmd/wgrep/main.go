package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		var status exitStatus
		if !errors.As(err, &status) {
			fmt.Fprintf(os.Stderr, "wgrep: %v\n", err)
			status = statusTrouble
		}
		os.Exit(int(status))
	}
}
