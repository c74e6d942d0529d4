package main

import (
	"context"
	"fmt"
	"os"

	"github.com/openvault/openvault/internal/orchestrator"
)

const (
	exitSuccess = 0
	exitError   = 1
	exitBlocked = 2
)

func main() {
	if err := Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if orchestrator.IsSafetyBlocked(err) {
			os.Exit(exitBlocked)
		}
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}
