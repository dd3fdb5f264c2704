// Package main is the entry point for the jobward binary. The same binary
// serves as the supervisor (serve), the worker (exec) and the operator
// tooling (migrate, enqueue).
package main

import (
	"os"

	"jobward/cmd/jobward/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
