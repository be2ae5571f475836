// Package main is the entry point for the finance-tables CLI.
package main

import (
	"os"

	"github.com/pigeonworks-llc/finance-tables/cmd/finance-tables/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
