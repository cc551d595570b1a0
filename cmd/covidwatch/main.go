package main

import (
	"os"

	"github.com/wonny/covidwatch/cmd/covidwatch/commands"
)

// main is the entry point for the covidwatch CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/covidwatch [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
