package main

import (
	"os"

	"github.com/wonny/maverick/backend/cmd/maverick/commands"
)

// main is the entry point for the Maverick CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/maverick [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
