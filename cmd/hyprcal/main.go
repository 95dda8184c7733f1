package main

import (
	"os"

	"hyprcal/internal/commands"
	appLog "hyprcal/internal/log"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}
