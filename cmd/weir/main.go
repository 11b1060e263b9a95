package main

import (
	"os"

	"github.com/weirlabs/weir/cmd/weir/commands"
	"github.com/weirlabs/weir/internal/logger"
)

func main() {
	if err := commands.Execute(); err != nil {
		logger.Error("fatal", logger.KeyError, err.Error())
		os.Exit(1)
	}
}
