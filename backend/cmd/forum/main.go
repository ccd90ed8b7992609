package main

import (
	"context"
	"os"

	"github.com/itchan-dev/forum/shared/logger"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Log.Error("command failed", "error", err)
		os.Exit(1)
	}
}
