package main

import (
	"context"
	"os"

	"allowance-app-go/internal/cli"
	"allowance-app-go/pkg/logger"
)

func main() {
	log := logger.NewFromEnv()

	if err := cli.NewRootCommand(log).ExecuteContext(context.Background()); err != nil {
		log.Critical("app: command failed", "err", err)
		os.Exit(1)
	}
}
