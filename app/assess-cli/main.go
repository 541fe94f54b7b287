package main

import (
	"os"

	"canaryAnalytics/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("APP_ENV"))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
