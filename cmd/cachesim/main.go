// Package main provides the cachesim command, a driver that sweeps cache
// associativities and reports hit/miss behavior for each configuration.
package main

import (
	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"
)

func main() {
	// A .env file can pre-set CACHESIM_* defaults. Missing files are fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
