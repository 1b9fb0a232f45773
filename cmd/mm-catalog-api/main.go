// Package main is the entry point for the catalog API server.
package main

import (
	"os"

	"github.com/meridianmaps/catalog-server/cmd/mm-catalog-api/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
