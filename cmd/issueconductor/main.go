package main

import (
	"os"

	"github.com/grokify/issueconductor/cmd/issueconductor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
