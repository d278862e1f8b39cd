package main

import (
	"os"

	"github.com/avandel/keydrill/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
