package main

import (
	"os"

	"github.com/tomo-edu/inquiry/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
