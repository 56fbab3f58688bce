package main

import (
	"os"

	"github.com/lchelper/lchelper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
