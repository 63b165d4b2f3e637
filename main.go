package main

import (
	"os"

	"github.com/kmrl/induction/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
