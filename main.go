package main

import (
	"os"

	"github.com/aniketthapawork/ai-tutor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
