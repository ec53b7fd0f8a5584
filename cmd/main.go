package main

import (
	"os"

	cli "github.com/soundprediction/recall/cmd/recall"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
