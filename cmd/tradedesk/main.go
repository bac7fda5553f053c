package main

import (
	"os"

	"github.com/betbot/tradedesk/cmd/tradedesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
