package main

import (
	"os"

	"github.com/dshills/ghissue/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
