// Package main provides the entry point for the benchgate CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/benchgate/cmd/benchgate/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
