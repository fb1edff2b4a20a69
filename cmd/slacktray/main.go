// Package main is the entry point for slacktray.
package main

import (
	"log"
	"os"

	"github.com/slacktray/slacktray/internal/cli"
)

func main() {
	log.SetPrefix("[slacktray] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
