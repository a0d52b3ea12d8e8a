// Package main provides the pilotwire CLI: run workflow executions from a
// terminal, serve the monitoring gateway, and inspect stored credentials.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "pilotwire",
		Usage:                 "Run and monitor browser workflow executions",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			RunCommand(),
			ServeCommand(),
			CredentialsCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
