package main

import (
	"context"
	"os"

	"dominicbreuker/goipc/cmd/connect"
	"dominicbreuker/goipc/cmd/listen"
	"dominicbreuker/goipc/cmd/version"
	"dominicbreuker/goipc/pkg/log"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.ErrorMsg("%s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "goipc",
		Usage: "send messages between a TCP server and client",
		Commands: []*cli.Command{
			listen.GetCommand(),
			connect.GetCommand(),
			version.GetCommand(),
		},
	}
}
