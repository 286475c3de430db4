// Package listen provides the listen command, which runs the server side:
// it prints every message it receives and answers with a fixed reply.
package listen

import (
	"context"
	"fmt"
	"os"

	"dominicbreuker/goipc/cmd/shared"
	"dominicbreuker/goipc/pkg/config"
	"dominicbreuker/goipc/pkg/ipc"
	"dominicbreuker/goipc/pkg/log"
	"dominicbreuker/goipc/pkg/server"

	"github.com/urfave/cli/v3"
)

// GetCommand ...
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:        "listen",
		Usage:       "Listen for connections and answer each message",
		Description: shared.GetBaseDescription(),
		ArgsUsage:   shared.GetArgsUsage(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, scfg, err := parse(cmd)
			if err != nil {
				return err
			}
			defer cfg.Logger.Sync()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			shared.SetupSignalHandling(cancel)

			s, err := server.New(ctx, cfg, scfg, server.Reply(scfg.Reply, os.Stdout), nil)
			if err != nil {
				return fmt.Errorf("server.New(): %w", err)
			}

			return s.Serve()
		},
		Flags: getFlags(),
	}
}

func parse(cmd *cli.Command) (*config.Config, *config.Server, error) {
	f, err := shared.LoadFile(cmd)
	if err != nil {
		return nil, nil, err
	}

	host, port, err := shared.Address(cmd, f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing transport: %w", err)
	}
	if host == "" {
		host = "0.0.0.0"
	}

	verbose := shared.Bool(cmd, shared.VerboseFlag, f.Verbose)
	cfg := &config.Config{
		Host:    host,
		Port:    port,
		Role:    ipc.RoleServer,
		Verbose: verbose,
		Logger:  log.NewLogger(verbose),
	}

	scfg := &config.Server{
		Reply:    shared.String(cmd, shared.ReplyFlag, f.Reply),
		MaxConns: shared.Int(cmd, shared.MaxConnsFlag, f.MaxConns),
		LogFile:  shared.String(cmd, shared.LogFileFlag, f.LogFile),
	}

	if errors := config.Validate(cfg, scfg); len(errors) > 0 {
		return nil, nil, shared.ValidationError(errors)
	}

	return cfg, scfg, nil
}

func getFlags() []cli.Flag {
	flags := []cli.Flag{}

	flags = append(flags, shared.GetCommonFlags()...)
	flags = append(flags, shared.GetListenFlags()...)

	return flags
}
