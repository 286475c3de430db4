// Package connect provides the connect command, which runs the client side.
package connect

import (
	"context"
	"fmt"
	"os"

	"dominicbreuker/goipc/cmd/shared"
	"dominicbreuker/goipc/pkg/client"
	"dominicbreuker/goipc/pkg/config"
	"dominicbreuker/goipc/pkg/ipc"
	"dominicbreuker/goipc/pkg/log"
	"dominicbreuker/goipc/pkg/terminal"

	"github.com/urfave/cli/v3"
)

// GetCommand ...
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:        "connect",
		Usage:       "Connect to a server and send it a message",
		Description: shared.GetBaseDescription(),
		ArgsUsage:   shared.GetArgsUsage(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, ccfg, err := parse(cmd, terminal.IsTerminal(os.Stdin))
			if err != nil {
				return err
			}
			defer cfg.Logger.Sync()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			shared.SetupSignalHandling(cancel)

			if err := client.Run(ctx, cfg, ccfg, nil); err != nil {
				return fmt.Errorf("connecting: %w", err)
			}

			return nil
		},
		Flags: getFlags(),
	}
}

// parse builds the configuration. Interactive mode needs a terminal on stdin
// and silently falls back to a single exchange without one.
func parse(cmd *cli.Command, stdinIsTerminal bool) (*config.Config, *config.Client, error) {
	f, err := shared.LoadFile(cmd)
	if err != nil {
		return nil, nil, err
	}

	host, port, err := shared.Address(cmd, f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing transport: %w", err)
	}
	if host == "" {
		return nil, nil, fmt.Errorf("parsing transport: specify a host")
	}

	verbose := shared.Bool(cmd, shared.VerboseFlag, f.Verbose)
	cfg := &config.Config{
		Host:    host,
		Port:    port,
		Role:    ipc.RoleClient,
		Verbose: verbose,
		Logger:  log.NewLogger(verbose),
	}

	ccfg := &config.Client{
		Message:     shared.String(cmd, shared.MessageFlag, f.Message),
		Interactive: shared.Bool(cmd, shared.InteractiveFlag, f.Interactive) && stdinIsTerminal,
		LogFile:     shared.String(cmd, shared.LogFileFlag, f.LogFile),
	}

	if errors := config.Validate(cfg, ccfg); len(errors) > 0 {
		return nil, nil, shared.ValidationError(errors)
	}

	return cfg, ccfg, nil
}

func getFlags() []cli.Flag {
	flags := []cli.Flag{}

	flags = append(flags, shared.GetCommonFlags()...)
	flags = append(flags, shared.GetConnectFlags()...)

	return flags
}
