// Package shared provides common CLI flag definitions and utility functions
// used across goipc's command-line interface.
package shared

import (
	"fmt"
	"strings"

	"dominicbreuker/goipc/pkg/log"

	"github.com/urfave/cli/v3"
)

const categoryCommon = "common"

// VerboseFlag is the name of the flag to enable verbose debug logging.
const VerboseFlag = "verbose"

// ConfigFlag is the name of the flag to specify a YAML configuration file.
const ConfigFlag = "config"

// LogFileFlag is the name of the flag to specify a file all transferred data is appended to.
const LogFileFlag = "log"

// GetBaseDescription returns the base description text for transport
// specifications used in CLI commands.
func GetBaseDescription() string {
	return strings.Join([]string{
		"Specify transport like this: tcp://127.0.0.1:8080 (only tcp is supported, hosts are IPv4 addresses)",
		"You can omit the host when listening to bind to all interfaces.",
		"The transport may be omitted if the configuration file sets host and port.",
	}, "\n")
}

// GetArgsUsage returns the arguments usage string for CLI commands.
func GetArgsUsage() string {
	return "[transport]"
}

// GetCommonFlags returns the CLI flags used by both listen and connect.
func GetCommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:     VerboseFlag,
			Aliases:  []string{"v"},
			Usage:    "Verbose debug logging",
			Category: categoryCommon,
			Value:    false,
			Required: false,
		},
		&cli.StringFlag{
			Name:     ConfigFlag,
			Aliases:  []string{"c"},
			Usage:    "YAML configuration file, flags given on the command line take precedence",
			Category: categoryCommon,
			Value:    "",
			Required: false,
		},
		&cli.StringFlag{
			Name:     LogFileFlag,
			Aliases:  []string{"l"},
			Usage:    "Append all sent and received data to this file",
			Category: categoryCommon,
			Value:    "",
			Required: false,
		},
	}
}

const categoryListen = "listen"

// ReplyFlag is the name of the flag to specify the server's answer.
const ReplyFlag = "reply"

// MaxConnsFlag is the name of the flag to limit concurrently served connections.
const MaxConnsFlag = "max-conns"

// GetListenFlags returns the CLI flags specific to listen mode.
func GetListenFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     ReplyFlag,
			Aliases:  []string{"r"},
			Usage:    "Message sent back to every client",
			Category: categoryListen,
			Value:    "Hello from server!",
			Required: false,
		},
		&cli.IntFlag{
			Name:     MaxConnsFlag,
			Aliases:  []string{"m"},
			Usage:    "Maximum number of connections served at the same time",
			Category: categoryListen,
			Value:    100,
			Required: false,
		},
	}
}

const categoryConnect = "connect"

// MessageFlag is the name of the flag to specify the client's message.
const MessageFlag = "message"

// InteractiveFlag is the name of the flag to pipe the terminal through the connection.
const InteractiveFlag = "interactive"

// GetConnectFlags returns the CLI flags specific to connect mode.
func GetConnectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     MessageFlag,
			Aliases:  []string{"M"},
			Usage:    "Message sent to the server",
			Category: categoryConnect,
			Value:    "Hello from client!",
			Required: false,
		},
		&cli.BoolFlag{
			Name:     InteractiveFlag,
			Aliases:  []string{"i"},
			Usage:    "Pipe the terminal through the connection instead of sending one message",
			Category: categoryConnect,
			Value:    false,
			Required: false,
		},
	}
}

// ValidationError prints all errors and returns the error the command exits with.
func ValidationError(errs []error) error {
	log.ErrorMsg("Argument validation errors:\n")
	for _, err := range errs {
		log.ErrorMsg(" - %s\n", err)
	}
	return fmt.Errorf("exiting")
}
