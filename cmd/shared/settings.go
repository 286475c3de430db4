package shared

import (
	"fmt"
	"strings"

	"dominicbreuker/goipc/pkg/config"

	"github.com/urfave/cli/v3"
)

// LoadFile loads the configuration file given with --config. Without the
// flag it returns an empty file, so every setting falls back to its flag.
func LoadFile(cmd *cli.Command) (*config.File, error) {
	path := cmd.String(ConfigFlag)
	if path == "" {
		return &config.File{}, nil
	}

	f, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return f, nil
}

// Address returns host and port from the transport argument or, if there is
// none, from the configuration file.
func Address(cmd *cli.Command, f *config.File) (host string, port int, err error) {
	args := cmd.Args()

	switch {
	case args.Len() == 1:
		return ParseTransport(args.Get(0))
	case args.Len() == 0 && f.Port != nil:
		return f.Host, *f.Port, nil
	case args.Len() == 0:
		return "", 0, fmt.Errorf("must provide a transport argument or a configuration file with host and port")
	default:
		return "", 0, fmt.Errorf("must provide exactly one argument, got %d (%s)", args.Len(), strings.Join(args.Slice(), ", "))
	}
}

// String returns the flag value if it was given on the command line, the file
// value if the file sets one, and the flag's default otherwise.
func String(cmd *cli.Command, name string, fileVal string) string {
	if cmd.IsSet(name) || fileVal == "" {
		return cmd.String(name)
	}
	return fileVal
}

// Int is String for integer flags. A zero file value counts as unset.
func Int(cmd *cli.Command, name string, fileVal int) int {
	if cmd.IsSet(name) || fileVal == 0 {
		return int(cmd.Int(name))
	}
	return fileVal
}

// Bool is String for boolean flags. The file can only switch a flag on.
func Bool(cmd *cli.Command, name string, fileVal bool) bool {
	if cmd.IsSet(name) {
		return cmd.Bool(name)
	}
	return fileVal || cmd.Bool(name)
}
