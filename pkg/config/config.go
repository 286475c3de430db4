// Package config holds the configuration of goipc handles and the programs
// built on them, its validation and the injectable dependencies.
package config

import (
	"fmt"
	"net/netip"

	"dominicbreuker/goipc/pkg/ipc"
	"dominicbreuker/goipc/pkg/log"
)

// Config describes a single socket handle.
type Config struct {
	Host    string
	Port    int
	Role    ipc.Role
	Verbose bool

	Logger *log.Logger
}

// Validate checks the address and port of the handle.
func (c *Config) Validate() []error {
	var errors []error

	addr, err := netip.ParseAddr(c.Host)
	if err != nil || !addr.Is4() {
		errors = append(errors, fmt.Errorf("host %q must be a dotted-quad IPv4 address", c.Host))
	}

	if c.Role == ipc.RoleServer {
		if c.Port < 0 || c.Port > 65535 {
			errors = append(errors, fmt.Errorf("port %d not in [0, 65535]", c.Port))
		}
	} else if err := validatePort(c.Port); err != nil {
		errors = append(errors, fmt.Errorf("port %s", err))
	}

	return errors
}

// GetLogger returns the configured logger or a quiet one.
func (c *Config) GetLogger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.NewLogger(false)
}

// Server configures the accept loop of the listen command.
type Server struct {
	Reply    string
	MaxConns int
	LogFile  string
}

// DefaultReply is what the server answers to every message.
const DefaultReply = "Hello from server!"

// Validate ...
func (s *Server) Validate() []error {
	var errors []error

	if s.MaxConns < 1 {
		errors = append(errors, fmt.Errorf("max-conns must be at least 1, got %d", s.MaxConns))
	}

	return errors
}

// Client configures the connect command.
type Client struct {
	Message     string
	Interactive bool
	LogFile     string
}

// DefaultMessage is what the client sends when no message is given.
const DefaultMessage = "Hello from client!"

// Validate ...
func (c *Client) Validate() []error {
	var errors []error

	if !c.Interactive && c.Message == "" {
		errors = append(errors, fmt.Errorf("message must not be empty unless running interactively"))
	}

	return errors
}
