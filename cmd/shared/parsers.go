package shared

import (
	"fmt"
	"regexp"
	"strconv"
)

var transportRe = regexp.MustCompile(`^(tcp)://([^:]*):(\d+)$`)

// ParseTransport parses a transport string in the format "tcp://host:port".
// The host can be empty or "*" to bind to all interfaces, which is returned
// as an empty host. Port 0 is accepted so that a server may let the system
// pick a port.
func ParseTransport(s string) (host string, port int, err error) {
	matches := transportRe.FindStringSubmatch(s)
	if len(matches) != 4 {
		err = parsingError(s)
		return
	}

	host = matches[2]
	if host == "*" { // also counts as all interfaces
		host = ""
	}

	port, err = strconv.Atoi(matches[3])
	if err != nil || port < 0 || port > 65535 {
		err = parsingError(s)
		return
	}

	return
}

func parsingError(s string) error {
	return fmt.Errorf("parsing %q: format should be 'tcp://host:port'", s)
}
