package irckit

import (
	"net"
	"strings"

	"github.com/sorcix/irc"
)

// Conn is the IRC side of a session.
type Conn interface {
	Close() error
	Encode(*irc.Message) error
	Decode() (*irc.Message, error)
	ResolveHost() string
}

type conn struct {
	net.Conn
	*irc.Encoder
	*irc.Decoder
}

// ResolveHost returns the reverse DNS name of the remote end, falling back to
// its address.
func (c *conn) ResolveHost() string {
	addr := c.Conn.RemoteAddr().String()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	names, err := net.LookupAddr(host)
	if err != nil || len(names) == 0 {
		return host
	}

	return strings.TrimSuffix(names[0], ".")
}
