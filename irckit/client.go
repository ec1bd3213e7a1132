package irckit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sorcix/irc"
)

type ServerConfig struct {
	// Name is used as the prefix for the server.
	Name string
	// Version string of the server.
	Version string
	// Motd is the message of the day sent after the welcome.
	Motd []string
}

// Client is the single IRC connection of a session.
type Client struct {
	Conn

	Nick string // From NICK command
	User string // From USER command
	Real string // From USER command
	Host string

	config  ServerConfig
	created time.Time
}

// NewClient wraps a connection with the metadata needed for replies.
func NewClient(c Conn, cfg ServerConfig) *Client {
	return &Client{
		Conn:    c,
		Host:    "*",
		config:  cfg,
		created: time.Now(),
	}
}

// NewClientNet creates a *Client from a net.Conn connection.
func NewClientNet(c net.Conn, cfg ServerConfig) *Client {
	client := NewClient(&conn{
		Conn:    c,
		Encoder: irc.NewEncoder(c),
		Decoder: irc.NewDecoder(c),
	}, cfg)
	client.Host = client.ResolveHost()

	return client
}

func (c *Client) Prefix() *irc.Prefix {
	return &irc.Prefix{
		Name: c.Nick,
		User: c.User,
		Host: c.Host,
	}
}

func (c *Client) ServerPrefix() *irc.Prefix {
	return &irc.Prefix{Name: c.config.Name}
}

func (c *Client) String() string {
	return c.Prefix().String()
}

// Encode and send each msg until an error occurs, then returns.
func (c *Client) Encode(msgs ...*irc.Message) error {
	for _, msg := range msgs {
		logger.Debugf("-> %s", msg)

		if err := c.Conn.Encode(msg); err != nil {
			return err
		}
	}

	return nil
}

// Decode will receive and return a decoded message, or an error.
func (c *Client) Decode() (*irc.Message, error) {
	msg, err := c.Conn.Decode()
	if err == nil && msg != nil {
		if msg.Command == irc.PASS {
			logger.Debugf("<- PASS ***")
		} else {
			logger.Debugf("<- %s", msg)
		}
	}

	return msg, err
}

// Commands decodes the connection in its own goroutine. The channel is closed
// when decoding fails or ctx is done.
func (c *Client) Commands(ctx context.Context) <-chan Command {
	cmds := make(chan Command)

	go func() {
		defer close(cmds)

		for {
			msg, err := c.Decode()
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
					logger.Debugf("connection of %s closed", c.Nick)
				} else {
					logger.Errorf("decode error for %s: %s", c.Nick, err)
				}

				return
			}

			if msg == nil {
				// Ignore empty messages
				continue
			}

			select {
			case cmds <- ParseCommand(msg):
			case <-ctx.Done():
				return
			}
		}
	}()

	return cmds
}

func (c *Client) encodeMessage(cmd string, params []string, trailing string) error {
	return c.Encode(&irc.Message{
		Prefix:   c.ServerPrefix(),
		Command:  cmd,
		Params:   params,
		Trailing: trailing,
	})
}

func (c *Client) Welcome() error {
	err := c.Encode(
		&irc.Message{
			Prefix:   c.ServerPrefix(),
			Command:  irc.RPL_WELCOME,
			Params:   []string{c.Nick},
			Trailing: fmt.Sprintf("Welcome! %s", c.Prefix()),
		},
		&irc.Message{
			Prefix:   c.ServerPrefix(),
			Command:  irc.RPL_YOURHOST,
			Params:   []string{c.Nick},
			Trailing: fmt.Sprintf("Your host is %s, running version %s", c.config.Name, c.config.Version),
		},
		&irc.Message{
			Prefix:   c.ServerPrefix(),
			Command:  irc.RPL_CREATED,
			Params:   []string{c.Nick},
			Trailing: fmt.Sprintf("This server was created %s", c.created.Format(time.UnixDate)),
		},
		&irc.Message{
			Prefix:   c.ServerPrefix(),
			Command:  irc.RPL_MYINFO,
			Params:   []string{c.Nick},
			Trailing: fmt.Sprintf("%s %s o o", c.config.Name, c.config.Version),
		},
		&irc.Message{
			Prefix:   c.ServerPrefix(),
			Command:  irc.RPL_LUSERCLIENT,
			Params:   []string{c.Nick},
			Trailing: "There are 1 users and 0 services on 1 servers",
		},
	)
	if err != nil {
		return err
	}

	// Always include motd, even if it's empty, some clients expect it.
	return c.Encode(c.motd()...)
}

func (c *Client) motd() []*irc.Message {
	r := make([]*irc.Message, 0, len(c.config.Motd)+2)

	r = append(r, &irc.Message{
		Prefix:   c.ServerPrefix(),
		Command:  irc.RPL_MOTDSTART,
		Params:   []string{c.Nick},
		Trailing: fmt.Sprintf("- %s Message of the Day -", c.config.Name),
	})

	for _, line := range c.config.Motd {
		r = append(r, &irc.Message{
			Prefix:   c.ServerPrefix(),
			Command:  irc.RPL_MOTD,
			Params:   []string{c.Nick},
			Trailing: fmt.Sprintf("- %s", line),
		})
	}

	r = append(r, &irc.Message{
		Prefix:   c.ServerPrefix(),
		Command:  irc.RPL_ENDOFMOTD,
		Params:   []string{c.Nick},
		Trailing: "End of /MOTD command.",
	})

	return r
}

// Join echoes a JOIN back to the client.
func (c *Client) Join(channel string) error {
	return c.Encode(&irc.Message{
		Prefix:  c.Prefix(),
		Command: irc.JOIN,
		Params:  []string{channel},
	})
}

// Rename tells the client its nick changed.
func (c *Client) Rename(nick string) error {
	if nick == c.Nick {
		return nil
	}

	msg := &irc.Message{
		Prefix:   c.Prefix(),
		Command:  irc.NICK,
		Trailing: nick,
	}
	c.Nick = nick

	return c.Encode(msg)
}

func (c *Client) Pong(token string) error {
	return c.encodeMessage(irc.PONG, []string{c.config.Name}, token)
}

func (c *Client) Notice(text string) error {
	return c.encodeMessage(irc.NOTICE, []string{c.target()}, text)
}

func (c *Client) Error(text string) error {
	return c.encodeMessage(irc.ERROR, nil, text)
}

func (c *Client) NeedMoreParams(cmd string) error {
	return c.encodeMessage(irc.ERR_NEEDMOREPARAMS, []string{c.target(), cmd}, "Not enough parameters")
}

func (c *Client) PasswordRequired() error {
	return c.encodeMessage(irc.ERR_PASSWDMISMATCH, []string{c.target()}, "Password required")
}

// target is the nick used in numeric replies, "*" before NICK was seen.
func (c *Client) target() string {
	if c.Nick == "" {
		return "*"
	}
	return c.Nick
}
