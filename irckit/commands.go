package irckit

import (
	"strings"

	"github.com/sorcix/irc"
)

// Command is one of the commands below, parsed from an irc.Message.
type Command interface {
	command()
}

type PassCommand struct {
	Password string
}

type NickCommand struct {
	Nick string
}

type UserCommand struct {
	User string
	Real string
}

type JoinCommand struct {
	Channels []string
}

type PrivmsgCommand struct {
	Target string
	Text   string
}

type PingCommand struct {
	Token string
}

type QuitCommand struct {
	Reason string
}

// InvalidCommand is a known command sent with too few parameters.
type InvalidCommand struct {
	Command string
}

type UnknownCommand struct {
	Message *irc.Message
}

func (PassCommand) command()    {}
func (NickCommand) command()    {}
func (UserCommand) command()    {}
func (JoinCommand) command()    {}
func (PrivmsgCommand) command() {}
func (PingCommand) command()    {}
func (QuitCommand) command()    {}
func (InvalidCommand) command() {}
func (UnknownCommand) command() {}

// handler is a container for an irc.Message parser.
type handler struct {
	// MinParams is the minimum number of params required on the message,
	// trailing included.
	MinParams int
	Parse     func(args []string) Command
}

var handlers = map[string]handler{
	irc.PASS: {MinParams: 1, Parse: func(args []string) Command {
		return PassCommand{Password: args[0]}
	}},
	irc.NICK: {MinParams: 1, Parse: func(args []string) Command {
		return NickCommand{Nick: args[0]}
	}},
	irc.USER: {MinParams: 1, Parse: func(args []string) Command {
		cmd := UserCommand{User: args[0]}
		if len(args) > 3 {
			cmd.Real = args[3]
		}
		return cmd
	}},
	irc.JOIN: {MinParams: 1, Parse: func(args []string) Command {
		var channels []string
		for _, ch := range strings.Split(args[0], ",") {
			if ch != "" {
				channels = append(channels, ch)
			}
		}
		return JoinCommand{Channels: channels}
	}},
	irc.PRIVMSG: {MinParams: 2, Parse: func(args []string) Command {
		// non-rfc clients send the text without a ':' prefix
		text := strings.Join(args[1:], " ")
		return PrivmsgCommand{Target: args[0], Text: strings.ReplaceAll(text, "\r", "")}
	}},
	irc.PING: {MinParams: 1, Parse: func(args []string) Command {
		return PingCommand{Token: args[0]}
	}},
	irc.QUIT: {MinParams: 0, Parse: func(args []string) Command {
		cmd := QuitCommand{}
		if len(args) > 0 {
			cmd.Reason = args[0]
		}
		return cmd
	}},
}

// ParseCommand turns a decoded message into a Command.
func ParseCommand(msg *irc.Message) Command {
	h, ok := handlers[strings.ToUpper(msg.Command)]
	if !ok {
		return UnknownCommand{Message: msg}
	}

	args := append([]string{}, msg.Params...)
	if msg.Trailing != "" || msg.EmptyTrailing {
		args = append(args, msg.Trailing)
	}

	if len(args) < h.MinParams {
		return InvalidCommand{Command: strings.ToUpper(msg.Command)}
	}

	return h.Parse(args)
}
