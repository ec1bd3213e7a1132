package gateway

import (
	"strings"

	"github.com/42wim/matrixircd/bridge"
	"github.com/muesli/reflow/wordwrap"
	"github.com/sorcix/irc"
)

const defaultMaxLineLength = 440

// Translator maps matrix events to IRC messages and back. It holds no room
// state.
type Translator struct {
	ServerName    string
	MaxLineLength int
	// IRCEmphasis converts markdown emphasis to IRC control codes.
	IRCEmphasis bool
}

func (t *Translator) lineLength() int {
	if t.MaxLineLength <= 0 {
		return defaultMaxLineLength
	}
	return t.MaxLineLength
}

// userPrefix is the nick!nick@homeserver prefix of a matrix user.
func userPrefix(u bridge.UserID) *irc.Prefix {
	return &irc.Prefix{
		Name: u.Nickname,
		User: u.Nickname,
		Host: u.Homeserver,
	}
}

func (t *Translator) Join(u bridge.UserID, channel string) *irc.Message {
	return &irc.Message{
		Prefix:  userPrefix(u),
		Command: irc.JOIN,
		Params:  []string{channel},
	}
}

func (t *Translator) Part(u bridge.UserID, channel string) *irc.Message {
	return &irc.Message{
		Prefix:  userPrefix(u),
		Command: irc.PART,
		Params:  []string{channel},
	}
}

func (t *Translator) Topic(topic bridge.Topic, channel string) *irc.Message {
	return &irc.Message{
		Prefix:        userPrefix(topic.Sender),
		Command:       irc.TOPIC,
		Params:        []string{channel},
		Trailing:      topic.Topic,
		EmptyTrailing: true,
	}
}

// Message returns one message per line of text. IRC can't carry newlines so
// multi-line bodies and lines longer than MaxLineLength are split.
func (t *Translator) Message(msg bridge.Message, channel string) []*irc.Message {
	text := msg.Text
	if t.IRCEmphasis {
		text = markdown2irc(text)
	}

	command := irc.PRIVMSG
	if msg.Kind == bridge.Notice {
		command = irc.NOTICE
	}

	var msgs []*irc.Message

	for _, line := range strings.Split(wordwrap.String(text, t.lineLength()), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if msg.Kind == bridge.Emote {
			line = "\x01ACTION " + line + "\x01"
		}

		msgs = append(msgs, &irc.Message{
			Prefix:        userPrefix(msg.Sender),
			Command:       command,
			Params:        []string{channel},
			Trailing:      line,
			EmptyTrailing: true,
		})
	}

	return msgs
}

// Names returns the NAMES reply for channel, split over several 353 lines
// when the member list is long.
func (t *Translator) Names(self bridge.UserID, channel, joinRules string, members []bridge.UserID) []*irc.Message {
	symbol := "@"
	if joinRules == "public" {
		symbol = "="
	}

	nicks := make([]string, 0, len(members))
	for _, m := range members {
		nicks = append(nicks, m.Nickname)
	}

	prefix := &irc.Prefix{Name: t.ServerName}

	var msgs []*irc.Message

	for _, line := range strings.Split(wordwrap.String(strings.Join(nicks, " "), t.lineLength()), "\n") {
		msgs = append(msgs, &irc.Message{
			Prefix:        prefix,
			Command:       irc.RPL_NAMREPLY,
			Params:        []string{self.Nickname, symbol, channel},
			Trailing:      strings.TrimSpace(line),
			EmptyTrailing: true,
		})
	}

	return append(msgs, &irc.Message{
		Prefix:   prefix,
		Command:  irc.RPL_ENDOFNAMES,
		Params:   []string{self.Nickname, channel},
		Trailing: "End of /NAMES list.",
	})
}

// Outbound turns the text of a PRIVMSG into a send request for room. Other
// CTCP requests than ACTION have no matrix counterpart and return nil.
func (t *Translator) Outbound(room bridge.RoomID, self bridge.UserID, text string) *bridge.SendRequest {
	kind := bridge.Text

	switch {
	case strings.HasPrefix(text, "\x01ACTION "):
		text = strings.TrimSuffix(strings.TrimPrefix(text, "\x01ACTION "), "\x01")
		kind = bridge.Emote
	case strings.HasPrefix(text, "\x01"):
		return nil
	}

	text = irc2markdown(stripColors(text))
	if text == "" {
		return nil
	}

	return &bridge.SendRequest{
		Room: room,
		Message: bridge.Message{
			Sender: self,
			Text:   text,
			Kind:   kind,
		},
	}
}
