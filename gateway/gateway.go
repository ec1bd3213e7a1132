package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/42wim/matrixircd/bridge"
	"github.com/42wim/matrixircd/irckit"
	"github.com/jpillora/backoff"
	"github.com/sorcix/irc"
	"github.com/spf13/viper"
)

// ErrQuit is returned by HandleLocalCommand when the client quits.
var ErrQuit = errors.New("client quit")

// Gateway ties one IRC client to one matrix session. All its state is owned
// by the goroutine running Run.
type Gateway struct {
	v      *viper.Viper
	local  *irckit.Client
	remote bridge.Client

	rooms     map[bridge.RoomID]*Room
	roomOrder []*Room
	seen      *Ledger
	tr        *Translator

	// login in progress
	username string
	password string
	hasPass  bool

	me       bridge.UserID
	loggedIn bool
	synced   bool

	outbox  []*irc.Message
	polls   chan pollBatch
	polling bool
	backoff *backoff.Backoff
}

func New(v *viper.Viper, local *irckit.Client, remote bridge.Client) *Gateway {
	return &Gateway{
		v:      v,
		local:  local,
		remote: remote,
		rooms:  make(map[bridge.RoomID]*Room),
		seen:   NewLedger(v.GetInt("matrix.dedupsize")),
		tr: &Translator{
			ServerName:    v.GetString("servername"),
			MaxLineLength: v.GetInt("matrix.maxlinelength"),
			IRCEmphasis:   !v.GetBool("matrix.disableircemphasis"),
		},
		polls: make(chan pollBatch),
		backoff: &backoff.Backoff{
			Min:    durationOr(v.GetDuration("matrix.retrymin"), time.Second),
			Max:    durationOr(v.GetDuration("matrix.retrymax"), 5*time.Minute),
			Jitter: true,
		},
	}
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Me is the logged in matrix user, zero before login.
func (g *Gateway) Me() bridge.UserID {
	return g.me
}

// Synced reports whether the initial sync has been applied.
func (g *Gateway) Synced() bool {
	return g.synced
}

// ResolveRoom returns the room for id, creating it when it's new.
func (g *Gateway) ResolveRoom(id bridge.RoomID) *Room {
	if room, ok := g.rooms[id]; ok {
		return room
	}

	room := newRoom(id, g.tr)
	g.rooms[id] = room
	g.roomOrder = append(g.roomOrder, room)

	logger.Debugf("new room %s", id)

	return room
}

// ResolveChannel returns the room exposed as channel name, or nil.
func (g *Gateway) ResolveChannel(name string) *Room {
	for _, room := range g.roomOrder {
		if room.displayName != "" && room.displayName == name {
			return room
		}
	}

	return nil
}

func (g *Gateway) emit(msgs ...*irc.Message) {
	g.outbox = append(g.outbox, msgs...)
}

func (g *Gateway) flush() error {
	if len(g.outbox) == 0 {
		return nil
	}

	msgs := g.outbox
	g.outbox = nil

	return g.local.Encode(msgs...)
}

// HandleRemoteEvent applies one matrix event. Events already seen are
// dropped, the IRC messages an event produces are sent together after it has
// been applied.
func (g *Gateway) HandleRemoteEvent(evt *bridge.Event) error {
	if g.seen.Seen(evt.ID) {
		logger.Tracef("dropping already seen event %s", evt.ID)
		return nil
	}

	switch data := evt.Data.(type) {
	case bridge.RoomEvent:
		g.ResolveRoom(data.Room).ApplyEvent(data.Event, g.emit)
	case bridge.EndOfSync:
		g.finishSync()
	case bridge.Typing:
		logger.Tracef("%s: typing %v", data.Room, data.Users)
	case bridge.Unknown:
		logger.Debugf("unknown event type %s", data.Type)
	default:
		logger.Warnf("unhandled event %#v", evt)
	}

	g.seen.Record(evt.ID)

	return g.flush()
}

func (g *Gateway) finishSync() {
	for _, room := range g.roomOrder {
		if room.Pending() {
			room.FinishSync(g.me, g.emit)
		}
	}

	g.synced = true
}

//nolint:cyclop
func (g *Gateway) HandleLocalCommand(ctx context.Context, cmd irckit.Command) error {
	switch c := cmd.(type) {
	case irckit.PassCommand:
		g.password = c.Password
		g.hasPass = true

		return g.maybeLogin(ctx)
	case irckit.NickCommand:
		if g.loggedIn {
			logger.Debugf("ignoring nick change to %s, nick follows %s", c.Nick, g.me)
			return nil
		}

		g.local.Nick = c.Nick
	case irckit.UserCommand:
		g.local.User = c.User
		g.local.Real = c.Real
		g.username = c.User

		if !g.hasPass && !g.loggedIn {
			return g.local.PasswordRequired()
		}

		return g.maybeLogin(ctx)
	case irckit.JoinCommand:
		for _, ch := range c.Channels {
			if err := g.local.Join(ch); err != nil {
				return err
			}
		}
	case irckit.PrivmsgCommand:
		return g.privmsg(ctx, c)
	case irckit.PingCommand:
		return g.local.Pong(c.Token)
	case irckit.QuitCommand:
		return g.quit(ctx, c)
	case irckit.InvalidCommand:
		return g.local.NeedMoreParams(c.Command)
	case irckit.UnknownCommand:
		logger.Debugf("unhandled command %s", c.Message)
	default:
		logger.Warnf("unhandled command %#v", cmd)
	}

	return nil
}

func (g *Gateway) maybeLogin(ctx context.Context) error {
	if g.loggedIn || !g.hasPass || g.username == "" {
		return nil
	}

	return g.login(ctx)
}

// login authenticates against matrix, replays the initial sync, starts
// polling and welcomes the client. Any failure ends the session.
func (g *Gateway) login(ctx context.Context) error {
	username, password := g.username, g.password
	g.password = ""
	g.hasPass = false

	me, err := g.remote.Login(ctx, username, password)
	if err != nil {
		logger.Errorf("login of %s failed: %s", username, err)
		g.local.Error("Login failed: " + err.Error()) //nolint:errcheck

		return fmt.Errorf("login %s: %w", username, err)
	}

	g.me = me
	g.loggedIn = true

	if g.local.Nick == "" {
		g.local.Nick = me.Nickname
	} else if err := g.local.Rename(me.Nickname); err != nil {
		return err
	}

	events, err := g.remote.Sync(ctx)
	if err != nil {
		logger.Errorf("initial sync for %s failed: %s", me, err)
		g.local.Error("Sync failed: " + err.Error()) //nolint:errcheck

		return fmt.Errorf("initial sync: %w", err)
	}

	for _, evt := range events {
		if err := g.HandleRemoteEvent(evt); err != nil {
			return err
		}
	}

	logger.Infof("%s synced %d rooms", me, len(g.rooms))

	g.startPoll(ctx, 0)

	return g.local.Welcome()
}

func (g *Gateway) privmsg(ctx context.Context, c irckit.PrivmsgCommand) error {
	if !g.loggedIn || c.Text == "" {
		return nil
	}

	room := g.ResolveChannel(c.Target)
	if room == nil {
		logger.Debugf("dropping message to unknown channel %s", c.Target)
		return nil
	}

	req := g.tr.Outbound(room.ID, g.me, c.Text)
	if req == nil {
		return nil
	}

	id, err := g.remote.Send(ctx, req)
	if err != nil {
		logger.Errorf("send to %s failed: %s", room.ID, err)
		return g.local.Notice("msg: " + c.Text + " could not be sent " + err.Error())
	}

	g.seen.Record(id)

	return nil
}

func (g *Gateway) quit(ctx context.Context, c irckit.QuitCommand) error {
	logger.Infof("%s quit: %s", g.local.Nick, c.Reason)

	if g.loggedIn && g.v.GetBool("matrix.logoutonquit") {
		if err := g.remote.Logout(ctx); err != nil {
			logger.Errorf("logout of %s failed: %s", g.me, err)
		}
	}

	g.local.Error("Closing link: " + c.Reason) //nolint:errcheck

	return ErrQuit
}
