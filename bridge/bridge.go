package bridge

import (
	"context"
)

// Client is the Matrix side of a session. One Client serves exactly one IRC
// connection.
type Client interface {
	Login(ctx context.Context, username, password string) (UserID, error)
	// Sync returns the initial room snapshot. The last event is always EndOfSync.
	Sync(ctx context.Context) ([]*Event, error)
	// PollOnce blocks until new events arrive or the server side timeout expires.
	PollOnce(ctx context.Context) ([]*Event, error)
	Send(ctx context.Context, req *SendRequest) (EventID, error)
	Logout(ctx context.Context) error
}

type Event struct {
	// ID is empty for events that carry no id (typing, end of sync).
	ID   EventID
	Data EventData
}

// EventData is one of RoomEvent, Typing, EndOfSync or Unknown.
type EventData interface {
	eventData()
}

type RoomEvent struct {
	Room  RoomID
	Event RoomEventData
}

type Typing struct {
	Room  RoomID
	Users []UserID
}

type EndOfSync struct{}

type Unknown struct {
	Type string
}

func (RoomEvent) eventData() {}
func (Typing) eventData()    {}
func (EndOfSync) eventData() {}
func (Unknown) eventData()   {}

// RoomEventData is the room scoped payload of a RoomEvent.
type RoomEventData interface {
	roomEventData()
}

type CanonicalAlias struct {
	Alias      string
	AltAliases []string
}

type JoinRules struct {
	Rule string
}

type Aliases struct {
	Aliases []string
}

type MembershipAction int

const (
	Join MembershipAction = iota
	Leave
)

func (a MembershipAction) String() string {
	if a == Join {
		return "join"
	}
	return "leave"
}

type Membership struct {
	User   UserID
	Action MembershipAction
}

type MessageKind int

const (
	Text MessageKind = iota
	Emote
	Notice
)

type Message struct {
	Sender UserID
	Text   string
	Kind   MessageKind
}

type Topic struct {
	Sender UserID
	Topic  string
}

// Ignored is a known event type with nothing to show on IRC (create, power
// levels, room name, avatar, history visibility, invites).
type Ignored struct {
	Type string
}

type UnknownRoomEvent struct {
	Type string
}

func (CanonicalAlias) roomEventData()   {}
func (JoinRules) roomEventData()        {}
func (Aliases) roomEventData()          {}
func (Membership) roomEventData()       {}
func (Message) roomEventData()          {}
func (Topic) roomEventData()            {}
func (Ignored) roomEventData()          {}
func (UnknownRoomEvent) roomEventData() {}

type SendRequest struct {
	Room    RoomID
	Message Message
}
