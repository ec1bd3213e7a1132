package bridge

import (
	"errors"
	"fmt"
	"strings"

	"maunium.net/go/mautrix/id"
)

var ErrInvalidID = errors.New("invalid identifier")

type UserID struct {
	Nickname   string
	Homeserver string
}

// ParseUserID parses "@nick:homeserver".
func ParseUserID(s string) (UserID, error) {
	localpart, homeserver, err := id.UserID(s).Parse()
	if err != nil {
		return UserID{}, fmt.Errorf("%w: user %q: %s", ErrInvalidID, s, err)
	}

	if localpart == "" || homeserver == "" {
		return UserID{}, fmt.Errorf("%w: user %q", ErrInvalidID, s)
	}

	return UserID{Nickname: localpart, Homeserver: homeserver}, nil
}

func (u UserID) String() string {
	return "@" + u.Nickname + ":" + u.Homeserver
}

func (u UserID) IsZero() bool {
	return u == UserID{}
}

type RoomID struct {
	LocalID    string
	Homeserver string
}

// ParseRoomID parses "!local:homeserver". Newer room versions drop the server
// part, those parse with an empty Homeserver.
func ParseRoomID(s string) (RoomID, error) {
	if !strings.HasPrefix(s, "!") {
		return RoomID{}, fmt.Errorf("%w: room %q", ErrInvalidID, s)
	}

	local, homeserver, _ := strings.Cut(s[1:], ":")
	if local == "" {
		return RoomID{}, fmt.Errorf("%w: room %q", ErrInvalidID, s)
	}

	return RoomID{LocalID: local, Homeserver: homeserver}, nil
}

func (r RoomID) String() string {
	if r.Homeserver == "" {
		return "!" + r.LocalID
	}
	return "!" + r.LocalID + ":" + r.Homeserver
}

type EventID string

func (e EventID) String() string {
	return string(e)
}
