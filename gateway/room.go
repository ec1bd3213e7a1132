package gateway

import (
	"fmt"
	"strings"

	"github.com/42wim/matrixircd/bridge"
	"github.com/sorcix/irc"
)

type emitFunc func(msgs ...*irc.Message)

// Room is a matrix room exposed as an IRC channel. A room starts pending and
// buffers chat events until FinishSync gave it a channel name.
type Room struct {
	ID bridge.RoomID

	displayName    string
	canonicalAlias string
	aliases        []string
	altAliases     []string
	joinRules      string
	members        []bridge.UserID
	pendingEvents  []bridge.RoomEventData
	syncPending    bool

	tr *Translator
}

func newRoom(id bridge.RoomID, tr *Translator) *Room {
	return &Room{
		ID:          id,
		syncPending: true,
		tr:          tr,
	}
}

// DisplayName is the channel name, empty while the room is pending.
func (r *Room) DisplayName() string {
	return r.displayName
}

func (r *Room) Pending() bool {
	return r.syncPending
}

func (r *Room) Members() []bridge.UserID {
	return append([]bridge.UserID(nil), r.members...)
}

func (r *Room) isMember(u bridge.UserID) bool {
	for _, m := range r.members {
		if m == u {
			return true
		}
	}

	return false
}

func (r *Room) removeMember(u bridge.UserID) {
	for i, m := range r.members {
		if m == u {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return
		}
	}
}

// knownAliases returns m.room.aliases followed by the alt aliases of the
// canonical alias event, without duplicates.
func (r *Room) knownAliases() []string {
	seen := make(map[string]bool)

	var res []string

	for _, list := range [][]string{r.aliases, r.altAliases} {
		for _, a := range list {
			if a == "" || seen[a] {
				continue
			}

			seen[a] = true
			res = append(res, a)
		}
	}

	return res
}

func (r *Room) ApplyEvent(evt bridge.RoomEventData, emit emitFunc) {
	switch e := evt.(type) {
	case bridge.CanonicalAlias:
		r.canonicalAlias = e.Alias
		r.altAliases = e.AltAliases
	case bridge.JoinRules:
		r.joinRules = e.Rule
	case bridge.Aliases:
		r.aliases = e.Aliases
	case bridge.Membership:
		r.applyMembership(e, emit)
	case bridge.Message:
		if r.displayName == "" {
			r.pendingEvents = append(r.pendingEvents, e)
			return
		}

		emit(r.tr.Message(e, r.displayName)...)
	case bridge.Topic:
		if r.displayName == "" {
			r.pendingEvents = append(r.pendingEvents, e)
			return
		}

		emit(r.tr.Topic(e, r.displayName))
	case bridge.Ignored:
		logger.Tracef("%s: ignoring %s", r.ID, e.Type)
	case bridge.UnknownRoomEvent:
		logger.Debugf("%s: unknown event type %s", r.ID, e.Type)
	default:
		logger.Warnf("%s: unhandled event %#v", r.ID, evt)
	}
}

func (r *Room) applyMembership(m bridge.Membership, emit emitFunc) {
	switch m.Action {
	case bridge.Join:
		if r.isMember(m.User) {
			return
		}

		if r.displayName != "" {
			emit(r.tr.Join(m.User, r.displayName))
		}

		r.members = append(r.members, m.User)
	case bridge.Leave:
		if !r.isMember(m.User) {
			return
		}

		if r.displayName != "" {
			emit(r.tr.Part(m.User, r.displayName))
		}

		r.removeMember(m.User)
	}
}

// resolveName picks the channel name: an alias on our own homeserver, the
// canonical alias, the first alias, or a name built from the room id.
func (r *Room) resolveName(self bridge.UserID) string {
	aliases := r.knownAliases()

	suffix := ":" + self.Homeserver
	for _, a := range aliases {
		if strings.HasSuffix(a, suffix) {
			return a
		}
	}

	if r.canonicalAlias != "" {
		return r.canonicalAlias
	}

	if len(aliases) > 0 {
		return aliases[0]
	}

	if r.ID.Homeserver == "" {
		return "#" + r.ID.LocalID
	}

	return "#" + r.ID.LocalID + ":" + r.ID.Homeserver
}

// FinishSync names the room, joins self and replays the buffered events
// oldest first. It must be called once per room.
func (r *Room) FinishSync(self bridge.UserID, emit emitFunc) {
	if !r.syncPending {
		panic(fmt.Sprintf("room %s: FinishSync called twice", r.ID))
	}

	r.syncPending = false
	r.displayName = r.resolveName(self)

	logger.Debugf("%s: synced as %s with %d members", r.ID, r.displayName, len(r.members))

	emit(r.tr.Join(self, r.displayName))
	emit(r.tr.Names(self, r.displayName, r.joinRules, r.members)...)

	pending := r.pendingEvents
	r.pendingEvents = nil

	for _, evt := range pending {
		r.ApplyEvent(evt, emit)
	}
}
