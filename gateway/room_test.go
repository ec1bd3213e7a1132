package gateway

import (
	"testing"

	"github.com/42wim/matrixircd/bridge"
	"github.com/sorcix/irc"
	"github.com/stretchr/testify/assert"
)

type collector struct {
	msgs []*irc.Message
}

func (c *collector) emit(msgs ...*irc.Message) {
	c.msgs = append(c.msgs, msgs...)
}

func (c *collector) lines() []string {
	res := make([]string, 0, len(c.msgs))
	for _, m := range c.msgs {
		res = append(res, m.String())
	}
	c.msgs = nil

	return res
}

func newTestRoom(id bridge.RoomID) *Room {
	return newRoom(id, &Translator{ServerName: testServerName})
}

func TestRoomBufferThenFlush(t *testing.T) {
	out := &collector{}
	r := newTestRoom(roomX)

	r.ApplyEvent(bridge.CanonicalAlias{Alias: "#x:home.org"}, out.emit)
	r.ApplyEvent(bridge.Membership{User: alice, Action: bridge.Join}, out.emit)
	r.ApplyEvent(bridge.Message{Sender: alice, Text: "first"}, out.emit)
	r.ApplyEvent(bridge.Topic{Sender: alice, Topic: "topical"}, out.emit)
	r.ApplyEvent(bridge.Message{Sender: alice, Text: "second"}, out.emit)

	assert.Empty(t, out.lines())
	assert.True(t, r.Pending())
	assert.Equal(t, "", r.DisplayName())
	assert.Len(t, r.pendingEvents, 3)

	r.FinishSync(me, out.emit)

	assert.Equal(t, []string{
		":me!me@home.org JOIN #x:home.org",
		":testserver 353 me @ #x:home.org :alice",
		":testserver 366 me #x:home.org :End of /NAMES list.",
		":alice!alice@home.org PRIVMSG #x:home.org :first",
		":alice!alice@home.org TOPIC #x:home.org :topical",
		":alice!alice@home.org PRIVMSG #x:home.org :second",
	}, out.lines())
	assert.False(t, r.Pending())
	assert.Empty(t, r.pendingEvents)

	// named rooms never buffer again
	r.ApplyEvent(bridge.Message{Sender: alice, Text: "third"}, out.emit)
	assert.Equal(t, []string{":alice!alice@home.org PRIVMSG #x:home.org :third"}, out.lines())
	assert.Empty(t, r.pendingEvents)
}

func TestRoomNamePriority(t *testing.T) {
	tests := []struct {
		name      string
		id        bridge.RoomID
		canonical bridge.CanonicalAlias
		aliases   []string
		want      string
	}{
		{
			name:      "homeserver alias wins",
			id:        roomX,
			canonical: bridge.CanonicalAlias{Alias: "#c:other.org"},
			aliases:   []string{"#a:other.org", "#b:home.org"},
			want:      "#b:home.org",
		},
		{
			name:      "canonical alias",
			id:        roomX,
			canonical: bridge.CanonicalAlias{Alias: "#c:other.org"},
			aliases:   []string{"#a:other.org"},
			want:      "#c:other.org",
		},
		{
			name:    "first alias",
			id:      roomX,
			aliases: []string{"#a:other.org", "#b:third.org"},
			want:    "#a:other.org",
		},
		{
			name:      "alt alias on homeserver",
			id:        roomX,
			canonical: bridge.CanonicalAlias{Alias: "#c:other.org", AltAliases: []string{"#alt:home.org"}},
			want:      "#alt:home.org",
		},
		{
			name: "synthesized",
			id:   bridge.RoomID{LocalID: "abc", Homeserver: "other.org"},
			want: "#abc:other.org",
		},
		{
			name: "synthesized without server part",
			id:   bridge.RoomID{LocalID: "opaque"},
			want: "#opaque",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &collector{}
			r := newTestRoom(tt.id)

			if tt.canonical.Alias != "" {
				r.ApplyEvent(tt.canonical, out.emit)
			}

			if tt.aliases != nil {
				r.ApplyEvent(bridge.Aliases{Aliases: tt.aliases}, out.emit)
			}

			assert.Empty(t, out.lines())

			r.FinishSync(me, out.emit)
			assert.Equal(t, tt.want, r.DisplayName())
		})
	}
}

func TestRoomMembershipIdempotent(t *testing.T) {
	out := &collector{}
	r := newTestRoom(roomX)
	r.ApplyEvent(bridge.CanonicalAlias{Alias: "#x:home.org"}, out.emit)
	r.FinishSync(me, out.emit)
	out.lines()

	join := bridge.Membership{User: bob, Action: bridge.Join}
	r.ApplyEvent(join, out.emit)
	r.ApplyEvent(join, out.emit)

	assert.Equal(t, []string{":bob!bob@other.org JOIN #x:home.org"}, out.lines())
	assert.Equal(t, []bridge.UserID{bob}, r.Members())

	leave := bridge.Membership{User: bob, Action: bridge.Leave}
	r.ApplyEvent(leave, out.emit)
	r.ApplyEvent(leave, out.emit)

	assert.Equal(t, []string{":bob!bob@other.org PART #x:home.org"}, out.lines())
	assert.Empty(t, r.Members())
}

func TestRoomMembershipWhilePending(t *testing.T) {
	out := &collector{}
	r := newTestRoom(roomX)

	r.ApplyEvent(bridge.Membership{User: alice, Action: bridge.Join}, out.emit)
	r.ApplyEvent(bridge.Membership{User: bob, Action: bridge.Join}, out.emit)
	r.ApplyEvent(bridge.Membership{User: alice, Action: bridge.Join}, out.emit)
	r.ApplyEvent(bridge.Membership{User: bob, Action: bridge.Leave}, out.emit)

	assert.Empty(t, out.lines())
	assert.Equal(t, []bridge.UserID{alice}, r.Members())
}

func TestRoomMetadataProducesNothing(t *testing.T) {
	out := &collector{}
	r := newTestRoom(roomX)
	r.FinishSync(me, out.emit)
	out.lines()

	r.ApplyEvent(bridge.CanonicalAlias{Alias: "#new:home.org"}, out.emit)
	r.ApplyEvent(bridge.JoinRules{Rule: "public"}, out.emit)
	r.ApplyEvent(bridge.Aliases{Aliases: []string{"#a:home.org"}}, out.emit)
	r.ApplyEvent(bridge.Ignored{Type: "m.room.create"}, out.emit)
	r.ApplyEvent(bridge.UnknownRoomEvent{Type: "org.example"}, out.emit)

	assert.Empty(t, out.lines())
	// the channel name is fixed once synced
	assert.Equal(t, "#x:home.org", r.DisplayName())
}

func TestRoomPublicNames(t *testing.T) {
	out := &collector{}
	r := newTestRoom(roomX)
	r.ApplyEvent(bridge.JoinRules{Rule: "public"}, out.emit)
	r.ApplyEvent(bridge.Membership{User: me, Action: bridge.Join}, out.emit)
	r.FinishSync(me, out.emit)

	assert.Equal(t, []string{
		":me!me@home.org JOIN #x:home.org",
		":testserver 353 me = #x:home.org :me",
		":testserver 366 me #x:home.org :End of /NAMES list.",
	}, out.lines())
}

func TestRoomFinishSyncTwicePanics(t *testing.T) {
	out := &collector{}
	r := newTestRoom(roomX)
	r.FinishSync(me, out.emit)

	assert.Panics(t, func() { r.FinishSync(me, out.emit) })
}
