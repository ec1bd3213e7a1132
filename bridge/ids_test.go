package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserID(t *testing.T) {
	u, err := ParseUserID("@alice:example.org")
	require.NoError(t, err)
	assert.Equal(t, UserID{Nickname: "alice", Homeserver: "example.org"}, u)
	assert.Equal(t, "@alice:example.org", u.String())

	for _, in := range []string{"", "alice", "@alice", "alice:example.org", "@:example.org"} {
		_, err := ParseUserID(in)
		assert.ErrorIs(t, err, ErrInvalidID, in)
	}
}

func TestUserIDEquality(t *testing.T) {
	a, _ := ParseUserID("@bob:h.net")
	b, _ := ParseUserID("@bob:h.net")
	c, _ := ParseUserID("@bob:other.net")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	m := map[UserID]int{a: 1}
	assert.Equal(t, 1, m[b])
	assert.True(t, UserID{}.IsZero())
}

func TestParseRoomID(t *testing.T) {
	r, err := ParseRoomID("!abc:home.org")
	require.NoError(t, err)
	assert.Equal(t, RoomID{LocalID: "abc", Homeserver: "home.org"}, r)
	assert.Equal(t, "!abc:home.org", r.String())

	r, err = ParseRoomID("!opaque")
	require.NoError(t, err)
	assert.Equal(t, "", r.Homeserver)
	assert.Equal(t, "!opaque", r.String())

	for _, in := range []string{"", "abc:home.org", "!", "!:home.org", "#alias:home.org"} {
		_, err := ParseRoomID(in)
		assert.ErrorIs(t, err, ErrInvalidID, in)
	}
}
