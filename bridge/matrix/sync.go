package matrix

import (
	"encoding/json"
	"sort"

	"github.com/42wim/matrixircd/bridge"
	"github.com/davecgh/go-spew/spew"
	strip "github.com/grokify/html-strip-tags-go"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// event types without an IRC counterpart
var ignoredTypes = map[string]bool{
	event.StateCreate.Type:      true,
	event.StatePowerLevels.Type: true,
	event.StateRoomName.Type:    true,
	event.StateRoomAvatar.Type:  true,
	event.StateEncryption.Type:  true,
	event.EventReaction.Type:    true,
	event.EventRedaction.Type:   true,
	"m.room.history_visibility": true,
	"m.room.guest_access":       true,
}

func traceSync(resp *mautrix.RespSync) {
	if logger.Logger.IsLevelEnabled(logrus.TraceLevel) {
		logger.Tracef("sync %s", spew.Sdump(resp))
	}
}

// convertSync flattens the joined rooms of a sync response. The initial sync
// only keeps state, so history is not replayed on connect.
func convertSync(resp *mautrix.RespSync, initial bool) []*bridge.Event {
	roomIDs := make([]id.RoomID, 0, len(resp.Rooms.Join))
	for roomID := range resp.Rooms.Join {
		roomIDs = append(roomIDs, roomID)
	}

	sort.Slice(roomIDs, func(i, j int) bool { return roomIDs[i] < roomIDs[j] })

	var events []*bridge.Event

	for _, roomID := range roomIDs {
		room, err := bridge.ParseRoomID(roomID.String())
		if err != nil {
			logger.Errorf("skipping room: %s", err)
			continue
		}

		joined := resp.Rooms.Join[roomID]

		for _, ev := range joined.State.Events {
			events = append(events, convertRoomEvent(room, ev))
		}

		for _, ev := range joined.Timeline.Events {
			if initial && ev.StateKey == nil {
				continue
			}

			events = append(events, convertRoomEvent(room, ev))
		}

		if initial {
			continue
		}

		for _, ev := range joined.Ephemeral.Events {
			events = append(events, convertEphemeral(room, ev))
		}
	}

	return events
}

func convertEphemeral(room bridge.RoomID, ev *event.Event) *bridge.Event {
	if ev.Type.Type != event.EphemeralEventTyping.Type {
		return &bridge.Event{Data: bridge.Unknown{Type: ev.Type.Type}}
	}

	var content event.TypingEventContent
	if err := json.Unmarshal(ev.Content.VeryRaw, &content); err != nil {
		logger.Debugf("typing content: %s", err)
	}

	typing := bridge.Typing{Room: room}

	for _, userID := range content.UserIDs {
		if u, err := bridge.ParseUserID(userID.String()); err == nil {
			typing.Users = append(typing.Users, u)
		}
	}

	return &bridge.Event{Data: typing}
}

func convertRoomEvent(room bridge.RoomID, ev *event.Event) *bridge.Event {
	return &bridge.Event{
		ID: bridge.EventID(ev.ID),
		Data: bridge.RoomEvent{
			Room:  room,
			Event: convertContent(ev),
		},
	}
}

//nolint:cyclop
func convertContent(ev *event.Event) bridge.RoomEventData {
	evType := ev.Type.Type
	unknown := bridge.UnknownRoomEvent{Type: evType}

	switch evType {
	case event.StateCanonicalAlias.Type:
		var content event.CanonicalAliasEventContent
		if !decode(ev, &content) {
			return unknown
		}

		alias := bridge.CanonicalAlias{Alias: string(content.Alias)}
		for _, a := range content.AltAliases {
			alias.AltAliases = append(alias.AltAliases, string(a))
		}

		return alias
	case event.StateJoinRules.Type:
		var content event.JoinRulesEventContent
		if !decode(ev, &content) {
			return unknown
		}

		return bridge.JoinRules{Rule: string(content.JoinRule)}
	case event.StateAliases.Type:
		var content struct {
			Aliases []string `mapstructure:"aliases"`
		}

		if err := mapstructure.Decode(ev.Content.Raw, &content); err != nil {
			logger.Debugf("aliases content of %s: %s", ev.ID, err)
			return unknown
		}

		return bridge.Aliases{Aliases: content.Aliases}
	case event.StateMember.Type:
		return convertMember(ev)
	case event.StateTopic.Type:
		var content event.TopicEventContent
		if !decode(ev, &content) {
			return unknown
		}

		sender, err := bridge.ParseUserID(ev.Sender.String())
		if err != nil {
			return unknown
		}

		return bridge.Topic{Sender: sender, Topic: content.Topic}
	case event.EventMessage.Type:
		return convertMessage(ev)
	}

	if ignoredTypes[evType] {
		return bridge.Ignored{Type: evType}
	}

	return unknown
}

func convertMember(ev *event.Event) bridge.RoomEventData {
	unknown := bridge.UnknownRoomEvent{Type: ev.Type.Type}

	if ev.StateKey == nil {
		return unknown
	}

	user, err := bridge.ParseUserID(*ev.StateKey)
	if err != nil {
		return unknown
	}

	var content event.MemberEventContent
	if !decode(ev, &content) {
		return unknown
	}

	switch content.Membership {
	case event.MembershipJoin:
		return bridge.Membership{User: user, Action: bridge.Join}
	case event.MembershipLeave, event.MembershipBan:
		return bridge.Membership{User: user, Action: bridge.Leave}
	default:
		return bridge.Ignored{Type: ev.Type.Type + "/" + string(content.Membership)}
	}
}

func convertMessage(ev *event.Event) bridge.RoomEventData {
	unknown := bridge.UnknownRoomEvent{Type: ev.Type.Type}

	var content event.MessageEventContent
	if !decode(ev, &content) {
		return unknown
	}

	sender, err := bridge.ParseUserID(ev.Sender.String())
	if err != nil {
		return unknown
	}

	text := content.Body
	if text == "" {
		text = strip.StripTags(content.FormattedBody)
	}

	msg := bridge.Message{Sender: sender, Text: text}

	switch content.MsgType {
	case event.MsgEmote:
		msg.Kind = bridge.Emote
	case event.MsgNotice:
		msg.Kind = bridge.Notice
	}

	return msg
}

func decode(ev *event.Event, v interface{}) bool {
	if err := json.Unmarshal(ev.Content.VeryRaw, v); err != nil {
		logger.Debugf("%s content of %s: %s", ev.Type.Type, ev.ID, err)
		return false
	}

	return true
}
