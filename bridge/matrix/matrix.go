package matrix

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/42wim/matrixircd/bridge"
	"github.com/42wim/matterbridge/bridge/helper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Matrix struct {
	mc    *mautrix.Client
	v     *viper.Viper
	since string
	me    bridge.UserID
	sync.RWMutex
}

var logger = logrus.WithFields(logrus.Fields{"prefix": "bridge/matrix"})

func SetLogger(l *logrus.Entry) {
	logger = l
}

func New(v *viper.Viper) (*Matrix, error) {
	server := v.GetString("matrix.server")
	if server == "" {
		return nil, fmt.Errorf("matrix.server is not configured")
	}

	if !strings.HasPrefix(server, "https://") {
		logger.Warnf("%s is not using https, credentials are sent in the clear", server)
	}

	mc, err := mautrix.NewClient(server, "", "")
	if err != nil {
		return nil, fmt.Errorf("matrix client for %s: %w", server, err)
	}

	return &Matrix{
		mc: mc,
		v:  v,
	}, nil
}

func (m *Matrix) Login(ctx context.Context, username, password string) (bridge.UserID, error) {
	if err := ctx.Err(); err != nil {
		return bridge.UserID{}, err
	}

	logger.Debugf("login: %s on %s", username, m.mc.HomeserverURL)

	resp, err := m.mc.Login(&mautrix.ReqLogin{
		Type: "m.login.password",
		Identifier: mautrix.UserIdentifier{
			Type: "m.id.user",
			User: username,
		},
		Password:         password,
		StoreCredentials: true,
	})
	if err != nil {
		return bridge.UserID{}, fmt.Errorf("login %s: %w", username, err)
	}

	me, err := bridge.ParseUserID(resp.UserID.String())
	if err != nil {
		return bridge.UserID{}, err
	}

	m.Lock()
	m.me = me
	m.Unlock()

	logger.Infof("logged in as %s", me)

	return me, nil
}

func (m *Matrix) Sync(ctx context.Context) ([]*bridge.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := m.mc.SyncRequest(0, "", "", true, "")
	if err != nil {
		return nil, fmt.Errorf("initial sync: %w", err)
	}

	traceSync(resp)

	m.Lock()
	m.since = resp.NextBatch
	m.Unlock()

	events := convertSync(resp, true)
	events = append(events, &bridge.Event{Data: bridge.EndOfSync{}})

	logger.Debugf("initial sync: %d rooms, %d events", len(resp.Rooms.Join), len(events))

	return events, nil
}

func (m *Matrix) PollOnce(ctx context.Context) ([]*bridge.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.RLock()
	since := m.since
	m.RUnlock()

	timeout := m.v.GetInt("matrix.polltimeout") * 1000

	resp, err := m.mc.SyncRequest(timeout, since, "", false, "")
	if err != nil {
		return nil, fmt.Errorf("poll since %s: %w", since, err)
	}

	traceSync(resp)

	m.Lock()
	m.since = resp.NextBatch
	m.Unlock()

	return convertSync(resp, false), nil
}

func (m *Matrix) Send(ctx context.Context, req *bridge.SendRequest) (bridge.EventID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	logger.Debugf("send: %s '%s'", req.Room, req.Message.Text)

	content := event.MessageEventContent{
		MsgType:       msgType(req.Message.Kind),
		Body:          req.Message.Text,
		FormattedBody: helper.ParseMarkdown(req.Message.Text),
		Format:        "org.matrix.custom.html",
	}

	resp, err := m.mc.SendMessageEvent(id.RoomID(req.Room.String()), event.EventMessage, content)
	if err != nil {
		return "", fmt.Errorf("send to %s: %w", req.Room, err)
	}

	logger.Trace("send: resp ", resp)

	return bridge.EventID(resp.EventID), nil
}

func (m *Matrix) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := m.mc.Logout(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	m.mc.ClearCredentials()

	return nil
}

func msgType(kind bridge.MessageKind) event.MessageType {
	switch kind {
	case bridge.Emote:
		return event.MsgEmote
	case bridge.Notice:
		return event.MsgNotice
	default:
		return event.MsgText
	}
}
