package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playchat/internal/app/auth"
	"playchat/internal/app/chat"
	"playchat/internal/app/message"
	"playchat/internal/app/user"
	"playchat/internal/configs"
	"playchat/internal/pkg/auth/jwt"
	"playchat/internal/pkg/errs"
	"playchat/internal/pkg/resp"
)

const testSecret = "handler-test-secret"

// memStore backs both chat.Store and auth.UserFinder.
type memStore struct {
	mu       sync.Mutex
	users    map[string]user.User
	friends  map[string]bool
	messages map[string]message.Message
}

func newMemStore() *memStore {
	return &memStore{
		users: map[string]user.User{
			"alice": {ID: "alice", Nickname: "Alice"},
			"bob":   {ID: "bob", Nickname: "Bob"},
			"carol": {ID: "carol", Nickname: "Carol"},
		},
		friends:  map[string]bool{chat.RoomID("alice", "bob"): true},
		messages: make(map[string]message.Message),
	}
}

func (s *memStore) GetUserByID(_ context.Context, id string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *memStore) FindRelationship(_ context.Context, a, b string) (*user.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.friends[chat.RoomID(a, b)] {
		return nil, nil
	}
	return &user.Relationship{UserID: a, FriendID: b, Confirmed: true}, nil
}

func (s *memStore) CreateMessage(_ context.Context, m message.NewMessage) (message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := message.Message{
		ID:         fmt.Sprintf("m%d", len(s.messages)+1),
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		Type:       m.Type,
		SentAt:     time.Now(),
	}
	s.messages[msg.ID] = msg
	return msg, nil
}

func (s *memStore) GetMessage(_ context.Context, id string) (message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return message.Message{}, message.ErrNotFound
	}
	return msg, nil
}

func (s *memStore) MarkMessageRead(_ context.Context, id string) (message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return message.Message{}, message.ErrNotFound
	}
	if !msg.IsRead {
		now := time.Now()
		msg.IsRead, msg.ReadAt = true, &now
		s.messages[id] = msg
	}
	return msg, nil
}

func (s *memStore) ListConfirmedRelations(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id := range s.users {
		if id != userID && s.friends[chat.RoomID(userID, id)] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type testServer struct {
	*httptest.Server
	hub *chat.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := newMemStore()
	hub := chat.NewHub(store, chat.Options{SweepInterval: time.Hour})
	deps := &AppDeps{
		Hub:    hub,
		Auth:   auth.NewAuthenticator(testSecret, store),
		Config: &configs.AppConfig{Environment: "development"},
	}

	srv := httptest.NewServer(Router(deps))
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})

	return &testServer{Server: srv, hub: hub}
}

func (s *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
}

func (s *testServer) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()

	tok, err := jwt.GenerateToken(&jwt.Payload{ID: userID}, testSecret, time.Hour)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+tok)

	conn, res, err := websocket.DefaultDialer.Dial(s.wsURL(), header)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, res.StatusCode)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return s.hub.Presence().IsOnline(userID)
	}, 2*time.Second, 10*time.Millisecond)

	return conn
}

type wireFrame struct {
	Type    string          `json:"type"`
	AckID   string          `json:"ackId"`
	Payload json.RawMessage `json:"payload"`
}

// readFrame reads frames until one matches typ, skipping presence noise.
func readFrame(t *testing.T, conn *websocket.Conn, typ string) wireFrame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f wireFrame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == typ {
			return f
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, event, ackID string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": event, "ackId": ackID, "payload": payload}))
}

func TestHandshake_RejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)

	expired, err := jwt.GenerateToken(&jwt.Payload{ID: "alice"}, testSecret, -time.Minute)
	require.NoError(t, err)
	unknown, err := jwt.GenerateToken(&jwt.Payload{ID: "ghost"}, testSecret, time.Hour)
	require.NoError(t, err)

	for name, url := range map[string]string{
		"missing": srv.wsURL(),
		"invalid": srv.wsURL() + "?token=garbage",
		"expired": srv.wsURL() + "?token=" + expired,
		"unknown": srv.wsURL() + "?token=" + unknown,
	} {
		t.Run(name, func(t *testing.T) {
			_, res, err := websocket.DefaultDialer.Dial(url, nil)
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, res)
			defer res.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

			var body resp.JSONResponse
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			assert.Equal(t, errs.ErrUnauthorized, body.Code)
		})
	}

	assert.Zero(t, srv.hub.Stats().OnlineUsers)
}

func TestHandshake_QueryToken(t *testing.T) {
	srv := newTestServer(t)

	tok, err := jwt.GenerateToken(&jwt.Payload{ID: "carol"}, testSecret, time.Hour)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(srv.wsURL()+"?token="+tok, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool {
		return srv.hub.Presence().IsOnline("carol")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChatFlow(t *testing.T) {
	srv := newTestServer(t)

	bob := srv.dial(t, "bob")
	alice := srv.dial(t, "alice")

	status := readFrame(t, bob, chat.EventUserStatus)
	var online chat.StatusEvent
	require.NoError(t, json.Unmarshal(status.Payload, &online))
	assert.Equal(t, "alice", online.UserID)
	assert.Equal(t, chat.StatusOnline, online.Status)

	send(t, alice, chat.EventJoin, "j1", chat.PeerPayload{OtherUserID: "bob"})
	ack := readFrame(t, alice, chat.EventAck)
	var joined chat.JoinResult
	require.NoError(t, json.Unmarshal(ack.Payload, &joined))
	assert.Equal(t, chat.JoinResult{Success: true, RoomID: chat.RoomID("alice", "bob"), OtherUserID: "bob"}, joined)

	send(t, alice, chat.EventJoin, "j2", chat.PeerPayload{OtherUserID: "carol"})
	ack = readFrame(t, alice, chat.EventAck)
	var rejected chat.FailureResult
	require.NoError(t, json.Unmarshal(ack.Payload, &rejected))
	assert.False(t, rejected.Success)
	assert.Equal(t, "Can only chat with friends", rejected.Message)

	// bob has not joined the room yet, so the message arrives as a notification
	send(t, alice, chat.EventMessageSend, "s1", chat.SendPayload{ReceiverID: "bob", Content: "hi", Type: "text", TempID: "tmp-1"})
	ack = readFrame(t, alice, chat.EventAck)
	assert.Equal(t, "s1", ack.AckID)
	var sent chat.SendResult
	require.NoError(t, json.Unmarshal(ack.Payload, &sent))
	assert.True(t, sent.Success)
	assert.Equal(t, "tmp-1", sent.TempID)

	note := readFrame(t, bob, chat.EventMessageNotification)
	var notification chat.NotificationEvent
	require.NoError(t, json.Unmarshal(note.Payload, &notification))
	assert.Equal(t, sent.Message.ID, notification.MessageID)
	assert.Equal(t, "Alice", notification.SenderName)

	send(t, bob, chat.EventJoin, "j3", chat.PeerPayload{OtherUserID: "alice"})
	readFrame(t, bob, chat.EventAck)

	send(t, alice, chat.EventMessageSend, "s2", chat.SendPayload{ReceiverID: "bob", Content: "again", TempID: "tmp-2"})
	readFrame(t, alice, chat.EventAck)
	fanned := readFrame(t, bob, chat.EventMessageNew)
	var evt chat.NewMessageEvent
	require.NoError(t, json.Unmarshal(fanned.Payload, &evt))
	assert.Equal(t, "again", evt.Content)
	assert.Equal(t, "tmp-2", evt.TempID)

	send(t, bob, chat.EventMessageRead, "r1", chat.ReadPayload{MessageID: evt.ID})
	readFrame(t, bob, chat.EventAck)
	receipt := readFrame(t, alice, chat.EventMessageRead)
	var read chat.ReadReceiptEvent
	require.NoError(t, json.Unmarshal(receipt.Payload, &read))
	assert.Equal(t, evt.ID, read.MessageID)
	assert.Equal(t, "bob", read.ReadBy)

	send(t, bob, chat.EventFriendsOnline, "f1", nil)
	ack = readFrame(t, bob, chat.EventAck)
	var friends chat.FriendsOnlineResult
	require.NoError(t, json.Unmarshal(ack.Payload, &friends))
	assert.Equal(t, []string{"alice"}, friends.OnlineFriends)

	require.NoError(t, alice.Close())
	offline := readFrame(t, bob, chat.EventUserStatus)
	var off chat.StatusEvent
	require.NoError(t, json.Unmarshal(offline.Payload, &off))
	assert.Equal(t, chat.StatusOffline, off.Status)
	assert.False(t, srv.hub.Presence().IsOnline("alice"))
}

func TestSessionReplacementKicksOldConnection(t *testing.T) {
	srv := newTestServer(t)

	first := srv.dial(t, "alice")
	srv.dial(t, "alice")

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, _, err := first.ReadMessage()
		if err == nil {
			continue
		}
		var closeErr *websocket.CloseError
		require.True(t, errors.As(err, &closeErr), "unexpected error: %v", err)
		assert.Equal(t, chat.CloseSessionReplaced, closeErr.Code)
		break
	}

	assert.True(t, srv.hub.Presence().IsOnline("alice"))
	assert.Equal(t, 1, srv.hub.Stats().OnlineUsers)
}

func TestHealthAndPresenceStats(t *testing.T) {
	srv := newTestServer(t)
	srv.dial(t, "alice")

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/metrics/presence")
	require.NoError(t, err)
	defer res.Body.Close()

	var body struct {
		Code int        `json:"code"`
		Data chat.Stats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, chat.Stats{OnlineUsers: 1, ActiveRooms: 0}, body.Data)
}
