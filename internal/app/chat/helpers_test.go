package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"playchat/internal/app/message"
	"playchat/internal/app/user"
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu        sync.Mutex
	relations map[[2]string]*user.Relationship
	messages  map[string]message.Message
	seq       int

	createErr error
	relErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		relations: make(map[[2]string]*user.Relationship),
		messages:  make(map[string]message.Message),
	}
}

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (s *fakeStore) befriend(a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relations[pairKey(a, b)] = &user.Relationship{UserID: a, FriendID: b, Confirmed: true}
}

func (s *fakeStore) request(a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relations[pairKey(a, b)] = &user.Relationship{UserID: a, FriendID: b}
}

func (s *fakeStore) block(a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.relations[pairKey(a, b)]; ok {
		r.Blocked = true
		return
	}
	s.relations[pairKey(a, b)] = &user.Relationship{UserID: a, FriendID: b, Blocked: true}
}

func (s *fakeStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *fakeStore) FindRelationship(_ context.Context, a, b string) (*user.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.relErr != nil {
		return nil, s.relErr
	}
	r, ok := s.relations[pairKey(a, b)]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) CreateMessage(_ context.Context, m message.NewMessage) (message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return message.Message{}, s.createErr
	}
	s.seq++
	msg := message.Message{
		ID:         fmt.Sprintf("msg-%d", s.seq),
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		Type:       m.Type,
		SentAt:     time.Now(),
	}
	s.messages[msg.ID] = msg
	return msg, nil
}

func (s *fakeStore) GetMessage(_ context.Context, id string) (message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return message.Message{}, message.ErrNotFound
	}
	return msg, nil
}

func (s *fakeStore) MarkMessageRead(_ context.Context, id string) (message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return message.Message{}, message.ErrNotFound
	}
	if !msg.IsRead {
		now := time.Now()
		msg.IsRead = true
		msg.ReadAt = &now
	}
	s.messages[id] = msg
	return msg, nil
}

func (s *fakeStore) ListConfirmedRelations(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.relErr != nil {
		return nil, s.relErr
	}
	var ids []string
	for k, r := range s.relations {
		if !r.AllowsChat() {
			continue
		}
		switch userID {
		case k[0]:
			ids = append(ids, k[1])
		case k[1]:
			ids = append(ids, k[0])
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// fakeObjects is an in-memory ObjectChecker.
type fakeObjects struct {
	keys map[string]bool
	err  error
}

func (o *fakeObjects) Exists(_ context.Context, key string) (bool, error) {
	if o.err != nil {
		return false, o.err
	}
	return o.keys[key], nil
}

// frame is a decoded outbound frame.
type frame struct {
	Type    string          `json:"type"`
	AckID   string          `json:"ackId"`
	Payload json.RawMessage `json:"payload"`
}

// uuidStore keys users by canonical uuid text, like the Postgres store.
type uuidStore struct {
	*fakeStore
}

func (uuidStore) NormalizeID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func newTestHub(t *testing.T, store Store, opts Options) *Hub {
	t.Helper()
	h := NewHub(store, opts)
	t.Cleanup(h.Shutdown)
	return h
}

func connect(h *Hub, id, nickname string) *Connection {
	return h.Connect(nil, user.User{ID: id, Nickname: nickname})
}

// drain returns every frame queued for c so far.
func drain(t *testing.T, c *Connection) []frame {
	t.Helper()
	var frames []frame
	for {
		select {
		case b := <-c.send:
			var f frame
			require.NoError(t, json.Unmarshal(b, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func ofType(frames []frame, typ string) []frame {
	var out []frame
	for _, f := range frames {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func decode[T any](t *testing.T, f frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Payload, &v))
	return v
}

func isDone(c *Connection) bool {
	select {
	case <-c.Done():
		return true
	default:
		return false
	}
}
