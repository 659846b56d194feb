package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"realtime-threads/internal/models"
	"realtime-threads/internal/repository"
	"realtime-threads/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

func strPtr(s string) *string { return &s }

// fakeSubscriber records every frame it is sent.
type fakeSubscriber struct {
	id     string
	userID uint

	mu     sync.Mutex
	frames [][]byte
	err    error
}

func newFakeSubscriber(id string, userID uint) *fakeSubscriber {
	return &fakeSubscriber{id: id, userID: userID}
}

func (f *fakeSubscriber) ID() string   { return f.id }
func (f *fakeSubscriber) UserID() uint { return f.userID }

func (f *fakeSubscriber) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeSubscriber) events(t *testing.T) []Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Envelope, 0, len(f.frames))
	for _, raw := range f.frames {
		env, err := DecodeEnvelope(raw)
		require.NoError(t, err)
		out = append(out, env)
	}
	return out
}

func (f *fakeSubscriber) eventsNamed(t *testing.T, name EventName) []Envelope {
	t.Helper()
	var out []Envelope
	for _, env := range f.events(t) {
		if env.Event == name {
			out = append(out, env)
		}
	}
	return out
}

func decodeData[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

// memoryMessageStore is an in-memory MessageStore.
type memoryMessageStore struct {
	mu       sync.Mutex
	users    map[uint]models.User
	messages map[uint]*models.DirectMessage
	nextID   uint
	inserts  int

	insertErr error
}

func newMemoryMessageStore(users ...models.User) *memoryMessageStore {
	s := &memoryMessageStore{
		users:    make(map[uint]models.User),
		messages: make(map[uint]*models.DirectMessage),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memoryMessageStore) InsertMessage(_ context.Context, senderID, recipientID uint, body, imageURL *string) (*models.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.nextID++
	s.inserts++
	msg := &models.DirectMessage{
		ID:              s.nextID,
		SenderUserID:    senderID,
		RecipientUserID: recipientID,
		Body:            body,
		ImageURL:        imageURL,
		CreatedAt:       time.Now(),
	}
	s.messages[msg.ID] = msg
	return msg, nil
}

func (s *memoryMessageStore) GetMessageByID(_ context.Context, id uint) (*models.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	full := *msg
	full.Sender = s.users[msg.SenderUserID]
	full.Recipient = s.users[msg.RecipientUserID]
	return &full, nil
}

func (s *memoryMessageStore) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

// memoryNotificationStore is an in-memory NotificationStore.
type memoryNotificationStore struct {
	mu        sync.Mutex
	users     map[uint]models.User
	threads   map[uint]models.Thread
	rows      map[uint]*models.Notification
	nextID    uint
	inserts   int
	lookupErr error
}

func newMemoryNotificationStore(users ...models.User) *memoryNotificationStore {
	s := &memoryNotificationStore{
		users:   make(map[uint]models.User),
		threads: make(map[uint]models.Thread),
		rows:    make(map[uint]*models.Notification),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memoryNotificationStore) addThread(id, authorID uint, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[id] = models.Thread{ID: id, AuthorUserID: authorID, Title: title}
}

func (s *memoryNotificationStore) GetThreadAuthor(_ context.Context, threadID uint) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return 0, s.lookupErr
	}
	thread, ok := s.threads[threadID]
	if !ok {
		return 0, fmt.Errorf("thread %d: %w", threadID, repository.ErrNotFound)
	}
	return thread.AuthorUserID, nil
}

func (s *memoryNotificationStore) InsertNotification(_ context.Context, recipientID, threadID, actorID uint, kind models.NotificationType) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.inserts++
	n := &models.Notification{
		ID:          s.nextID,
		UserID:      recipientID,
		ThreadID:    threadID,
		ActorUserID: actorID,
		Type:        kind,
		CreatedAt:   time.Now(),
	}
	s.rows[n.ID] = n
	return n, nil
}

func (s *memoryNotificationStore) GetNotificationByID(_ context.Context, id uint) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	full := *n
	full.Actor = s.users[n.ActorUserID]
	full.Thread = s.threads[n.ThreadID]
	return &full, nil
}

func (s *memoryNotificationStore) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

// recordingActivity captures activity records.
type recordingActivity struct {
	mu            sync.Mutex
	messages      []models.DirectMessageResponse
	notifications []uint
}

func (r *recordingActivity) MessageCreated(_ context.Context, msg models.DirectMessageResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingActivity) NotificationCreated(_ context.Context, recipientUserID uint, _ models.NotificationResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, recipientUserID)
	return nil
}

// staticIdentity resolves a fixed set of credentials.
type staticIdentity struct {
	users map[string]uint
}

func (s staticIdentity) ResolveUser(_ context.Context, credential string) (*service.Identity, error) {
	id, ok := s.users[credential]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token", service.ErrInvalidCredential)
	}
	return &service.Identity{UserID: id, ExternalID: credential}, nil
}

var errStoreDown = errors.New("store unavailable")

func testUser(id uint, name string) models.User {
	return models.User{ID: id, ExternalID: fmt.Sprintf("idp|%d", id), DisplayName: strPtr(name)}
}
