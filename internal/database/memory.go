package database

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/birbparty/birb-academy/sdk"
)

// MemoryStore is a Store kept in process memory. Returned records are copies.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[int64]*UserRecord
	enrollments   map[int64]*sdk.Enrollment
	conversations map[int64]*sdk.Conversation
	subscriptions map[int64]*sdk.Subscription
	nextID        map[string]int64
	now           func() time.Time
}

// NewMemoryStore creates a store holding the seed. Every seeded account gets
// passwordHash; seed may be nil for an empty store.
func NewMemoryStore(seed *Seed, passwordHash string) *MemoryStore {
	s := &MemoryStore{
		users:         make(map[int64]*UserRecord),
		enrollments:   make(map[int64]*sdk.Enrollment),
		conversations: make(map[int64]*sdk.Conversation),
		subscriptions: make(map[int64]*sdk.Subscription),
		nextID:        map[string]int64{"users": 1, "enrollments": 1, "conversations": 1, "messages": 1, "subscriptions": 1},
		now:           func() time.Time { return time.Now().UTC() },
	}
	if seed == nil {
		return s
	}

	for _, u := range seed.Users {
		s.users[u.ID] = &UserRecord{User: u, PasswordHash: passwordHash, CreatedAt: s.now()}
		s.bump("users", u.ID)
	}
	for _, e := range seed.Enrollments {
		s.enrollments[e.ID] = copyEnrollment(&e)
		s.bump("enrollments", e.ID)
	}
	for _, c := range seed.Conversations {
		s.conversations[c.ID] = copyConversation(&c)
		s.bump("conversations", c.ID)
		for _, m := range c.Messages {
			s.bump("messages", m.ID)
		}
	}
	for _, sub := range seed.Subscriptions {
		cp := sub
		s.subscriptions[sub.ID] = &cp
		s.bump("subscriptions", sub.ID)
	}
	return s
}

func (s *MemoryStore) bump(table string, id int64) {
	if id >= s.nextID[table] {
		s.nextID[table] = id + 1
	}
}

func (s *MemoryStore) allocate(table string) int64 {
	id := s.nextID[table]
	s.nextID[table] = id + 1
	return id
}

func (s *MemoryStore) UserByUsername(_ context.Context, username string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UserByID(_ context.Context, id int64) (*sdk.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u.User
	return &cp, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, rec *UserRecord) (*sdk.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, rec.Username) || strings.EqualFold(u.Email, rec.Email) {
			return nil, ErrConflict
		}
	}

	stored := *rec
	stored.ID = s.allocate("users")
	stored.CreatedAt = s.now()
	s.users[stored.ID] = &stored
	cp := stored.User
	return &cp, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, id int64, upd sdk.ProfileUpdate) (*sdk.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Email != nil {
		for otherID, other := range s.users {
			if otherID != id && strings.EqualFold(other.Email, *upd.Email) {
				return nil, ErrConflict
			}
		}
	}
	applyProfile(&u.User, upd)
	cp := u.User
	return &cp, nil
}

func (s *MemoryStore) ListEnrollments(_ context.Context, userID int64) ([]sdk.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []sdk.Enrollment{}
	for _, e := range s.enrollments {
		if e.UserID == userID {
			out = append(out, *copyEnrollment(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetEnrollment(_ context.Context, id int64) (*sdk.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enrollments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEnrollment(e), nil
}

func (s *MemoryStore) CreateEnrollment(_ context.Context, userID, courseID int64) (*sdk.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return nil, ErrConflict
		}
	}

	now := s.now()
	e := &sdk.Enrollment{
		ID:               s.allocate("enrollments"),
		UserID:           userID,
		CourseID:         courseID,
		CompletedLessons: []string{},
		EnrolledAt:       now,
		LastAccessedAt:   now,
	}
	s.enrollments[e.ID] = e
	return copyEnrollment(e), nil
}

func (s *MemoryStore) UpdateProgress(_ context.Context, id int64, upd sdk.ProgressUpdate) (*sdk.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[id]
	if !ok {
		return nil, ErrNotFound
	}
	applyProgress(e, upd, s.now())
	return copyEnrollment(e), nil
}

func (s *MemoryStore) ListConversations(_ context.Context, userID int64) ([]sdk.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []sdk.Conversation{}
	for _, c := range s.conversations {
		if c.UserID == userID {
			out = append(out, *copyConversation(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetConversation(_ context.Context, id int64) (*sdk.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyConversation(c), nil
}

func (s *MemoryStore) CreateConversation(_ context.Context, conv *sdk.Conversation, first string) (*sdk.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := copyConversation(conv)
	c.ID = s.allocate("conversations")
	if c.Status == "" {
		c.Status = ConversationOpen
	}
	c.CreatedAt, c.UpdatedAt = now, now
	c.Messages = []sdk.Message{{
		ID:             s.allocate("messages"),
		ConversationID: c.ID,
		SenderID:       c.UserID,
		SenderType:     SenderStudent,
		Content:        first,
		CreatedAt:      now,
	}}
	s.conversations[c.ID] = c
	return copyConversation(c), nil
}

func (s *MemoryStore) AddMessage(_ context.Context, msg *sdk.Message) (*sdk.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[msg.ConversationID]
	if !ok {
		return nil, ErrNotFound
	}

	m := *msg
	m.ID = s.allocate("messages")
	m.CreatedAt = s.now()
	c.Messages = append(c.Messages, m)
	c.UpdatedAt = m.CreatedAt
	return &m, nil
}

func (s *MemoryStore) SubscriptionForUser(_ context.Context, userID int64) (*sdk.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *sdk.Subscription
	for _, sub := range s.subscriptions {
		if sub.UserID == userID && (latest == nil || sub.ID > latest.ID) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryStore) GetSubscription(_ context.Context, id int64) (*sdk.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *MemoryStore) CreateSubscription(_ context.Context, sub *sdk.Subscription) (*sdk.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *sub
	stored.ID = s.allocate("subscriptions")
	stored.CreatedAt = s.now()
	stored.ClientSecret = ""
	s.subscriptions[stored.ID] = &stored
	cp := stored
	return &cp, nil
}

func (s *MemoryStore) SetSubscriptionStatus(_ context.Context, id int64, status string) (*sdk.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	sub.Status = status
	cp := *sub
	return &cp, nil
}

func (s *MemoryStore) Health(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() {}

func copyEnrollment(e *sdk.Enrollment) *sdk.Enrollment {
	cp := *e
	cp.CompletedLessons = slices.Clone(e.CompletedLessons)
	if cp.CompletedLessons == nil {
		cp.CompletedLessons = []string{}
	}
	return &cp
}

func copyConversation(c *sdk.Conversation) *sdk.Conversation {
	cp := *c
	cp.Messages = slices.Clone(c.Messages)
	return &cp
}
