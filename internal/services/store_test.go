package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/gatherly/internal/models"
	"gorm.io/gorm"
)

// memStore is an in-memory implementation of every store interface.
type memStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*models.User
	messages     []*models.Message
	events       map[uuid.UUID]*models.Event
	participants []models.EventParticipant
	notices      []models.EventNotice
	failWrites   bool
	clock        time.Time
}

var errStoreDown = errors.New("store down")

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[uuid.UUID]*models.User),
		events: make(map[uuid.UUID]*models.Event),
		clock:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) addUser(name string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &models.User{ID: uuid.New(), Name: name, Email: name + "@example.com"}
	s.users[u.ID] = u
	return u
}

func (s *memStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return errStoreDown
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// UpdateUser enforces email uniqueness like the users table does.
func (s *memStore) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return errStoreDown
	}
	if _, ok := s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, u := range s.users {
		if u.ID != user.ID && u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memStore) UpdateLastSeen(ctx context.Context, id uuid.UUID) error {
	return nil
}

// SaveMessage stamps each message one millisecond after the previous one.
func (s *memStore) SaveMessage(ctx context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return errStoreDown
	}
	s.clock = s.clock.Add(time.Millisecond)
	message.ID = uuid.New()
	message.CreatedAt = s.clock
	cp := *message
	s.messages = append(s.messages, &cp)
	return nil
}

func (s *memStore) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) MarkMessageRead(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return nil, errStoreDown
	}
	for _, m := range s.messages {
		if m.ID == id {
			m.IsRead = true
			cp := *m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) GetConversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Message
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) GetChatList(ctx context.Context, userID uuid.UUID) ([]models.ChatSummary, error) {
	return nil, nil
}

func (s *memStore) CreateEvent(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return errStoreDown
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	cp := *event
	s.events[event.ID] = &cp
	return nil
}

func (s *memStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lockedEvent(id)
}

func (s *memStore) ListEvents(ctx context.Context, from time.Time) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Event
	for _, e := range s.events {
		if !e.Date.Before(from) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *memStore) GetParticipantEvents(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Event
	for _, p := range s.participants {
		if p.UserID == userID {
			if e, ok := s.events[p.EventID]; ok {
				out = append(out, *e)
			}
		}
	}
	return out, nil
}

// lockedEvent returns a copy of the event with its participants. The caller
// holds s.mu for the whole guarded mutation.
func (s *memStore) lockedEvent(id uuid.UUID) (*models.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	cp.Participants = nil
	for _, p := range s.participants {
		if p.EventID == id {
			cp.Participants = append(cp.Participants, p)
		}
	}
	return &cp, nil
}

func (s *memStore) JoinEvent(ctx context.Context, participant *models.EventParticipant, admit func(*models.Event) error) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.lockedEvent(participant.EventID)
	if err != nil {
		return nil, err
	}
	if err := admit(event); err != nil {
		return nil, err
	}
	if s.failWrites {
		return nil, errStoreDown
	}
	for _, p := range event.Participants {
		if p.UserID == participant.UserID {
			return nil, gorm.ErrDuplicatedKey
		}
	}

	s.participants = append(s.participants, *participant)
	event.Participants = append(event.Participants, *participant)
	return event, nil
}

func (s *memStore) UpdateEvent(ctx context.Context, id uuid.UUID, mutate func(*models.Event) error) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.lockedEvent(id)
	if err != nil {
		return nil, err
	}
	if err := mutate(event); err != nil {
		return nil, err
	}
	if s.failWrites {
		return nil, errStoreDown
	}

	stored := *event
	stored.Participants = nil
	s.events[id] = &stored
	return event, nil
}

func (s *memStore) DeleteEvent(ctx context.Context, id uuid.UUID, authorize func(*models.Event) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.lockedEvent(id)
	if err != nil {
		return err
	}
	if err := authorize(event); err != nil {
		return err
	}
	if s.failWrites {
		return errStoreDown
	}

	delete(s.events, id)
	kept := s.participants[:0]
	for _, p := range s.participants {
		if p.EventID != id {
			kept = append(kept, p)
		}
	}
	s.participants = kept
	return nil
}

func (s *memStore) RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.participants[:0]
	for _, p := range s.participants {
		if p.EventID != eventID || p.UserID != userID {
			kept = append(kept, p)
		}
	}
	s.participants = kept
	return nil
}

func (s *memStore) SaveNotice(ctx context.Context, notice *models.EventNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return errStoreDown
	}
	if notice.ID == uuid.Nil {
		notice.ID = uuid.New()
	}
	s.notices = append(s.notices, *notice)
	return nil
}

func (s *memStore) ListNoticesSince(ctx context.Context, since time.Time) ([]models.EventNotice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.EventNotice
	for _, n := range s.notices {
		if !n.Timestamp.Before(since) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}
