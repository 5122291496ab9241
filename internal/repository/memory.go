package repository

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/direct-message-service/internal/model"
	"github.com/iliyamo/direct-message-service/internal/utils"
)

// MemoryUserStore keeps credentials in a mutex-guarded map. It backs the
// in-memory deployment variant and doubles as the fixture for handler
// tests. Semantics match the MySQL store, including bcrypt hashing on
// Create.
type MemoryUserStore struct {
	mu     sync.RWMutex
	nextID uint64
	users  map[string]model.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]model.User)}
}

var _ UserStore = (*MemoryUserStore)(nil)

func (s *MemoryUserStore) Create(ctx context.Context, username, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return 0, ErrUsernameExists
	}
	s.nextID++
	s.users[username] = model.User{
		ID:           s.nextID,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	return s.nextID, nil
}

func (s *MemoryUserStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryUserStore) Exists(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[username]
	return ok, nil
}

func (s *MemoryUserStore) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return ErrNotFound
	}
	delete(s.users, username)
	return nil
}

// MemoryMessageStore keeps messages in an ordered slice guarded by a mutex.
// IDs come from a store-instance-wide counter starting at 1; the counter
// only moves forward, so deleting a message never frees its ID for reuse.
type MemoryMessageStore struct {
	mu       sync.RWMutex
	nextID   uint64
	messages []model.Message
	users    UserExister
}

func NewMemoryMessageStore(users UserExister) *MemoryMessageStore {
	return &MemoryMessageStore{users: users}
}

var _ MessageStore = (*MemoryMessageStore)(nil)

func (s *MemoryMessageStore) Append(ctx context.Context, sender, recipient, text string) (model.Message, error) {
	ok, err := s.users.Exists(ctx, recipient)
	if err != nil {
		return model.Message{}, err
	}
	if !ok {
		return model.Message{}, ErrUnknownRecipient
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m := model.Message{
		ID:        strconv.FormatUint(s.nextID, 10),
		Sender:    sender,
		Recipient: recipient,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	s.messages = append(s.messages, m)
	return m, nil
}

func (s *MemoryMessageStore) ListForRecipient(ctx context.Context, username string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Message{}
	for _, m := range s.messages {
		if m.Recipient == username {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryMessageStore) Get(ctx context.Context, id string) (model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Message{}, ErrNotFound
}

func (s *MemoryMessageStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
