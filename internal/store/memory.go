package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"appointment-scheduler/internal/model"
)

// Memory keeps everything in process. It backs the memory store driver for
// local runs and the tests of packages above the store.
type Memory struct {
	mu           sync.Mutex
	now          func() time.Time
	appointments map[string]model.Appointment
	users        map[string]model.User
	tokens       map[string]RefreshToken
}

func NewMemory() *Memory {
	return &Memory{
		now:          time.Now,
		appointments: make(map[string]model.Appointment),
		users:        make(map[string]model.User),
		tokens:       make(map[string]RefreshToken),
	}
}

func (m *Memory) AddAppointment(_ context.Context, ownerID string, f model.Fields) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	a := model.Appointment{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Fields:    f,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.appointments[a.ID] = a
	return a, nil
}

func (m *Memory) UpdateAppointment(_ context.Context, id, ownerID string, f model.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok || a.OwnerID != ownerID {
		return ErrNotFound
	}
	a.Fields = f
	a.UpdatedAt = m.now()
	m.appointments[id] = a
	return nil
}

func (m *Memory) DeleteAppointment(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok || a.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *Memory) QueryAppointments(_ context.Context, ownerID string) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Appointment, 0)
	for _, a := range m.appointments {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) GetAppointment(_ context.Context, id, ownerID string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok || a.OwnerID != ownerID {
		return model.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) SetExternalEventID(_ context.Context, id, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok {
		return ErrNotFound
	}
	a.ExternalEventID = externalID
	m.appointments[id] = a
	return nil
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	now := m.now()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) CreateRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertToken(userID, tokenHash, expiresAt), nil
}

func (m *Memory) insertToken(userID, tokenHash string, expiresAt time.Time) string {
	id := uuid.New().String()
	m.tokens[id] = RefreshToken{
		ID:        id,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: m.now(),
	}
	return id
}

func (m *Memory) GetRefreshTokenByHash(_ context.Context, tokenHash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rt := range m.tokens {
		if rt.TokenHash == tokenHash {
			return &rt, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) RotateRefreshToken(_ context.Context, oldID, userID, newHash string, newExpiry time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.tokens[oldID]
	if !ok || old.Revoked {
		return "", ErrNotFound
	}
	newID := m.insertToken(userID, newHash, newExpiry)
	old.Revoked = true
	old.ReplacedBy = &newID
	m.tokens[oldID] = old
	return newID, nil
}

func (m *Memory) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, rt := range m.tokens {
		if rt.UserID == userID && !rt.Revoked {
			rt.Revoked = true
			m.tokens[id] = rt
		}
	}
	return nil
}
