package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/Ayan1Dutta/InterviewEasy/internal/errs"
	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
)

// MemoryStore keeps rooms and documents in process memory. It backs tests and
// local development when no MONGO_URI is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]models.Session
	docs  map[string]models.CodeDocument
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]models.Session),
		docs:  make(map[string]models.CodeDocument),
	}
}

func (m *MemoryStore) CreateRoom(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[s.Code]; exists {
		return errs.ErrConflict
	}
	m.rooms[s.Code] = cloneSession(s)
	return nil
}

func (m *MemoryStore) FindRoomByCode(_ context.Context, code string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.rooms[code]
	if !ok {
		return nil, errs.ErrNotFound
	}
	out := cloneSession(&s)
	return &out, nil
}

func (m *MemoryStore) SaveRoom(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[s.Code] = cloneSession(s)
	return nil
}

func (m *MemoryStore) DeleteRoom(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, code)
	return nil
}

func (m *MemoryStore) FindDocumentByRoom(_ context.Context, code string) (*models.CodeDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[code]
	if !ok {
		return nil, errs.ErrNotFound
	}
	out := cloneDocument(&d)
	return &out, nil
}

func (m *MemoryStore) SaveDocument(_ context.Context, d *models.CodeDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.LastUpdated.IsZero() {
		d.LastUpdated = time.Now().UTC()
	}
	m.docs[d.RoomCode] = cloneDocument(d)
	return nil
}

func (m *MemoryStore) DeleteDocument(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, code)
	return nil
}

func cloneSession(s *models.Session) models.Session {
	out := *s
	out.Participants = append([]string(nil), s.Participants...)
	return out
}

func cloneDocument(d *models.CodeDocument) models.CodeDocument {
	out := *d
	out.Code = make(map[models.Language]string, len(d.Code))
	for k, v := range d.Code {
		out.Code[k] = v
	}
	return out
}
