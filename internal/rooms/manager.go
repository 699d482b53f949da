package rooms

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ayan1Dutta/InterviewEasy/internal/errs"
	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
	"github.com/Ayan1Dutta/InterviewEasy/internal/repositories"
)

// MaxParticipants bounds a room to an interviewer and one candidate.
const MaxParticipants = 2

const createAttempts = 3

// Manager owns room membership: creation, capacity-gated joins, explicit end
// and the read-only info projection. Broadcast side effects belong to the
// WebSocket dispatcher; the manager only mutates durable state.
type Manager struct {
	store repositories.Store
	log   *zap.Logger
}

func NewManager(store repositories.Store, log *zap.Logger) *Manager {
	return &Manager{store: store, log: log}
}

// CreateRoom persists a new session for host and seeds its CodeDocument with
// per-language boilerplate. Code collisions are retried with a fresh code.
func (m *Manager) CreateRoom(ctx context.Context, host string) (*models.Session, error) {
	var lastErr error
	for i := 0; i < createAttempts; i++ {
		room := &models.Session{
			Code:         newRoomCode(),
			Host:         host,
			Participants: []string{host},
			Status:       models.StatusActive,
			CreatedAt:    time.Now().UTC(),
		}
		if err := m.store.CreateRoom(ctx, room); err != nil {
			if errors.Is(err, errs.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}

		doc := &models.CodeDocument{
			RoomCode:    room.Code,
			Code:        make(map[models.Language]string, len(models.SupportedLanguages)),
			LastUpdated: time.Now().UTC(),
		}
		for _, lang := range models.SupportedLanguages {
			doc.Code[lang] = models.Boilerplates[lang]
		}
		if err := m.store.SaveDocument(ctx, doc); err != nil {
			return nil, err
		}

		m.log.Info("room created", zap.String("room", room.Code), zap.String("host", host))
		return room, nil
	}
	return nil, lastErr
}

// Join admits email into the room. An already-listed participant is re-admitted
// without mutation (rejoined=true); a third distinct identity is rejected with
// ErrCapacity.
func (m *Manager) Join(ctx context.Context, code, email string) (info *models.RoomInfo, rejoined bool, err error) {
	room, err := m.store.FindRoomByCode(ctx, code)
	if err != nil {
		return nil, false, err
	}

	if room.HasParticipant(email) {
		rejoined = true
	} else {
		if len(room.Participants) >= MaxParticipants {
			return nil, false, errs.ErrCapacity
		}
		room.Participants = append(room.Participants, email)
		if err := m.store.SaveRoom(ctx, room); err != nil {
			return nil, false, err
		}
	}

	doc, err := m.EnsureDocument(ctx, code)
	if err != nil {
		return nil, false, err
	}

	return &models.RoomInfo{
		Host:         room.Host,
		Participants: room.Participants,
		Code:         doc.Code,
		Notes:        room.Notes,
	}, rejoined, nil
}

// End deletes the room and its CodeDocument. Ending an absent room is not an
// error here; the REST layer decides whether to report not-found.
func (m *Manager) End(ctx context.Context, code string) error {
	if err := m.store.DeleteRoom(ctx, code); err != nil {
		return err
	}
	if err := m.store.DeleteDocument(ctx, code); err != nil {
		return err
	}
	m.log.Info("room ended", zap.String("room", code))
	return nil
}

// Exists checks the durable record without the document repair GetInfo does.
func (m *Manager) Exists(ctx context.Context, code string) error {
	_, err := m.store.FindRoomByCode(ctx, code)
	return err
}

// GetInfo returns the projection used by late joiners and the UI.
func (m *Manager) GetInfo(ctx context.Context, code string) (*models.RoomInfo, error) {
	room, err := m.store.FindRoomByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	doc, err := m.EnsureDocument(ctx, code)
	if err != nil {
		return nil, err
	}
	return &models.RoomInfo{
		Host:         room.Host,
		Participants: room.Participants,
		Code:         doc.Code,
		Notes:        room.Notes,
	}, nil
}

// UpdateNotes persists the shared notes pane. Plain read-modify-write; the
// accepted race is last-writer-wins between two participants.
func (m *Manager) UpdateNotes(ctx context.Context, code, notes string) error {
	room, err := m.store.FindRoomByCode(ctx, code)
	if err != nil {
		return err
	}
	room.Notes = notes
	return m.store.SaveRoom(ctx, room)
}

// EnsureDocument loads the room's CodeDocument, creating it if missing and
// replacing any blank or absent language buffer with its boilerplate. This is
// a repair step, not just a read: repairs are persisted before returning.
func (m *Manager) EnsureDocument(ctx context.Context, code string) (*models.CodeDocument, error) {
	doc, err := m.store.FindDocumentByRoom(ctx, code)
	if errors.Is(err, errs.ErrNotFound) {
		doc = &models.CodeDocument{RoomCode: code, Code: make(map[models.Language]string)}
	} else if err != nil {
		return nil, err
	}
	if doc.Code == nil {
		doc.Code = make(map[models.Language]string)
	}

	mutated := false
	for _, lang := range models.SupportedLanguages {
		if strings.TrimSpace(doc.Code[lang]) == "" {
			doc.Code[lang] = models.Boilerplates[lang]
			mutated = true
		}
	}
	if mutated {
		if err := m.store.SaveDocument(ctx, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func newRoomCode() string {
	return uuid.New().String()[:8]
}
