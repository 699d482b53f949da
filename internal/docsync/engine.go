package docsync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Ayan1Dutta/InterviewEasy/internal/errs"
	"github.com/Ayan1Dutta/InterviewEasy/internal/metrics"
	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
	"github.com/Ayan1Dutta/InterviewEasy/internal/repositories"
	"github.com/Ayan1Dutta/InterviewEasy/internal/session"
)

const persistTimeout = 10 * time.Second

// Engine reconciles per-language code buffers. Deltas are relayed without a
// server-side text model; full snapshots are the authoritative merge point,
// gated on a strictly increasing per-language version counter.
type Engine struct {
	store repositories.Store
	log   *zap.Logger

	// mu serializes document read-modify-writes: a slow snapshot persist must
	// not land after (and clobber) a newer one, and concurrent writes to
	// different language buffers must not drop each other.
	mu sync.Mutex
}

func NewEngine(store repositories.Store, log *zap.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// ApplyDelta forwards one incremental edit to the sender's peers. Edits tagged
// with a language other than the room's active one are dropped, not queued:
// only the live buffer is meaningful to forward.
func (e *Engine) ApplyDelta(room *session.Room, sender *session.Client, d models.Delta) {
	if !models.IsSupportedLanguage(d.Language) || !d.Change.Valid() {
		return
	}
	if room.ActiveLanguage() != d.Language {
		return
	}
	room.Broadcast(sender, models.WSFrame{Type: models.FrameDelta, Data: d})
	metrics.FrameRelayed(models.FrameDelta)
}

// ApplyDeltaBatch forwards a logically-grouped edit list as one message so
// receivers apply it atomically, in order.
func (e *Engine) ApplyDeltaBatch(room *session.Room, sender *session.Client, b models.DeltaBatch) {
	if !models.IsSupportedLanguage(b.Language) || len(b.Changes) == 0 {
		return
	}
	for _, c := range b.Changes {
		if !c.Valid() {
			return
		}
	}
	if room.ActiveLanguage() != b.Language {
		return
	}
	room.Broadcast(sender, models.WSFrame{Type: models.FrameDeltaBatch, Data: b})
	metrics.FrameRelayed(models.FrameDeltaBatch)
}

// SubmitFullSnapshot applies the drift-correction path: accept the snapshot
// only if its version strictly exceeds the tracked one, broadcast the full
// content, then persist it off the dispatch path. Persistence failures are
// reported to the sender only; peers already got the broadcast.
func (e *Engine) SubmitFullSnapshot(room *session.Room, sender *session.Client, snap models.FullSnapshot) {
	if !models.IsSupportedLanguage(snap.Language) || snap.Content == nil {
		return
	}
	if !room.AdvanceVersion(snap.Language, snap.Version) {
		metrics.SnapshotRejected()
		return
	}

	room.Broadcast(sender, models.WSFrame{Type: models.FrameFullSnapshot, Data: snap})
	metrics.FrameRelayed(models.FrameFullSnapshot)

	content := *snap.Content
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		e.mu.Lock()
		defer e.mu.Unlock()
		// A newer snapshot may have been accepted while this one waited for
		// the lock; its persist supersedes this one.
		if room.Version(snap.Language) != snap.Version {
			return
		}
		if err := e.writeContentLocked(ctx, room.Code, snap.Language, content); err != nil {
			e.log.Warn("snapshot persist failed",
				zap.String("room", room.Code),
				zap.String("language", string(snap.Language)),
				zap.Error(err))
			sender.SendError("Failed to save code.")
		}
	}()
}

// Persist is the debounce-driven durability write. It never touches version
// counters and triggers no broadcast.
func (e *Engine) Persist(ctx context.Context, roomCode string, req models.PersistRequest) error {
	if !models.IsSupportedLanguage(req.Language) || req.Content == nil {
		return errs.ErrValidation
	}
	return e.writeContent(ctx, roomCode, req.Language, *req.Content)
}

// PersistAll writes a full per-language map, skipping unsupported keys.
func (e *Engine) PersistAll(ctx context.Context, roomCode string, req models.PersistAllRequest) error {
	if len(req.Codes) == 0 {
		return errs.ErrValidation
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.loadDocument(ctx, roomCode)
	if err != nil {
		return err
	}
	for lang, content := range req.Codes {
		if models.IsSupportedLanguage(lang) {
			doc.Code[lang] = content
		}
	}
	return e.store.SaveDocument(ctx, doc)
}

func (e *Engine) writeContent(ctx context.Context, roomCode string, lang models.Language, content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeContentLocked(ctx, roomCode, lang, content)
}

func (e *Engine) writeContentLocked(ctx context.Context, roomCode string, lang models.Language, content string) error {
	doc, err := e.loadDocument(ctx, roomCode)
	if err != nil {
		return err
	}
	doc.Code[lang] = content
	return e.store.SaveDocument(ctx, doc)
}

// loadDocument never creates a missing document: an active room always has
// one (seeded on create, repaired on join), so an absent record means the
// room ended and a write would resurrect it.
func (e *Engine) loadDocument(ctx context.Context, roomCode string) (*models.CodeDocument, error) {
	doc, err := e.store.FindDocumentByRoom(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if doc.Code == nil {
		doc.Code = make(map[models.Language]string)
	}
	return doc, nil
}
