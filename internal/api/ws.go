package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Ayan1Dutta/InterviewEasy/internal/docsync"
	"github.com/Ayan1Dutta/InterviewEasy/internal/errs"
	"github.com/Ayan1Dutta/InterviewEasy/internal/events"
	"github.com/Ayan1Dutta/InterviewEasy/internal/metrics"
	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
	"github.com/Ayan1Dutta/InterviewEasy/internal/session"
)

// RoomWS is the one persistent connection per participant. The first frame
// must be a join for the room named in the URL; every later frame is scoped to
// that room until the connection closes or the interview ends.
func (h *Handlers) RoomWS(w http.ResponseWriter, r *http.Request) {
	roomCode := chi.URLParam(r, "roomCode")
	email, ok := EmailFromContext(r.Context())
	if !ok || roomCode == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	client := session.NewClient(conn)
	metrics.ClientUp()
	defer metrics.ClientDown()

	var first models.WSFrame
	if err := conn.ReadJSON(&first); err != nil || first.Type != models.FrameJoin {
		client.SendError("expected join")
		return
	}

	room, ok := h.joinRoom(client, roomCode, email)
	if !ok {
		return
	}

	gone := false
	defer func() {
		if !gone {
			h.leaveRoom(room, client, "disconnect")
		}
	}()

	for {
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		if done := h.handleFrame(room, client, frame); done {
			gone = true
			return
		}
	}
}

// joinRoom runs the membership checks, materializes runtime state and sends
// the init bundle. Errors go back as soft error frames on the new connection.
func (h *Handlers) joinRoom(client *session.Client, roomCode, email string) (*session.Room, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	info, rejoined, err := h.rooms.Join(ctx, roomCode, email)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		client.SendError("Session not found")
		return nil, false
	case errors.Is(err, errs.ErrCapacity):
		client.SendError("Session is already full")
		return nil, false
	case err != nil:
		h.log.Warn("join failed", zap.String("room", roomCode), zap.Error(err))
		client.SendError("Failed to load session data.")
		return nil, false
	}

	room, created := h.hub.GetOrCreate(roomCode)
	if created {
		metrics.RoomOpened()
	}
	client.Attach(roomCode, email)
	room.Join(client)

	client.Send(models.WSFrame{Type: models.FrameInit, Data: models.InitResponse{
		RoomCode:       roomCode,
		Code:           info.Code,
		ActiveLanguage: room.ActiveLanguage(),
		Participants:   info.Participants,
		Host:           info.Host,
		Notes:          info.Notes,
	}})

	joined := models.WSFrame{Type: models.FrameUserJoined, Data: models.UserEvent{Email: email}}
	if rejoined {
		room.Broadcast(client, joined)
	} else {
		room.BroadcastAll(joined)
	}
	h.publish(events.EventUserJoined, roomCode, email)
	h.log.Info("user joined room", zap.String("room", roomCode), zap.String("user", email))
	return room, true
}

// leaveRoom notifies the remaining member and discards runtime state once the
// room is empty. A transport-level close takes the same path as an explicit
// leave; presence attribution makes them indistinguishable downstream.
func (h *Handlers) leaveRoom(room *session.Room, client *session.Client, cause string) {
	roomCode, email, ok := client.Presence()
	if !ok {
		return
	}
	// An ended room already evicted everyone and released its runtime state.
	if room.Closed() {
		client.Attach("", "")
		return
	}
	room.Broadcast(client, models.WSFrame{Type: models.FrameUserLeft, Data: models.UserEvent{Email: email}})
	if left := room.Leave(client); left == 0 {
		h.hub.Delete(roomCode)
		metrics.RoomClosed()
	}
	client.Attach("", "")
	h.publish(events.EventUserLeft, roomCode, email)
	h.log.Info("user left room",
		zap.String("room", roomCode),
		zap.String("user", email),
		zap.String("cause", cause))
}

// handleFrame dispatches one inbound frame. It returns true when the
// connection's room session is over and the read loop should stop.
func (h *Handlers) handleFrame(room *session.Room, client *session.Client, frame models.WSFrame) bool {
	// The interview may have ended since this frame was sent. The peer already
	// received interview-ended; stop servicing room-scoped frames.
	if room.Closed() {
		client.Attach("", "")
		return true
	}

	_, email, _ := client.Presence()

	switch frame.Type {
	case models.FrameDelta:
		var d models.Delta
		if err := models.Decode(frame.Data, &d); err != nil {
			return false
		}
		h.engine.ApplyDelta(room, client, d)

	case models.FrameDeltaBatch:
		var b models.DeltaBatch
		if err := models.Decode(frame.Data, &b); err != nil {
			return false
		}
		h.engine.ApplyDeltaBatch(room, client, b)

	case models.FrameFullSnapshot:
		var snap models.FullSnapshot
		if err := models.Decode(frame.Data, &snap); err != nil {
			return false
		}
		h.engine.SubmitFullSnapshot(room, client, snap)

	case models.FramePersist:
		var req models.PersistRequest
		if err := models.Decode(frame.Data, &req); err != nil {
			return false
		}
		h.persist(room.Code, client, func(ctx context.Context) error {
			return h.engine.Persist(ctx, room.Code, req)
		})

	case models.FramePersistAll:
		var req models.PersistAllRequest
		if err := models.Decode(frame.Data, &req); err != nil {
			return false
		}
		h.persist(room.Code, client, func(ctx context.Context) error {
			return h.engine.PersistAll(ctx, room.Code, req)
		})

	case models.FrameLanguageChange:
		var lc models.LanguageChange
		if err := models.Decode(frame.Data, &lc); err != nil {
			return false
		}
		docsync.SetLanguage(room, client, lc)

	case models.FrameReady:
		h.relay.Ready(room, client, models.UserEvent{Email: email})

	case models.FrameOffer, models.FrameAnswer, models.FrameIceCandidate:
		h.relay.Forward(room, client, frame.Type, frame.Data)

	case models.FrameNotesUpdate:
		var n models.NotesUpdate
		if err := models.Decode(frame.Data, &n); err != nil {
			return false
		}
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := h.rooms.UpdateNotes(ctx, room.Code, n.Content); err != nil {
			client.SendError("Failed to save notes.")
			return false
		}
		room.Broadcast(client, models.WSFrame{Type: models.FrameNotesUpdate, Data: n})
		metrics.FrameRelayed(models.FrameNotesUpdate)

	case models.FrameCodeOutput, models.FrameUserRefreshed:
		room.Broadcast(client, models.WSFrame{Type: frame.Type, Data: frame.Data})
		metrics.FrameRelayed(frame.Type)

	case models.FrameFullscreenChange:
		var fc models.FullscreenChange
		if err := models.Decode(frame.Data, &fc); err != nil {
			return false
		}
		room.Broadcast(client, models.WSFrame{Type: models.FrameFullscreenWarning, Data: fc})
		metrics.FrameRelayed(models.FrameFullscreenWarning)

	case models.FrameSyncStartTime:
		var st models.StartTimeSync
		if err := models.Decode(frame.Data, &st); err != nil {
			return false
		}
		// The shared timer must agree for both sides, sender included.
		room.BroadcastAll(models.WSFrame{Type: models.FrameSyncStartTime, Data: st})
		metrics.FrameRelayed(models.FrameSyncStartTime)

	case models.FrameLeave:
		h.leaveRoom(room, client, "leave")
		return true

	case models.FrameEnd:
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := h.endRoom(ctx, room.Code); err != nil {
			client.SendError("Failed to end session.")
			return false
		}
		client.Attach("", "")
		return true

	default:
		client.SendError("unknown_type")
	}
	return false
}

// persist runs a durability write and reports failure to the originator only.
// Malformed payloads were already dropped by the engine's validation.
func (h *Handlers) persist(roomCode string, client *session.Client, write func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := write(ctx); err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return
		}
		h.log.Warn("persist failed", zap.String("room", roomCode), zap.Error(err))
		client.SendError("Failed to save code.")
	}
}
