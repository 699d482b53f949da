package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Ayan1Dutta/InterviewEasy/internal/docsync"
	"github.com/Ayan1Dutta/InterviewEasy/internal/errs"
	"github.com/Ayan1Dutta/InterviewEasy/internal/events"
	"github.com/Ayan1Dutta/InterviewEasy/internal/metrics"
	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
	"github.com/Ayan1Dutta/InterviewEasy/internal/repositories"
	"github.com/Ayan1Dutta/InterviewEasy/internal/rooms"
	"github.com/Ayan1Dutta/InterviewEasy/internal/session"
	"github.com/Ayan1Dutta/InterviewEasy/internal/signaling"
	"github.com/Ayan1Dutta/InterviewEasy/internal/utils"
)

const storeTimeout = 10 * time.Second

type Handlers struct {
	log      *zap.Logger
	hub      *session.Hub
	rooms    *rooms.Manager
	engine   *docsync.Engine
	relay    *signaling.Relay
	bus      *events.Bus // nil when Redis is not configured
	upgrader websocket.Upgrader
}

func NewHandlers(log *zap.Logger, store repositories.Store, bus *events.Bus) *Handlers {
	h := &Handlers{
		log:      log,
		hub:      session.NewHub(),
		rooms:    rooms.NewManager(store, log),
		engine:   docsync.NewEngine(store, log),
		relay:    signaling.NewRelay(log),
		bus:      bus,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
	if bus != nil {
		bus.Subscribe(h.onRemoteEvent)
	}
	return h
}

// onRemoteEvent tears down local runtime state for rooms ended on another
// instance, so stragglers here still get the ended notice.
func (h *Handlers) onRemoteEvent(ev events.Event) {
	if ev.Type != events.EventSessionEnded {
		return
	}
	room, ok := h.hub.Get(ev.RoomCode)
	if !ok {
		return
	}
	room.BroadcastAll(models.WSFrame{
		Type: models.FrameInterviewEnded,
		Data: models.EndedNotice{Message: "The interview has been ended by the host"},
	})
	room.Close()
	h.hub.Delete(ev.RoomCode)
	metrics.RoomClosed()
	h.log.Info("room ended remotely", zap.String("room", ev.RoomCode), zap.String("instance", ev.InstanceID))
}

func (h *Handlers) publish(eventType, roomCode, email string) {
	if h.bus == nil {
		return
	}
	if err := h.bus.Publish(eventType, roomCode, email); err != nil {
		h.log.Warn("lifecycle event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) Ready(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

/*** REST session CRUD ***/

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	email, ok := EmailFromContext(r.Context())
	if !ok {
		utils.JSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	room, err := h.rooms.CreateRoom(ctx, email)
	if err != nil {
		h.log.Error("create session failed", zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error"})
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"code":    room.Code,
		"message": "Interview session created successfully!",
	})
}

func (h *Handlers) JoinSession(w http.ResponseWriter, r *http.Request) {
	email, ok := EmailFromContext(r.Context())
	if !ok {
		utils.JSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}
	code := chi.URLParam(r, "roomCode")

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	info, _, err := h.rooms.Join(ctx, code, email)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		utils.JSON(w, http.StatusNotFound, errorResponse{Error: "Session not found"})
		return
	case errors.Is(err, errs.ErrCapacity):
		utils.JSON(w, http.StatusBadRequest, errorResponse{Error: "Session is already full"})
		return
	case err != nil:
		h.log.Error("join session failed", zap.String("room", code), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error"})
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"success": true, "session": info})
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	info, err := h.rooms.GetInfo(ctx, code)
	if errors.Is(err, errs.ErrNotFound) {
		utils.JSON(w, http.StatusNotFound, errorResponse{Error: "Session not found"})
		return
	}
	if err != nil {
		utils.JSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error"})
		return
	}
	utils.JSON(w, http.StatusOK, info)
}

func (h *Handlers) EndSession(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := h.rooms.Exists(ctx, code); errors.Is(err, errs.ErrNotFound) {
		utils.JSON(w, http.StatusNotFound, errorResponse{Error: "Session not found"})
		return
	}
	if err := h.endRoom(ctx, code); err != nil {
		h.log.Error("end session failed", zap.String("room", code), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error"})
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Session ended successfully"})
}

func (h *Handlers) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	var req models.NotesUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request payload"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	err := h.rooms.UpdateNotes(ctx, code, req.Content)
	if errors.Is(err, errs.ErrNotFound) {
		utils.JSON(w, http.StatusNotFound, errorResponse{Error: "Session not found"})
		return
	}
	if err != nil {
		utils.JSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error"})
		return
	}

	if room, ok := h.hub.Get(code); ok {
		room.BroadcastAll(models.WSFrame{Type: models.FrameNotesUpdate, Data: req})
	}
	utils.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) GetWebRTCConfig(w http.ResponseWriter, _ *http.Request) {
	config := signaling.GetWebRTCConfig()
	utils.JSON(w, http.StatusOK, signaling.ICEConfig{ICEServers: config.ICEServers})
}

// endRoom deletes the durable records, notifies every connected member and
// drops the runtime state. Shared by the REST endpoint and the end frame.
func (h *Handlers) endRoom(ctx context.Context, code string) error {
	if err := h.rooms.End(ctx, code); err != nil {
		return err
	}
	if room, ok := h.hub.Get(code); ok {
		room.BroadcastAll(models.WSFrame{
			Type: models.FrameInterviewEnded,
			Data: models.EndedNotice{Message: "The interview has been ended by the host"},
		})
		room.Close()
		h.hub.Delete(code)
		metrics.RoomClosed()
	}
	h.publish(events.EventSessionEnded, code, "")
	return nil
}
