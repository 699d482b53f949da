package signaling

import (
	"go.uber.org/zap"

	"github.com/Ayan1Dutta/InterviewEasy/internal/metrics"
	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
	"github.com/Ayan1Dutta/InterviewEasy/internal/session"
)

// Relay forwards call-negotiation frames between the two members of a room.
// Payloads are opaque blobs owned by the clients' WebRTC stack; the relay
// never inspects them and offers no retry beyond per-connection ordering.
type Relay struct {
	log *zap.Logger
}

func NewRelay(log *zap.Logger) *Relay { return &Relay{log: log} }

// Ready tells the other member this user can start negotiating. The non-host
// side waits on it; the host side treats it as the cue to send an offer.
func (r *Relay) Ready(room *session.Room, sender *session.Client, ev models.UserEvent) {
	if ev.Email == "" {
		return
	}
	room.Broadcast(sender, models.WSFrame{Type: models.FrameReady, Data: ev})
	metrics.FrameRelayed(models.FrameReady)
}

// Forward relays an offer, answer or ICE candidate verbatim to the other
// member. A missing payload is silently dropped.
func (r *Relay) Forward(room *session.Room, sender *session.Client, frameType string, payload any) {
	if payload == nil {
		return
	}
	room.Broadcast(sender, models.WSFrame{Type: frameType, Data: payload})
	metrics.FrameRelayed(frameType)
	r.log.Debug("signaling frame relayed",
		zap.String("room", room.Code),
		zap.String("type", frameType))
}
