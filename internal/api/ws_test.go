package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ayan1Dutta/InterviewEasy/internal/errs"
	"github.com/Ayan1Dutta/InterviewEasy/internal/events"
	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
	"github.com/Ayan1Dutta/InterviewEasy/internal/repositories"
	"github.com/Ayan1Dutta/InterviewEasy/internal/session"
)

type frameCapture struct {
	frames []models.WSFrame
}

func (c *frameCapture) hook(frame models.WSFrame) { c.frames = append(c.frames, frame) }

func (c *frameCapture) types() []string {
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, f.Type)
	}
	return out
}

func newTestHandlers(t *testing.T) (*Handlers, *repositories.MemoryStore, string) {
	t.Helper()
	store := repositories.NewMemoryStore()
	h := NewHandlers(zap.NewNop(), store, nil)

	room, err := h.rooms.CreateRoom(context.Background(), "h@x.com")
	require.NoError(t, err)
	return h, store, room.Code
}

func hookedClient() (*session.Client, *frameCapture) {
	c := session.NewClient(nil)
	capture := &frameCapture{}
	c.SetSendHook(capture.hook)
	return c, capture
}

func TestJoinSendsInitBundle(t *testing.T) {
	h, _, code := newTestHandlers(t)
	client, capture := hookedClient()

	room, ok := h.joinRoom(client, code, "h@x.com")
	require.True(t, ok)
	require.NotNil(t, room)

	require.NotEmpty(t, capture.frames)
	init := capture.frames[0]
	assert.Equal(t, models.FrameInit, init.Type)

	bundle, ok := init.Data.(models.InitResponse)
	require.True(t, ok)
	assert.Equal(t, code, bundle.RoomCode)
	assert.Equal(t, models.DefaultLanguage, bundle.ActiveLanguage)
	assert.Len(t, bundle.Code, len(models.SupportedLanguages), "join must bundle every buffer")
	assert.Equal(t, "h@x.com", bundle.Host)
}

func TestJoinUnknownRoomSendsError(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	client, capture := hookedClient()

	_, ok := h.joinRoom(client, "NOPE1234", "p@x.com")
	assert.False(t, ok)
	require.Len(t, capture.frames, 1)
	assert.Equal(t, models.FrameError, capture.frames[0].Type)
}

func TestJoinThirdIdentityRejected(t *testing.T) {
	h, _, code := newTestHandlers(t)

	host, _ := hookedClient()
	_, ok := h.joinRoom(host, code, "h@x.com")
	require.True(t, ok)

	peer, _ := hookedClient()
	_, ok = h.joinRoom(peer, code, "p@x.com")
	require.True(t, ok)

	third, capture := hookedClient()
	_, ok = h.joinRoom(third, code, "q@x.com")
	assert.False(t, ok)
	require.Len(t, capture.frames, 1)
	assert.Equal(t, models.FrameError, capture.frames[0].Type)
	notice, _ := capture.frames[0].Data.(models.ErrorNotice)
	assert.Equal(t, "Session is already full", notice.Message)
}

func TestJoinNotifiesBothMembers(t *testing.T) {
	h, _, code := newTestHandlers(t)

	host, hostFrames := hookedClient()
	_, ok := h.joinRoom(host, code, "h@x.com")
	require.True(t, ok)

	peer, peerFrames := hookedClient()
	_, ok = h.joinRoom(peer, code, "p@x.com")
	require.True(t, ok)

	// Fresh admit: everyone hears about it, the joiner included.
	assert.Contains(t, hostFrames.types(), models.FrameUserJoined)
	assert.Contains(t, peerFrames.types(), models.FrameUserJoined)
}

func TestRejoinDoesNotEchoJoinedToSelf(t *testing.T) {
	h, _, code := newTestHandlers(t)

	host, _ := hookedClient()
	_, ok := h.joinRoom(host, code, "h@x.com")
	require.True(t, ok)

	again, againFrames := hookedClient()
	_, ok = h.joinRoom(again, code, "h@x.com")
	require.True(t, ok)

	assert.NotContains(t, againFrames.types(), models.FrameUserJoined,
		"re-join must not notify the rejoining user about itself")
}

func TestHandleFrameDeltaReachesPeer(t *testing.T) {
	h, _, code := newTestHandlers(t)

	host, _ := hookedClient()
	room, ok := h.joinRoom(host, code, "h@x.com")
	require.True(t, ok)
	peer, peerFrames := hookedClient()
	_, ok = h.joinRoom(peer, code, "p@x.com")
	require.True(t, ok)

	done := h.handleFrame(room, host, models.WSFrame{
		Type: models.FrameDelta,
		Data: models.Delta{
			Language: models.DefaultLanguage,
			Change:   models.Change{RangeStart: 0, RangeEnd: 0, Text: "x"},
		},
	})
	assert.False(t, done)
	assert.Contains(t, peerFrames.types(), models.FrameDelta)
}

func TestHandleFrameSnapshotVersionGate(t *testing.T) {
	h, store, code := newTestHandlers(t)

	host, _ := hookedClient()
	room, ok := h.joinRoom(host, code, "h@x.com")
	require.True(t, ok)

	content := "class X{}"
	h.handleFrame(room, host, models.WSFrame{
		Type: models.FrameFullSnapshot,
		Data: models.FullSnapshot{Language: models.LangJava, Content: &content, Version: 1},
	})

	require.Eventually(t, func() bool {
		doc, err := store.FindDocumentByRoom(context.Background(), code)
		return err == nil && doc.Code[models.LangJava] == "class X{}"
	}, 2e9, 1e7)

	stale := "class Y{}"
	h.handleFrame(room, host, models.WSFrame{
		Type: models.FrameFullSnapshot,
		Data: models.FullSnapshot{Language: models.LangJava, Content: &stale, Version: 1},
	})

	doc, err := store.FindDocumentByRoom(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, "class X{}", doc.Code[models.LangJava])
}

func TestHandleFrameNotesUpdatePersistsAndRelays(t *testing.T) {
	h, store, code := newTestHandlers(t)

	host, _ := hookedClient()
	room, ok := h.joinRoom(host, code, "h@x.com")
	require.True(t, ok)
	peer, peerFrames := hookedClient()
	_, ok = h.joinRoom(peer, code, "p@x.com")
	require.True(t, ok)

	h.handleFrame(room, host, models.WSFrame{
		Type: models.FrameNotesUpdate,
		Data: models.NotesUpdate{Content: "candidate strengths: ..."},
	})

	assert.Contains(t, peerFrames.types(), models.FrameNotesUpdate)
	stored, err := store.FindRoomByCode(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, "candidate strengths: ...", stored.Notes)
}

func TestHandleFrameSignalingNarrowsToPeer(t *testing.T) {
	h, _, code := newTestHandlers(t)

	host, hostFrames := hookedClient()
	room, ok := h.joinRoom(host, code, "h@x.com")
	require.True(t, ok)
	peer, peerFrames := hookedClient()
	_, ok = h.joinRoom(peer, code, "p@x.com")
	require.True(t, ok)

	hostBefore := len(hostFrames.frames)
	h.handleFrame(room, host, models.WSFrame{
		Type: models.FrameOffer,
		Data: map[string]any{"sdp": "v=0"},
	})

	assert.Contains(t, peerFrames.types(), models.FrameOffer)
	assert.Len(t, hostFrames.frames, hostBefore, "offer must not echo to sender")
}

func TestLeaveRoomNotifiesRemainingMember(t *testing.T) {
	h, _, code := newTestHandlers(t)

	host, hostFrames := hookedClient()
	_, ok := h.joinRoom(host, code, "h@x.com")
	require.True(t, ok)
	peer, _ := hookedClient()
	room, ok := h.joinRoom(peer, code, "p@x.com")
	require.True(t, ok)

	// Transport-level close with no explicit leave takes the same path.
	h.leaveRoom(room, peer, "disconnect")

	require.Contains(t, hostFrames.types(), models.FrameUserLeft)
	var left models.UserEvent
	for _, f := range hostFrames.frames {
		if f.Type == models.FrameUserLeft {
			left, _ = f.Data.(models.UserEvent)
		}
	}
	assert.Equal(t, "p@x.com", left.Email)

	_, stillThere := h.hub.Get(code)
	assert.True(t, stillThere, "runtime state stays while a member remains")

	h.leaveRoom(room, host, "leave")
	_, stillThere = h.hub.Get(code)
	assert.False(t, stillThere, "empty room must discard runtime state")
}

func TestHandleFrameEndTearsDownRoom(t *testing.T) {
	h, store, code := newTestHandlers(t)

	host, _ := hookedClient()
	room, ok := h.joinRoom(host, code, "h@x.com")
	require.True(t, ok)
	peer, peerFrames := hookedClient()
	_, ok = h.joinRoom(peer, code, "p@x.com")
	require.True(t, ok)

	done := h.handleFrame(room, host, models.WSFrame{Type: models.FrameEnd})
	assert.True(t, done)

	assert.Contains(t, peerFrames.types(), models.FrameInterviewEnded)
	_, err := store.FindRoomByCode(context.Background(), code)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = store.FindDocumentByRoom(context.Background(), code)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, liveRoom := h.hub.Get(code)
	assert.False(t, liveRoom)
}

func TestEndedRoomRefusesLaterFrames(t *testing.T) {
	h, store, code := newTestHandlers(t)

	host, hostFrames := hookedClient()
	room, ok := h.joinRoom(host, code, "h@x.com")
	require.True(t, ok)
	peer, peerFrames := hookedClient()
	_, ok = h.joinRoom(peer, code, "p@x.com")
	require.True(t, ok)

	require.True(t, h.handleFrame(room, host, models.WSFrame{Type: models.FrameEnd}))
	_, err := store.FindDocumentByRoom(context.Background(), code)
	require.ErrorIs(t, err, errs.ErrNotFound)

	// The peer's read loop is still running; its next frames must be refused.
	hostBefore := len(hostFrames.frames)
	done := h.handleFrame(room, peer, models.WSFrame{
		Type: models.FrameDelta,
		Data: models.Delta{
			Language: models.DefaultLanguage,
			Change:   models.Change{RangeStart: 0, RangeEnd: 0, Text: "x"},
		},
	})
	assert.True(t, done, "a frame in an ended room must stop the read loop")
	assert.Len(t, hostFrames.frames, hostBefore, "delta must not relay inside an ended room")

	content := "resurrected"
	h.handleFrame(room, host, models.WSFrame{
		Type: models.FramePersist,
		Data: models.PersistRequest{Language: models.DefaultLanguage, Content: &content},
	})
	_, err = store.FindDocumentByRoom(context.Background(), code)
	assert.ErrorIs(t, err, errs.ErrNotFound, "persist after end must not recreate the document")

	// A straggler disconnect after the end must not notify anyone.
	peerBefore := len(peerFrames.frames)
	h.leaveRoom(room, host, "disconnect")
	assert.Len(t, peerFrames.frames, peerBefore)
}

func TestHandleFrameUnknownType(t *testing.T) {
	h, _, code := newTestHandlers(t)

	host, hostFrames := hookedClient()
	room, ok := h.joinRoom(host, code, "h@x.com")
	require.True(t, ok)

	h.handleFrame(room, host, models.WSFrame{Type: "teleport"})
	require.NotEmpty(t, hostFrames.frames)
	assert.Equal(t, models.FrameError, hostFrames.frames[len(hostFrames.frames)-1].Type)
}

func TestRemoteSessionEndedEventDropsLocalRuntime(t *testing.T) {
	h, _, code := newTestHandlers(t)

	host, hostFrames := hookedClient()
	_, ok := h.joinRoom(host, code, "h@x.com")
	require.True(t, ok)

	h.onRemoteEvent(events.Event{
		Type:       events.EventSessionEnded,
		RoomCode:   code,
		InstanceID: "other-instance",
	})

	assert.Contains(t, hostFrames.types(), models.FrameInterviewEnded)
	_, liveRoom := h.hub.Get(code)
	assert.False(t, liveRoom)
}
