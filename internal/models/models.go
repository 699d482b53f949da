package models

import (
	"encoding/json"
	"time"
)

type Language string

const (
	LangJavaScript Language = "javascript"
	LangJava       Language = "java"
	LangCPP        Language = "cpp"
)

// DefaultLanguage is the language a room starts on before anyone switches.
const DefaultLanguage = LangJavaScript

// SupportedLanguages lists every language a room keeps a buffer for. Every
// key in this list is always present in an active room's CodeDocument.
var SupportedLanguages = []Language{LangJavaScript, LangJava, LangCPP}

// Boilerplates seed (and repair) each language buffer so a joiner never sees
// an empty editor.
var Boilerplates = map[Language]string{
	LangJavaScript: "// JavaScript Boilerplate\nfunction greet(name){\n  return 'Hello, ' + name;\n}\nconsole.log(greet('World'));\n",
	LangJava:       "// Java Boilerplate\nimport java.util.*;\npublic class Main {\n  public static void main(String[] args){\n    System.out.println(\"Hello, World\");\n  }\n}\n",
	LangCPP:        "// C++ Boilerplate\n#include <bits/stdc++.h>\nusing namespace std;\nint main(){\n  cout << \"Hello, World\" << endl;\n  return 0;\n}\n",
}

func IsSupportedLanguage(l Language) bool {
	for _, s := range SupportedLanguages {
		if s == l {
			return true
		}
	}
	return false
}

/*** Durable records ***/

// StatusActive is the only durable status: ended rooms are deleted, not
// marked.
const StatusActive = "active"

// Session is the durable interview room record. Host is immutable after
// creation; participants grow until capacity or explicit end.
type Session struct {
	Code         string    `bson:"sessionCode" json:"sessionCode"`
	Host         string    `bson:"host" json:"host"`
	Participants []string  `bson:"participants" json:"participants"`
	Status       string    `bson:"status" json:"status"`
	Notes        string    `bson:"notes" json:"notes"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// HasParticipant does an exact identity match (email-equivalent key).
func (s *Session) HasParticipant(email string) bool {
	for _, p := range s.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// CodeDocument holds every language buffer for one room.
type CodeDocument struct {
	RoomCode    string              `bson:"sessionCode" json:"sessionCode"`
	Code        map[Language]string `bson:"code" json:"code"`
	LastUpdated time.Time           `bson:"lastUpdated" json:"lastUpdated"`
}

// RoomInfo is the read-only projection returned to late joiners and the UI.
type RoomInfo struct {
	Host         string              `json:"host"`
	Participants []string            `json:"participants"`
	Code         map[Language]string `json:"code"`
	Notes        string              `json:"notes"`
}

/*** WebSocket surface ***/

// WSFrame is the envelope for every room-scoped message.
type WSFrame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Frame type tags.
const (
	FrameJoin             = "join"
	FrameInit             = "init"
	FrameLeave            = "leave"
	FrameEnd              = "end"
	FrameDelta            = "delta"
	FrameDeltaBatch       = "delta-batch"
	FrameFullSnapshot     = "full-snapshot"
	FramePersist          = "persist"
	FramePersistAll       = "persist-all"
	FrameLanguageChange   = "language-change"
	FrameReady            = "ready"
	FrameOffer            = "offer"
	FrameAnswer           = "answer"
	FrameIceCandidate     = "ice-candidate"
	FrameNotesUpdate      = "notes-update"
	FrameCodeOutput       = "code-output"
	FrameFullscreenChange = "fullscreen-change"
	FrameSyncStartTime    = "sync-start-time"
	FrameUserRefreshed    = "user-refreshed"

	FrameUserJoined        = "user-joined"
	FrameUserLeft          = "user-left"
	FrameInterviewEnded    = "interview-ended"
	FrameFullscreenWarning = "fullscreen-warning"
	FrameError             = "error"
)

// Decode re-marshals a frame's loosely typed data into a concrete payload.
func Decode(in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// Change is one incremental edit: replace [RangeStart, RangeEnd) with Text.
type Change struct {
	RangeStart int    `json:"rangeStart"`
	RangeEnd   int    `json:"rangeEnd"`
	Text       string `json:"text"`
}

func (c Change) Valid() bool {
	return c.RangeStart >= 0 && c.RangeEnd >= c.RangeStart
}

type Delta struct {
	Language Language `json:"language"`
	Change   Change   `json:"change"`
}

type DeltaBatch struct {
	Language Language `json:"language"`
	Changes  []Change `json:"changes"`
}

// FullSnapshot is the drift-correction payload. Content is a pointer so a
// missing field can be told apart from an intentionally empty buffer.
type FullSnapshot struct {
	Language Language `json:"language"`
	Content  *string  `json:"content"`
	Version  int64    `json:"version"`
}

// PersistRequest is a debounce-driven durability write, not version-gated.
type PersistRequest struct {
	Language Language `json:"language"`
	Content  *string  `json:"content"`
}

// PersistAllRequest writes a full per-language map in one go.
type PersistAllRequest struct {
	Codes map[Language]string `json:"codes"`
}

type LanguageChange struct {
	Language Language `json:"language"`
}

// InitResponse is bundled into the join reply so a newcomer can materialize
// every buffer without another round trip.
type InitResponse struct {
	RoomCode       string              `json:"roomCode"`
	Code           map[Language]string `json:"code"`
	ActiveLanguage Language            `json:"activeLanguage"`
	Participants   []string            `json:"participants"`
	Host           string              `json:"host"`
	Notes          string              `json:"notes"`
}

// UserEvent attributes join/leave/ready/refresh notifications to an identity.
type UserEvent struct {
	Email string `json:"email"`
}

type NotesUpdate struct {
	Content string `json:"content"`
}

type StartTimeSync struct {
	NewStartTime int64 `json:"newStartTime"`
}

type FullscreenChange struct {
	Message string `json:"message"`
}

type EndedNotice struct {
	Message string `json:"message"`
}

type ErrorNotice struct {
	Message string `json:"message"`
}
