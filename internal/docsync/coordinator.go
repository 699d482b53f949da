package docsync

import (
	"github.com/Ayan1Dutta/InterviewEasy/internal/metrics"
	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
	"github.com/Ayan1Dutta/InterviewEasy/internal/session"
)

// SetLanguage overwrites the room's active-language cell and tells the other
// members. Convergence needs no protocol: the room's runtime state is the
// single coordinator of record and changes are last-writer-wins on arrival.
// Late joiners pick the current value up from their init bundle instead.
func SetLanguage(room *session.Room, sender *session.Client, lc models.LanguageChange) bool {
	if !models.IsSupportedLanguage(lc.Language) {
		return false
	}
	room.SetActiveLanguage(lc.Language)
	room.Broadcast(sender, models.WSFrame{Type: models.FrameLanguageChange, Data: lc})
	metrics.FrameRelayed(models.FrameLanguageChange)
	return true
}
