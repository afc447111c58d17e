// Package ranking orders evaluation records into a leaderboard.
//
// The order is a strict total order: higher total score first, then earlier
// timestamp, then lexicographically smaller participant id. Ranks are
// contiguous (1..N); equal scores never share a rank.
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/evalboard/internal/domain/model"
)

// Compare orders a before b when it returns a negative number.
func Compare(a, b model.EvaluationRecord) int {
	if c := cmp.Compare(b.TotalScore, a.TotalScore); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(a.ParticipantID, b.ParticipantID)
}

// Less reports whether a ranks ahead of b.
func Less(a, b model.EvaluationRecord) bool {
	return Compare(a, b) < 0
}

// Rank sorts the completed records and assigns contiguous ranks starting at 1.
// Records that are not completed are dropped. The input slice is not modified.
func Rank(records []model.EvaluationRecord) []model.LeaderboardEntry {
	completed := make([]model.EvaluationRecord, 0, len(records))
	for _, r := range records {
		if r.Status.IsCompleted() {
			completed = append(completed, r)
		}
	}

	// Stable so that fully identical records keep input order.
	slices.SortStableFunc(completed, Compare)

	entries := make([]model.LeaderboardEntry, len(completed))
	for i, r := range completed {
		entries[i] = model.LeaderboardEntry{
			Rank:             i + 1,
			EvaluationRecord: r,
		}
	}
	return entries
}

// Top returns the first n entries, or all of them when n <= 0 or n exceeds
// the length. Ranks are unchanged.
func Top(entries []model.LeaderboardEntry, n int) []model.LeaderboardEntry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}

// Find returns the best-ranked entry for participantID.
func Find(entries []model.LeaderboardEntry, participantID string) (model.LeaderboardEntry, bool) {
	for _, e := range entries {
		if e.ParticipantID == participantID {
			return e, true
		}
	}
	return model.LeaderboardEntry{}, false
}
