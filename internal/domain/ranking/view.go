package ranking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/evalboard/internal/domain/model"
)

// View selects which records of a snapshot take part in ranking.
type View string

const (
	// ViewAll ranks every completed record independently.
	ViewAll View = "all"
	// ViewLatest keeps only each participant's most recent completed record.
	ViewLatest View = "latest"
)

// ErrUnknownView is returned by ParseView for unsupported names.
var ErrUnknownView = errors.New("unknown leaderboard view")

// ParseView maps a user-supplied name to a View. Empty means ViewAll.
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case "", ViewAll:
		return ViewAll, nil
	case ViewLatest:
		return ViewLatest, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
	}
}

// String implements fmt.Stringer.
func (v View) String() string { return string(v) }

// Apply filters records according to the view.
func (v View) Apply(records []model.EvaluationRecord) []model.EvaluationRecord {
	if v == ViewLatest {
		return LatestPerParticipant(records)
	}
	return records
}

// LatestPerParticipant keeps one completed record per participant: the one
// with the greatest timestamp, then the higher score, then the earliest in
// input order. Output preserves the input order of the survivors.
func LatestPerParticipant(records []model.EvaluationRecord) []model.EvaluationRecord {
	best := make(map[string]int, len(records))
	for i, r := range records {
		if !r.Status.IsCompleted() {
			continue
		}
		j, ok := best[r.ParticipantID]
		if !ok {
			best[r.ParticipantID] = i
			continue
		}
		cur := records[j]
		if r.Timestamp > cur.Timestamp || (r.Timestamp == cur.Timestamp && r.TotalScore > cur.TotalScore) {
			best[r.ParticipantID] = i
		}
	}

	out := make([]model.EvaluationRecord, 0, len(best))
	for i, r := range records {
		if j, ok := best[r.ParticipantID]; ok && j == i {
			out = append(out, r)
		}
	}
	return out
}
