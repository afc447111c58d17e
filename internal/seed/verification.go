package seed

import (
	"fmt"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/ranking"
)

// Verify checks the ordering invariants of a served leaderboard: ranks run
// 1..n without gaps, consecutive entries are in ranking order, and count
// matches the entries returned. Violations are errors.
func Verify(lb Leaderboard) error {
	if lb.Count != len(lb.Rankings) {
		return fmt.Errorf("%w: count %d but %d entries", ErrVerification, lb.Count, len(lb.Rankings))
	}
	if lb.Total < lb.Count {
		return fmt.Errorf("%w: total %d below count %d", ErrVerification, lb.Total, lb.Count)
	}
	for i, e := range lb.Rankings {
		if e.Rank != i+1 {
			return fmt.Errorf("%w: entry %d has rank %d", ErrVerification, i, e.Rank)
		}
		if i > 0 && ranking.Compare(lb.Rankings[i-1].EvaluationRecord, e.EvaluationRecord) > 0 {
			return fmt.Errorf("%w: %s ranked above %s out of order",
				ErrVerification, lb.Rankings[i-1].ParticipantID, e.ParticipantID)
		}
	}
	return nil
}

// Expect compares the served entries with the ranking of the records this
// run generated. Differences are returned as descriptions rather than
// errors, since the bucket may hold records written by others.
func Expect(lb Leaderboard, docs []Document) []string {
	records := make([]model.EvaluationRecord, len(docs))
	for i, d := range docs {
		records[i] = d.Record
	}
	want := ranking.Rank(records)

	var diffs []string
	for i, got := range lb.Rankings {
		if i >= len(want) {
			break
		}
		w := want[i]
		if got.ParticipantID != w.ParticipantID || got.Timestamp != w.Timestamp {
			diffs = append(diffs, fmt.Sprintf("rank %d: got %s@%d, want %s@%d",
				i+1, got.ParticipantID, got.Timestamp, w.ParticipantID, w.Timestamp))
		}
	}
	return diffs
}
