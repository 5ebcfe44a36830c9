package match

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Record is one scoring attempt of a resume against a job description.
// Records are insert-only.
type Record struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	ResumeRef      string    `json:"resume_ref"`
	JobDescription string    `json:"job_description"`
	MatchScore     *float64  `json:"match_score"`
	Suggestions    string    `json:"suggestions"`
	CreatedAt      time.Time `json:"created_at"`
}

const EventMatchCompleted = "match_completed"

// CompletedEvent is published once a record has been persisted.
type CompletedEvent struct {
	Type       string    `json:"type"`
	MatchID    uuid.UUID `json:"match_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	MatchScore *float64  `json:"match_score"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewCompletedEvent(r Record) CompletedEvent {
	return CompletedEvent{
		Type:       EventMatchCompleted,
		MatchID:    r.ID,
		OwnerID:    r.OwnerID,
		MatchScore: r.MatchScore,
		CreatedAt:  r.CreatedAt,
	}
}

// NewerThan orders records the way the repository's latest query does:
// created_at first, id as the tie breaker.
func (r Record) NewerThan(other Record) bool {
	if !r.CreatedAt.Equal(other.CreatedAt) {
		return r.CreatedAt.After(other.CreatedAt)
	}
	return bytes.Compare(r.ID[:], other.ID[:]) > 0
}
