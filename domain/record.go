package domain

import (
	"strings"
	"time"
)

// WorkItemRecord is a single reported production issue. Records are owned by
// the record store and are read-only from the pairing core's perspective.
type WorkItemRecord struct {
	ID          string
	Identifier  string // work-item identifier, e.g. "AB123"
	Owner       ParticipantID
	ProblemType string
	Description string
	CreatedAt   time.Time
}

// NormalizeIdentifier folds a raw work-item identifier into its canonical
// form. Comparison is always done on the normalized value.
func NormalizeIdentifier(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
