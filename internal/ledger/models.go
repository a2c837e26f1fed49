package ledger

import (
	"time"
)

// Status represents the lifecycle of a card within one run.
type Status string

const (
	StatusPending         Status = "pending"
	StatusClassifying     Status = "classifying"
	StatusResearching     Status = "researching"
	StatusRecovering      Status = "recovering"
	StatusEnhanced        Status = "enhanced"
	StatusRecovered       Status = "recovered"
	StatusQuarantined     Status = "quarantined"
	StatusSkippedEnhanced Status = "skipped_enhanced"
	StatusSkippedNoAnchor Status = "skipped_no_anchor"
	StatusFailed          Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusClassifying,
	StatusResearching,
	StatusRecovering,
	StatusEnhanced,
	StatusRecovered,
	StatusQuarantined,
	StatusSkippedEnhanced,
	StatusSkippedNoAnchor,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether a card in this status is done for the run.
func (s Status) Terminal() bool {
	switch s {
	case StatusEnhanced, StatusRecovered, StatusQuarantined,
		StatusSkippedEnhanced, StatusSkippedNoAnchor, StatusFailed:
		return true
	}
	return false
}

// Item is one card's row in the ledger.
type Item struct {
	ID           int64
	RunID        string
	CardKey      string
	Artist       string
	Status       Status
	Confidence   float64
	Issues       []string
	Connections  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Run is one invocation of the pipeline over the collection.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
}

// Finished reports whether the run has been closed out.
func (r *Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Stats aggregates one run's outcomes.
type Stats struct {
	Processed        int
	Enhanced         int
	Recovered        int
	Quarantined      int
	SkippedEnhanced  int
	SkippedNoAnchor  int
	Failed           int
	ProblemsDetected int
	ConnectionsFound int
}

// Attempted counts cards that went through research or recovery rather than
// being skipped.
func (s Stats) Attempted() int {
	return s.Enhanced + s.Recovered + s.Quarantined + s.Failed
}

// SuccessRate returns the fraction of processed cards that ended enhanced or
// recovered, in [0, 1]. Skipped cards count against the rate; an empty run
// yields zero.
func (s Stats) SuccessRate() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Enhanced+s.Recovered) / float64(s.Processed)
}
