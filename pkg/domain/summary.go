package domain

import "time"

// RunSummary is the compact view of a terminated run handed to callers.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Site       string    `json:"site"`
	Outcome    Outcome   `json:"outcome"`
	Steps      int       `json:"steps"`
	Retries    int       `json:"retries"`
	Jobs       []Job     `json:"jobs"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Summarize extracts the postings of s. The final turn is preferred; runs that
// end on an evaluator verdict fall back to RawJobText.
func Summarize(s State) RunSummary {
	sum := RunSummary{
		RunID:      s.RunID,
		Site:       s.TargetSite,
		Outcome:    s.Outcome,
		Steps:      s.Steps,
		Retries:    s.RetryCount,
		Error:      s.Error,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Jobs:       []Job{},
	}
	if s.Outcome == OutcomeFailed {
		return sum
	}
	if jobs, err := ParseJobs(s.Last().Content); err == nil {
		sum.Jobs = jobs
		return sum
	}
	if jobs, err := ParseJobs(s.RawJobText); err == nil {
		sum.Jobs = jobs
	}
	return sum
}
