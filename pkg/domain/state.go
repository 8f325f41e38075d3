package domain

import (
	"fmt"
	"sort"
	"time"
)

// Outcome records how a run reached the terminal signal.
type Outcome string

const (
	// OutcomePending is the outcome of a run that has not terminated.
	OutcomePending Outcome = ""
	// OutcomeDirect means the job list came from a scraper tool or a direct answer.
	OutcomeDirect Outcome = "direct"
	// OutcomeAccepted means a synthesized script passed evaluation.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeRejectedRetry marks an evaluation that sent the loop back to the code writer.
	OutcomeRejectedRetry Outcome = "rejected_retry"
	// OutcomeRejectedFatal means the retry ceiling was exceeded; RawJobText is best effort.
	OutcomeRejectedFatal Outcome = "rejected_fatal"
	// OutcomeFailed means a collaborator fault aborted the run.
	OutcomeFailed Outcome = "failed"
)

// SiteRegistry maps a site identifier to its career-page URL.
// It is shared read-only across every run of a process.
type SiteRegistry map[string]string

// Lookup returns the career-page URL for site.
func (r SiteRegistry) Lookup(site string) (string, error) {
	url, ok := r[site]
	if !ok || url == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownSite, site)
	}
	return url, nil
}

// Sites returns the registered identifiers in stable order.
func (r SiteRegistry) Sites() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// State is the WorkflowState threaded through every node of one site run.
//
// Nodes write only the fields they own by convention: the code writer sets
// CandidateScript and RetryCount, the planner sets PendingQuestion, and so on.
// Messages is append-only; the graph executor rejects nodes that rewrite it.
type State struct {
	// RunID identifies the run and isolates its sandbox scratch directory.
	RunID string `json:"run_id"`

	// TargetSite is set once at run start.
	TargetSite string `json:"target_site"`

	// CareerPage is the registry URL resolved for TargetSite at run start.
	CareerPage string `json:"career_page"`

	// Registry is the shared read-only site registry. Not owned, not persisted.
	Registry SiteRegistry `json:"-"`

	// Messages is the ordered, append-only conversation history.
	Messages []Message `json:"messages"`

	// PendingQuestion carries the next instruction for the code writer.
	PendingQuestion string `json:"pending_question,omitempty"`

	// CandidateScript is the latest synthesized extraction script.
	CandidateScript string `json:"candidate_script,omitempty"`

	// RetryCount is incremented exactly once per synthesis attempt.
	RetryCount int `json:"retry_count"`

	// RawJobText holds whichever raw listing output was produced last.
	RawJobText string `json:"raw_job_text,omitempty"`

	// Bookkeeping maintained by the graph executor.
	CurrentNode string    `json:"current_node,omitempty"`
	History     []string  `json:"history,omitempty"`
	Steps       int       `json:"steps"`
	Outcome     Outcome   `json:"outcome,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`

	// Sealed carries the encrypted state when a run is persisted through the
	// encryption middleware. Empty on live states.
	Sealed string `json:"sealed,omitempty"`
}

// NewState seeds a run for site with the initial human request, sanitized
// by SanitizeRequest.
func NewState(runID, site string, registry SiteRegistry, request string) (*State, error) {
	url, err := registry.Lookup(site)
	if err != nil {
		return nil, err
	}
	request, err = SanitizeRequest(request)
	if err != nil {
		return nil, err
	}
	return &State{
		RunID:      runID,
		TargetSite: site,
		CareerPage: url,
		Registry:   registry,
		Messages:   []Message{HumanMessage(request)},
		StartedAt:  time.Now().UTC(),
	}, nil
}

// DefaultRequest is the human turn used to seed a run when none is supplied.
func DefaultRequest(site string) string {
	return fmt.Sprintf("can you simply get the current jobs associated with this company %s?", site)
}

// Append adds turns to the end of the history.
func (s *State) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// Last returns the latest turn. The zero Message is returned for an empty history.
func (s State) Last() Message {
	if len(s.Messages) == 0 {
		return Message{}
	}
	return s.Messages[len(s.Messages)-1]
}

// Terminated reports whether the run reached the terminal signal.
func (s State) Terminated() bool {
	return !s.FinishedAt.IsZero()
}

// Clone returns a deep copy that shares only the read-only Registry.
func (s State) Clone() State {
	out := s
	out.Messages = CloneMessages(s.Messages)
	if s.History != nil {
		out.History = append([]string(nil), s.History...)
	}
	return out
}
