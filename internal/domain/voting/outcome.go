package voting

// Outcome is the evaluated result of a session's tally.
type Outcome string

const (
	OutcomeApproved          Outcome = "APPROVED"
	OutcomeRejected          Outcome = "REJECTED"
	OutcomeUndecided         Outcome = "UNDECIDED"
	OutcomeInsufficientVotes Outcome = "INSUFFICIENT_VOTES"
	OutcomeNoVotes           Outcome = "NO_VOTES"
)

// Tally is a snapshot of a session's vote counts.
type Tally struct {
	Total   int `json:"total"`
	For     int `json:"for"`
	Against int `json:"against"`
}

// ApprovalRatio is the fraction of FOR votes. Zero when no votes were cast.
func (t Tally) ApprovalRatio() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.For) / float64(t.Total)
}

// Evaluate turns a tally and a rule set into an outcome. It is deterministic
// and side-effect free.
//
// At an exact threshold tie (e.g. threshold 0.5 with a 50/50 split) both the
// approval and rejection conditions hold; approval is checked first, so the
// tie resolves to APPROVED. This precedence is deliberate and asymmetric.
func Evaluate(t Tally, r Rules) Outcome {
	if t.Total == 0 {
		return OutcomeNoVotes
	}
	if t.Total < r.MinVotesRequired {
		return OutcomeInsufficientVotes
	}

	ratio := t.ApprovalRatio()
	switch {
	case ratio >= r.ApprovalThreshold:
		return OutcomeApproved
	case (1 - ratio) >= r.ApprovalThreshold:
		return OutcomeRejected
	default:
		return OutcomeUndecided
	}
}
