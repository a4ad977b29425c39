package session

type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseError      Phase = "error"
	PhaseBrowsing   Phase = "browsing"
	PhaseConfirming Phase = "confirming"
)

var validNext = map[Phase]map[Phase]bool{
	PhaseLoading:    {PhaseBrowsing: true, PhaseError: true},
	PhaseError:      {PhaseLoading: true},
	PhaseBrowsing:   {PhaseBrowsing: true, PhaseConfirming: true},
	PhaseConfirming: {PhaseBrowsing: true, PhaseConfirming: true},
}

func CanTransition(from, to Phase) bool {
	return validNext[from][to]
}

// Reason only changes what the user is told; recovery is always a retry.
type Reason string

const (
	ReasonNone    Reason = ""
	ReasonNetwork Reason = "network"
	ReasonOther   Reason = "other"
)

func (r Reason) Title() string {
	switch r {
	case ReasonNetwork:
		return "Connection Problem"
	case ReasonOther:
		return "Unable to Load Skips"
	}
	return ""
}

func (r Reason) Message() string {
	switch r {
	case ReasonNetwork:
		return "We couldn't connect to our servers. Please check your internet connection and try again."
	case ReasonOther:
		return "We're having trouble loading the skip options right now."
	}
	return ""
}

type ViewMode string

const (
	ModeInteractive ViewMode = "interactive"
	ModeComparison  ViewMode = "comparison"
)

func (m ViewMode) Valid() bool {
	return m == ModeInteractive || m == ModeComparison
}

// AnchorID is the element id of the mode's primary continue button.
func (m ViewMode) AnchorID() string {
	if m == ModeComparison {
		return "continue-button-comparison"
	}
	return "continue-button-interactive"
}
