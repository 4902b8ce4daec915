package review

// Observable case labels. These project machine states onto an external
// issue-tracking system; they are a rendering, not internal storage.
const (
	LabelReadyForReview = "ready-for-review"
	LabelNeedsWork      = "needs-work"
	LabelSynced         = "synced-to-hf"
	LabelRejected       = "rejected"
)

// Label returns the observable label for a state. ok is false for states
// with no external projection (the short-lived automatic ones).
func Label(s State) (string, bool) {
	switch s {
	case StateReadyForReview:
		return LabelReadyForReview, true
	case StateNeedsWork:
		return LabelNeedsWork, true
	case StateSynced:
		return LabelSynced, true
	case StateClosed:
		return LabelRejected, true
	default:
		return "", false
	}
}

// StateForLabel maps an external label back onto a machine state.
func StateForLabel(label string) (State, bool) {
	switch label {
	case LabelReadyForReview:
		return StateReadyForReview, true
	case LabelNeedsWork:
		return StateNeedsWork, true
	case LabelSynced:
		return StateSynced, true
	case LabelRejected:
		return StateClosed, true
	default:
		return "", false
	}
}
