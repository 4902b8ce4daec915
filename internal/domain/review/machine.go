// Package review tracks a submission's lifecycle from ingestion to terminal
// disposition. State transitions are the sole mutation point for a case.
package review

// State is the review lifecycle position of a case.
type State string

// Review lifecycle states.
const (
	StateCreated        State = "created"
	StateValidating     State = "validating"
	StateReadyForReview State = "ready_for_review"
	StateNeedsWork      State = "needs_work"
	StateApproved       State = "approved"
	StateRejected       State = "rejected"
	StateSynced         State = "synced"
	StateClosed         State = "closed"
)

// Actor identifies who is driving a transition.
type Actor string

// Transition actors.
const (
	ActorSystem   Actor = "system"
	ActorReviewer Actor = "reviewer"
)

// edge is a directed transition in the state machine.
type edge struct {
	from, to State
}

// allowed is the full transition table. Any attempt outside it fails with
// ErrInvalidTransition; an attempt by the wrong actor fails with
// ErrWrongActor. NeedsWork -> Validating is the only cycle.
var allowed = map[edge]Actor{
	{StateCreated, StateValidating}:         ActorSystem,
	{StateValidating, StateReadyForReview}:  ActorSystem,
	{StateValidating, StateNeedsWork}:       ActorSystem,
	{StateNeedsWork, StateValidating}:       ActorSystem,
	{StateReadyForReview, StateApproved}:    ActorReviewer,
	{StateReadyForReview, StateRejected}:    ActorReviewer,
	{StateReadyForReview, StateNeedsWork}:   ActorReviewer,
	{StateApproved, StateSynced}:            ActorSystem,
	{StateRejected, StateClosed}:            ActorSystem,
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateSynced || s == StateClosed
}

// CanTransition reports whether the edge from -> to exists at all.
func CanTransition(from, to State) bool {
	_, ok := allowed[edge{from, to}]
	return ok
}

// actorFor returns the actor allowed to drive from -> to.
func actorFor(from, to State) (Actor, bool) {
	a, ok := allowed[edge{from, to}]
	return a, ok
}
