// internal/booking/lifecycle.go
package booking

// Status is a reservation's position in its lifecycle. Cancelled and
// completed are terminal; rows in those states are immutable.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Cancellation reason tags recorded on every cancellation.
const (
	ReasonUserCancelled       = "user_cancelled"
	ReasonOwnerCancelled      = "owner_cancelled"
	ReasonAutoCancelledNoShow = "auto_cancelled_no_show"
)

// Actor identifies who is driving a transition.
type Actor string

const (
	ActorHolder  Actor = "holder"
	ActorOwner   Actor = "owner"
	ActorSweeper Actor = "sweeper"
)

// Terminal reports whether no further transitions are permitted from s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// transitions is the lifecycle graph. Creation enters at pending or
// confirmed depending on venue policy; everything after that follows these
// edges.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// DefaultCancellationReason maps the cancelling actor to its reason tag.
func DefaultCancellationReason(actor Actor) string {
	switch actor {
	case ActorOwner:
		return ReasonOwnerCancelled
	case ActorSweeper:
		return ReasonAutoCancelledNoShow
	default:
		return ReasonUserCancelled
	}
}
