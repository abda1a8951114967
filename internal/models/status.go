package models

// WorkStatus is the lifecycle state of a work
type WorkStatus string

// Work statuses
const (
	WorkStatusPendingPayment  WorkStatus = "pending_payment"
	WorkStatusPendingApproval WorkStatus = "pending_approval"
	WorkStatusPublished       WorkStatus = "published"
	WorkStatusRejected        WorkStatus = "rejected"
)

// validWorkTransitions lists the only edges of the work state machine.
var validWorkTransitions = map[WorkStatus][]WorkStatus{
	WorkStatusPendingPayment:  {WorkStatusPendingApproval},
	WorkStatusPendingApproval: {WorkStatusPublished, WorkStatusRejected},
}

// CanTransitionTo reports whether moving from s to next is a legal edge
func (s WorkStatus) CanTransitionTo(next WorkStatus) bool {
	for _, allowed := range validWorkTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s WorkStatus) IsTerminal() bool {
	return s == WorkStatusPublished || s == WorkStatusRejected
}

// Invoiced reports whether the work ever had its placement paid
func (s WorkStatus) Invoiced() bool {
	return s == WorkStatusPendingApproval || s == WorkStatusPublished || s == WorkStatusRejected
}

// Label returns a human readable status
func (s WorkStatus) Label() string {
	switch s {
	case WorkStatusPendingPayment:
		return "Awaiting payment"
	case WorkStatusPendingApproval:
		return "On moderation"
	case WorkStatusPublished:
		return "✅ Published"
	case WorkStatusRejected:
		return "❌ Rejected"
	default:
		return string(s)
	}
}
