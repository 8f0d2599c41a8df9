package model

// Agent status constants. These strings are written to durable storage and
// must not be altered without a migration.
const (
	StatusNone              = "none"
	StatusAccepted          = "accepted"
	StatusOnboarding        = "onboarding"
	StatusWaiting           = "waiting"
	StatusInTask            = "in task"
	StatusCompleted         = "completed"
	StatusDisconnect        = "disconnect"
	StatusTimeout           = "timeout"
	StatusPartnerDisconnect = "partner disconnect"
	StatusExpired           = "expired"
	StatusReturned          = "returned"
	StatusApproved          = "approved"
	StatusRejected          = "rejected"
)

// Unit status constants. "launched" and "assigned" are the two phases in
// which a unit still occupies an admission slot.
const (
	UnitStatusCreated   = "created"
	UnitStatusLaunched  = "launched"
	UnitStatusAssigned  = "assigned"
	UnitStatusCompleted = "completed"
	UnitStatusAccepted  = "accepted"
	UnitStatusRejected  = "rejected"
	UnitStatusExpired   = "expired"
)

// finalAgentStatuses maps each agent status that permits no further transition.
var finalAgentStatuses = map[string]bool{
	StatusCompleted:  true,
	StatusDisconnect: true,
	StatusTimeout:    true,
	StatusExpired:    true,
	StatusReturned:   true,
}

// finalUnitStatuses maps each unit status that permits no further transition.
var finalUnitStatuses = map[string]bool{
	UnitStatusCompleted: true,
	UnitStatusAccepted:  true,
	UnitStatusRejected:  true,
	UnitStatusExpired:   true,
}

// IsFinalAgentStatus reports whether an agent in the given status can never
// transition again.
func IsFinalAgentStatus(status string) bool {
	return finalAgentStatuses[status]
}

// IsFinalUnitStatus reports whether a unit in the given status can never
// transition again.
func IsFinalUnitStatus(status string) bool {
	return finalUnitStatuses[status]
}

// UnitHoldsSlot reports whether a unit in the given status still consumes a
// concurrency slot. The admission controller frees the slot once the unit
// progresses past these phases.
func UnitHoldsSlot(status string) bool {
	return status == UnitStatusLaunched || status == UnitStatusAssigned
}

// FinalAgentStatuses returns the terminal agent statuses.
func FinalAgentStatuses() []string {
	return []string{
		StatusCompleted,
		StatusDisconnect,
		StatusTimeout,
		StatusExpired,
		StatusReturned,
	}
}

// IsValidAgentStatus reports whether status belongs to the agent status
// vocabulary.
func IsValidAgentStatus(status string) bool {
	for _, s := range ValidAgentStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ValidAgentStatuses returns every status an agent may occupy.
func ValidAgentStatuses() []string {
	return []string{
		StatusNone,
		StatusAccepted,
		StatusOnboarding,
		StatusWaiting,
		StatusInTask,
		StatusCompleted,
		StatusDisconnect,
		StatusTimeout,
		StatusPartnerDisconnect,
		StatusExpired,
		StatusReturned,
		StatusApproved,
		StatusRejected,
	}
}
