package blueprint

import (
	"errors"
	"fmt"
)

// Recoverable worker faults. Task logic raises exactly these to signal that
// a worker returned the unit, dropped the connection, or ran out of time.
// Anything else is treated as an unrecognized fault.
var (
	ErrAgentReturned     = errors.New("agent returned the unit")
	ErrAgentDisconnected = errors.New("agent disconnected")
	ErrAgentTimeout      = errors.New("agent timed out")
)

// AgentFault attributes a fault to a specific agent. Assignment-level logic
// wraps the sentinel in an AgentFault so the driver knows which partner to
// expire.
type AgentFault struct {
	AgentID string
	Err     error
}

func (f *AgentFault) Error() string {
	return fmt.Sprintf("agent %s: %v", f.AgentID, f.Err)
}

func (f *AgentFault) Unwrap() error {
	return f.Err
}

// IsRecoverable reports whether err is one of the recognized worker faults.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrAgentReturned) ||
		errors.Is(err, ErrAgentDisconnected) ||
		errors.Is(err, ErrAgentTimeout)
}

// FaultAgentID extracts the faulting agent's ID when err carries one.
func FaultAgentID(err error) (string, bool) {
	var f *AgentFault
	if errors.As(err, &f) {
		return f.AgentID, true
	}
	return "", false
}
