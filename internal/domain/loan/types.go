package loan

type Status string

const (
	StatusActive   Status = "active"
	StatusReturned Status = "returned"
	StatusLost     Status = "lost"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusReturned, StatusLost:
		return true
	default:
		return false
	}
}

// Terminal loans are immutable; only active loans may transition.
func (s Status) IsTerminal() bool {
	return s == StatusReturned || s == StatusLost
}
