package copy

type Status string

const (
	StatusAvailable Status = "available"
	StatusLoaned    Status = "loaned"
	StatusLost      Status = "lost"
	StatusRetired   Status = "retired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusLoaned, StatusLost, StatusRetired:
		return true
	default:
		return false
	}
}
