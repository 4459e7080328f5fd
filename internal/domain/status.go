package domain

// Status is the sit/stand cycle state of a single user.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusSitting  Status = "sitting"
	StatusStanding Status = "standing"
)

// Label returns the human-readable form shown in status replies.
func (s Status) Label() string {
	switch s {
	case StatusSitting:
		return "sitting"
	case StatusStanding:
		return "standing"
	default:
		return "not started"
	}
}

// Active reports whether the status participates in the timer cycle.
func (s Status) Active() bool {
	return s == StatusSitting || s == StatusStanding
}

// Settings are the per-user sit/stand durations, in minutes.
type Settings struct {
	SitMinutes   int
	StandMinutes int
}
