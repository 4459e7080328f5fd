package tracker

// Notifier delivers user-facing notifications. The telegram adapter
// implements it; tests use a recording fake.
type Notifier interface {
	// Send delivers text with optional inline buttons and returns an opaque
	// message id usable with Edit.
	Send(chatID int64, text string, buttons []Button) (int, error)
	// Edit rewrites a previously delivered message in place.
	Edit(chatID int64, messageID int, text string, buttons []Button) error
}

// Button is one inline action offered with a notification. Tag is dispatched
// back into the tracker when the user presses it.
type Button struct {
	Label string
	Tag   string
}

// Callback tags routed by the telegram layer.
const (
	TagStandEarly = "stand_early"
	TagStandAck   = "stand_up"
	TagSitDown    = "sit_down"
)

func standEarlyButtons() []Button {
	return []Button{{Label: btnStandUp, Tag: TagStandEarly}}
}

func standAckButtons() []Button {
	return []Button{{Label: btnStandUp, Tag: TagStandAck}}
}

func sitDownButtons() []Button {
	return []Button{{Label: btnSitDown, Tag: TagSitDown}}
}
