package messages

const (
	// Events queue name for incoming task lifecycle events
	Events string = "Events"
	// Decisions queue name for outgoing decision notifications
	Decisions string = "Decisions"
)
