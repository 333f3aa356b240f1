package offline

// MessageType names an inter-context message.
type MessageType string

const (
	// MessageSkipWaiting asks a waiting worker to promote itself.
	MessageSkipWaiting MessageType = "SKIP_WAITING"
	// MessageActivated announces the version that just took control.
	MessageActivated MessageType = "SW_ACTIVATED"
)

// Message is exchanged between foreground contexts and workers.
type Message struct {
	Type    MessageType `json:"type" validate:"required,max=64"`
	Version VersionTag  `json:"version,omitempty" validate:"max=256"`
}

// SkipWaiting builds a promote message
func SkipWaiting() Message {
	return Message{Type: MessageSkipWaiting}
}

// Activated builds the activation broadcast for v
func Activated(v VersionTag) Message {
	return Message{Type: MessageActivated, Version: v}
}
