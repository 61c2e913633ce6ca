package screen

import (
	"encoding/json"
	"time"
)

// Kind tags every message written to a viewer.
type Kind string

const (
	KindConnected Kind = "connected"
	KindSnapshot  Kind = "snapshot"
	KindKeepalive Kind = "keepalive"
)

// ChannelID identifies one registered viewer channel.
type ChannelID string

func (id ChannelID) String() string { return string(id) }

// Snapshot is the most recent presenter frame.
type Snapshot struct {
	Payload   string
	Timestamp time.Time
}

// Message is a single outbound event for a viewer channel.
type Message struct {
	Kind      Kind
	ChannelID ChannelID
	Payload   string
	Text      string
	Timestamp time.Time
}

type wireMessage struct {
	Type      string `json:"type"`
	Data      string `json:"data,omitempty"`
	ClientID  string `json:"clientId,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// WireType is the "type" tag browser viewers switch on. Snapshots travel as
// "image" and keepalives as "heartbeat".
func (k Kind) WireType() string {
	switch k {
	case KindSnapshot:
		return "image"
	case KindKeepalive:
		return "heartbeat"
	default:
		return string(k)
	}
}

// MarshalJSON encodes the message in the shape browser viewers parse:
// {"type":"image","data":"...","timestamp":<unix ms>}.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{
		Type:      m.Kind.WireType(),
		Data:      m.Payload,
		ClientID:  string(m.ChannelID),
		Message:   m.Text,
		Timestamp: m.Timestamp.UnixMilli(),
	})
}
