// Package notifications routes inbound push messages: it picks the display
// channel, invalidates the caches the message makes stale and hands the
// message to whoever is listening.
package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Type string

const (
	TypeNewBroadcast     Type = "new_broadcast"
	TypeAssignmentUpdate Type = "assignment_update"
	TypeTripUpdate       Type = "trip_update"
	TypePayment          Type = "payment"
	TypeGeneral          Type = "general"
)

var ErrEmptyMessage = errors.New("empty notification")

type Message struct {
	Type  Type              `json:"type"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Parse decodes a push payload. Unknown or missing types become general.
func Parse(raw []byte) (Message, error) {
	if len(raw) == 0 {
		return Message{}, ErrEmptyMessage
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("decode notification: %w", err)
	}
	m.Type = normalize(m.Type)
	return m, nil
}

func normalize(t Type) Type {
	switch t {
	case TypeNewBroadcast, TypeAssignmentUpdate, TypeTripUpdate, TypePayment, TypeGeneral:
		return t
	default:
		return TypeGeneral
	}
}

type Importance int

const (
	ImportanceLow Importance = iota
	ImportanceDefault
	ImportanceHigh
)

func (i Importance) String() string {
	switch i {
	case ImportanceHigh:
		return "high"
	case ImportanceDefault:
		return "default"
	default:
		return "low"
	}
}

type Channel struct {
	ID         string
	Importance Importance
}

var channels = map[Type]Channel{
	TypeNewBroadcast:     {ID: "broadcasts", Importance: ImportanceHigh},
	TypeAssignmentUpdate: {ID: "assignments", Importance: ImportanceHigh},
	TypeTripUpdate:       {ID: "trips", Importance: ImportanceHigh},
	TypePayment:          {ID: "payments", Importance: ImportanceDefault},
	TypeGeneral:          {ID: "general", Importance: ImportanceLow},
}

// ChannelFor returns the display channel of a message type.
func ChannelFor(t Type) Channel {
	return channels[normalize(t)]
}
