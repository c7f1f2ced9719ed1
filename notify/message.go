package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind selects the template a message is rendered with.
type Kind string

const (
	KindConfirmation  Kind = "confirmation"
	KindPasswordReset Kind = "password_reset"
)

// ErrUnknownKind is returned when a queued message names no known template.
var ErrUnknownKind = errors.New("unknown message kind")

// Message is the queued form of a notification. The token is the only
// secret it carries and is never logged.
type Message struct {
	Kind       Kind      `json:"kind"`
	To         string    `json:"to"`
	Token      string    `json:"token"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Attempts   int       `json:"attempts"`
}

func (m Message) encode() ([]byte, error) {
	return json.Marshal(m)
}

func decodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	switch m.Kind {
	case KindConfirmation, KindPasswordReset:
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	if m.To == "" || m.Token == "" {
		return Message{}, errors.New("decode message: missing recipient or token")
	}
	return m, nil
}

// Mail is a rendered message ready for a Sender.
type Mail struct {
	From    string
	To      string
	Subject string
	HTML    string
}
