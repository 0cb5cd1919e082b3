package dusk

import (
	"context"
)

// the message as seen by the user
type Message struct {
	// nil means leave the text unchanged
	Text     *string        `json:"content,omitempty"`
	Controls []*WireControl `json:"components"`
}

type CreateOptions struct {
	// only the invoking user sees the message
	Ephemeral bool
	// respond to the origin event with a deferred response, then edit it into the message
	Deferred bool
}

// outbound side of the messaging service
type Publisher interface {
	// creates the response message for the origin event
	Create(ctx context.Context, origin *Event, message *Message, options CreateOptions) (Id, error)
	Update(ctx context.Context, origin *Event, messageId Id, message *Message) (Id, error)
}

// acknowledges a matched component event before it is handed to its session
type Acknowledger interface {
	AckDeferred(ctx context.Context, event *Event) error
}

type noopAcknowledger struct{}

func (noopAcknowledger) AckDeferred(ctx context.Context, event *Event) error {
	return nil
}

func NewNoopAcknowledger() Acknowledger {
	return noopAcknowledger{}
}

func Text(text string) *string {
	return &text
}
