package dusk

import (
	"fmt"
)

type EventKind string

const (
	// a user invoked a command. Commands start new sessions.
	EventKindCommand EventKind = "command"
	// a user activated a control on a previously published message
	EventKindComponent EventKind = "component"
)

// inbound event from the messaging service
type Event struct {
	Id   Id        `json:"id"`
	Kind EventKind `json:"kind"`
	// the token authorizes responses and follow up edits for this event
	Token string `json:"token"`
	// set for component events. The message the activated control belongs to.
	MessageId *Id `json:"message_id,omitempty"`
	// fully-qualified id of the activated control
	CustomId string `json:"custom_id,omitempty"`
	// selected option values for select menus
	Values []string `json:"values,omitempty"`
	UserId string   `json:"user_id,omitempty"`
	// command name for command events
	Name string `json:"name,omitempty"`
}

func NewCommandEvent(name string, userId string) *Event {
	return &Event{
		Id:     NewId(),
		Kind:   EventKindCommand,
		Token:  NewId().String(),
		Name:   name,
		UserId: userId,
	}
}

func NewComponentEvent(origin *Event, messageId Id, customId string, values ...string) *Event {
	event := &Event{
		Id:        NewId(),
		Kind:      EventKindComponent,
		MessageId: &messageId,
		CustomId:  customId,
		Values:    values,
	}
	if origin != nil {
		event.Token = origin.Token
		event.UserId = origin.UserId
	}
	return event
}

func (self *Event) IsComponent() bool {
	return self.Kind == EventKindComponent && self.MessageId != nil
}

func (self *Event) String() string {
	switch self.Kind {
	case EventKindComponent:
		if self.MessageId != nil {
			return fmt.Sprintf("component(%s) m(%s) %s", self.Id, *self.MessageId, self.CustomId)
		}
		return fmt.Sprintf("component(%s) %s", self.Id, self.CustomId)
	case EventKindCommand:
		return fmt.Sprintf("command(%s) %s", self.Id, self.Name)
	default:
		return fmt.Sprintf("%s(%s)", self.Kind, self.Id)
	}
}
