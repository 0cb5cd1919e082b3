package dusk

import (
	"fmt"
)

type Button[S any] struct {
	Id       string
	Label    string
	Style    ButtonStyle
	Emoji    *Emoji
	Url      string
	Disabled bool

	onClick Handler[S]
}

func NewButton[S any](label string) *Button[S] {
	return NewButtonWithId[S](RandomControlId(), label)
}

// a stable id keeps the control addressable across sessions and renders
func NewButtonWithId[S any](id string, label string) *Button[S] {
	return &Button[S]{
		Id:    id,
		Label: label,
		Style: ButtonStylePrimary,
	}
}

// a link button opens `url` and never produces events
func NewLinkButton[S any](label string, url string) *Button[S] {
	return &Button[S]{
		Label: label,
		Style: ButtonStyleLink,
		Url:   url,
	}
}

func (self *Button[S]) WithStyle(style ButtonStyle) *Button[S] {
	self.Style = style
	return self
}

func (self *Button[S]) WithEmoji(emoji *Emoji) *Button[S] {
	self.Emoji = emoji
	return self
}

func (self *Button[S]) SetDisabled(disabled bool) *Button[S] {
	self.Disabled = disabled
	return self
}

func (self *Button[S]) OnClick(handler Handler[S]) *Button[S] {
	self.onClick = handler
	return self
}

func (self *Button[S]) HasHandler() bool {
	return self.onClick != nil
}

func (self *Button[S]) lower(scope Scope, bindings *BindingTable[S]) (*WireControl, error) {
	if self.Style == ButtonStyleLink {
		if self.onClick != nil {
			return nil, fmt.Errorf("%w: link button %q cannot have a handler", ErrInvalidComponent, self.Label)
		}
		if self.Url == "" {
			return nil, fmt.Errorf("%w: link button %q has no url", ErrInvalidComponent, self.Label)
		}
		return &WireControl{
			Type:     ControlTypeButton,
			Label:    self.Label,
			Style:    self.Style,
			Emoji:    self.Emoji,
			Url:      self.Url,
			Disabled: self.Disabled,
		}, nil
	}

	customId, err := scope.Qualify(self.Id)
	if err != nil {
		return nil, err
	}
	if err := bind(bindings, customId, &self.onClick); err != nil {
		return nil, err
	}
	return &WireControl{
		Type:     ControlTypeButton,
		CustomId: customId,
		Label:    self.Label,
		Style:    self.Style,
		Emoji:    self.Emoji,
		Disabled: self.Disabled,
	}, nil
}

func (self *Button[S]) rowChild() {}
