package dusk

import (
	"fmt"
)

// A select menu occupies a row by itself, so it is placed directly in a window.
type SelectMenu[S any] struct {
	Id          string
	Placeholder string
	Options     []*SelectOption
	MinValues   *int
	MaxValues   *int
	Disabled    bool

	onChange Handler[S]
}

func NewSelectMenu[S any]() *SelectMenu[S] {
	return &SelectMenu[S]{
		Id:      RandomControlId(),
		Options: []*SelectOption{},
	}
}

func (self *SelectMenu[S]) WithId(id string) *SelectMenu[S] {
	self.Id = id
	return self
}

func (self *SelectMenu[S]) WithPlaceholder(placeholder string) *SelectMenu[S] {
	self.Placeholder = placeholder
	return self
}

func (self *SelectMenu[S]) WithOptions(options ...*SelectOption) *SelectMenu[S] {
	self.Options = append(self.Options, options...)
	return self
}

func (self *SelectMenu[S]) WithMinValues(minValues int) *SelectMenu[S] {
	self.MinValues = &minValues
	return self
}

func (self *SelectMenu[S]) WithMaxValues(maxValues int) *SelectMenu[S] {
	self.MaxValues = &maxValues
	return self
}

func (self *SelectMenu[S]) SetDisabled(disabled bool) *SelectMenu[S] {
	self.Disabled = disabled
	return self
}

// the handler reads the selected values from `event.Values`
func (self *SelectMenu[S]) OnChange(handler Handler[S]) *SelectMenu[S] {
	self.onChange = handler
	return self
}

func (self *SelectMenu[S]) lower(scope Scope, bindings *BindingTable[S]) (*WireControl, error) {
	if len(self.Options) == 0 {
		return nil, fmt.Errorf("%w: select menu %q has no options", ErrInvalidComponent, self.Id)
	}
	if self.MinValues != nil && self.MaxValues != nil && *self.MaxValues < *self.MinValues {
		return nil, fmt.Errorf("%w: select menu %q max values %d < min values %d", ErrInvalidComponent, self.Id, *self.MaxValues, *self.MinValues)
	}

	customId, err := scope.Qualify(self.Id)
	if err != nil {
		return nil, err
	}
	if err := bind(bindings, customId, &self.onChange); err != nil {
		return nil, err
	}
	menu := &WireControl{
		Type:        ControlTypeSelectMenu,
		CustomId:    customId,
		Options:     self.Options,
		Placeholder: self.Placeholder,
		MinValues:   self.MinValues,
		MaxValues:   self.MaxValues,
		Disabled:    self.Disabled,
	}
	return &WireControl{
		Type:       ControlTypeRow,
		Components: []*WireControl{menu},
	}, nil
}

func (self *SelectMenu[S]) topLevel() {}
