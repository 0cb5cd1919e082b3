package dusk

import (
	"fmt"
)

type Row[S any] struct {
	children []Control[S]
}

func NewRow[S any](children ...Control[S]) *Row[S] {
	return &Row[S]{
		children: children,
	}
}

func (self *Row[S]) Add(child Control[S]) *Row[S] {
	self.children = append(self.children, child)
	return self
}

func (self *Row[S]) Len() int {
	return len(self.children)
}

func (self *Row[S]) lower(scope Scope, bindings *BindingTable[S]) (*WireControl, error) {
	if MaxRowWidth < len(self.children) {
		return nil, fmt.Errorf("%w: row %s has %d children (max %d)", ErrInvalidComponent, scope, len(self.children), MaxRowWidth)
	}
	components := make([]*WireControl, 0, len(self.children))
	for i, child := range self.children {
		if isNilComponent[S](child) {
			return nil, fmt.Errorf("%w: row %s child %d is nil", ErrInvalidComponent, scope, i)
		}
		component, err := child.lower(scope.Sub(i), bindings)
		if err != nil {
			return nil, err
		}
		components = append(components, component)
	}
	return &WireControl{
		Type:       ControlTypeRow,
		Components: components,
	}, nil
}

func (self *Row[S]) topLevel() {}

// a row of at most `arity` buttons. Lowers the same as `Row`.
type ButtonRow[S any] struct {
	row   *Row[S]
	arity int
}

func NewButtonRow[S any](arity int, buttons ...*Button[S]) *ButtonRow[S] {
	buttonRow := &ButtonRow[S]{
		row:   NewRow[S](),
		arity: arity,
	}
	for _, button := range buttons {
		buttonRow.Add(button)
	}
	return buttonRow
}

// adding past the arity is reported when the row is lowered
func (self *ButtonRow[S]) Add(button *Button[S]) *ButtonRow[S] {
	self.row.Add(button)
	return self
}

func (self *ButtonRow[S]) Full() bool {
	return self.arity <= self.row.Len()
}

func (self *ButtonRow[S]) lower(scope Scope, bindings *BindingTable[S]) (*WireControl, error) {
	if self.arity < 1 || MaxRowWidth < self.arity {
		return nil, fmt.Errorf("%w: button row arity %d out of range [1, %d]", ErrInvalidComponent, self.arity, MaxRowWidth)
	}
	if self.arity < self.row.Len() {
		return nil, fmt.Errorf("%w: button row %s has %d buttons (arity %d)", ErrInvalidComponent, scope, self.row.Len(), self.arity)
	}
	return self.row.lower(scope, bindings)
}

func (self *ButtonRow[S]) topLevel() {}
