package dusk

import (
	"fmt"
)

// the root of the tree produced by one render pass
type Window[S any] struct {
	children []TopLevel[S]
}

func NewWindow[S any](children ...TopLevel[S]) *Window[S] {
	return &Window[S]{
		children: children,
	}
}

func (self *Window[S]) Add(child TopLevel[S]) *Window[S] {
	self.children = append(self.children, child)
	return self
}

func (self *Window[S]) Len() int {
	return len(self.children)
}

// Lowers all children under `scope`, populating `bindings`.
// The window consumes the handlers of its tree. Each render pass builds a new window.
func (self *Window[S]) Lower(scope Scope, bindings *BindingTable[S]) ([]*WireControl, error) {
	if err := scope.Err(); err != nil {
		return nil, err
	}
	if MaxWindowRows < len(self.children) {
		return nil, fmt.Errorf("%w: window has %d rows (max %d)", ErrInvalidComponent, len(self.children), MaxWindowRows)
	}
	controls := make([]*WireControl, 0, len(self.children))
	for i, child := range self.children {
		if isNilComponent[S](child) {
			return nil, fmt.Errorf("%w: window child %d is nil", ErrInvalidComponent, i)
		}
		control, err := child.lower(scope.Sub(i), bindings)
		if err != nil {
			return nil, err
		}
		controls = append(controls, control)
	}
	return controls, nil
}
