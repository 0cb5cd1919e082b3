package dusk

import (
	mathrand "math/rand"
)

const randomControlIdLength = 7

const controlIdAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// A node in the tree of controls produced by one render pass.
// The set of variants is closed: Button, SelectMenu, Row, ButtonRow, Window.
type Component[S any] interface {
	// lowers the node into its wire control. Handlers owned by the node are
	// moved into `bindings` under their fully-qualified ids.
	lower(scope Scope, bindings *BindingTable[S]) (*WireControl, error)
}

// a leaf control that can be placed in a row
type Control[S any] interface {
	Component[S]
	rowChild()
}

// a component that can be placed directly in a window
type TopLevel[S any] interface {
	Component[S]
	topLevel()
}

// generated ids are fixed when the control is constructed
func RandomControlId() string {
	b := make([]byte, randomControlIdLength)
	for i := range b {
		b[i] = controlIdAlphabet[mathrand.Intn(len(controlIdAlphabet))]
	}
	return string(b)
}

// moves the handler into the binding table under `customId`
func bind[S any](bindings *BindingTable[S], customId string, handler *Handler[S]) error {
	h := *handler
	*handler = nil
	return bindings.Insert(customId, h)
}

// reports an unset child, including a typed nil node
func isNilComponent[S any](component Component[S]) bool {
	switch v := component.(type) {
	case nil:
		return true
	case *Button[S]:
		return v == nil
	case *SelectMenu[S]:
		return v == nil
	case *Row[S]:
		return v == nil
	case *ButtonRow[S]:
		return v == nil
	default:
		return false
	}
}
