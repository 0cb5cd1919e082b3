package dusk

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const scopeDelimiter = ":"
const controlDelimiter = "."

// transforms the session state in response to one event
type Handler[S any] func(ctx context.Context, event *Event, session *SessionContext, state S) (S, error)

// path of scope segments from the session root to a container
type Scope struct {
	prefix string
	// set when the session scope is invalid. Reported by `Err` and `Qualify`.
	err error
}

// An empty `sessionScope` omits the root segment. A non-empty one must not
// contain a delimiter, since qualified ids from different positions could collide.
func RootScope(sessionScope string) Scope {
	var err error
	if strings.Contains(sessionScope, scopeDelimiter) || strings.Contains(sessionScope, controlDelimiter) {
		err = fmt.Errorf("%w: session scope %q contains a scope delimiter", ErrInvalidComponent, sessionScope)
	}
	return Scope{
		prefix: sessionScope,
		err:    err,
	}
}

func (self Scope) Sub(segment any) Scope {
	if self.prefix == "" {
		return Scope{
			prefix: fmt.Sprint(segment),
			err:    self.err,
		}
	}
	return Scope{
		prefix: fmt.Sprintf("%s%s%v", self.prefix, scopeDelimiter, segment),
		err:    self.err,
	}
}

func (self Scope) Err() error {
	return self.err
}

// fully-qualified id of a control with `id` in this scope
func (self Scope) Qualify(id string) (string, error) {
	if self.err != nil {
		return "", self.err
	}
	if err := validateControlId(id); err != nil {
		return "", err
	}
	customId := self.prefix + controlDelimiter + id
	if MaxCustomIdLength < len(customId) {
		return "", fmt.Errorf("%w: %s (%d > %d)", ErrIdTooLong, customId, len(customId), MaxCustomIdLength)
	}
	return customId, nil
}

func (self Scope) String() string {
	return self.prefix
}

func validateControlId(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty control id", ErrInvalidComponent)
	}
	if strings.Contains(id, scopeDelimiter) || strings.Contains(id, controlDelimiter) {
		return fmt.Errorf("%w: control id %q contains a scope delimiter", ErrInvalidComponent, id)
	}
	return nil
}

// fully-qualified id -> handler, for one render pass.
// Owned by a single session loop and not safe for concurrent use.
type BindingTable[S any] struct {
	// a nil handler claims the id without binding it
	bindings map[string]Handler[S]
}

func NewBindingTable[S any]() *BindingTable[S] {
	return &BindingTable[S]{
		bindings: map[string]Handler[S]{},
	}
}

// drops all entries. Called at the start of each render pass.
func (self *BindingTable[S]) Clear() {
	clear(self.bindings)
}

// returns `ErrDuplicateId` if the id was already inserted in this pass.
// The existing entry is kept.
func (self *BindingTable[S]) Insert(customId string, handler Handler[S]) error {
	if _, ok := self.bindings[customId]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateId, customId)
	}
	self.bindings[customId] = handler
	return nil
}

// entries are not removed on resolve
func (self *BindingTable[S]) Resolve(customId string) (Handler[S], bool) {
	handler, ok := self.bindings[customId]
	if !ok || handler == nil {
		return nil, false
	}
	return handler, true
}

// all claimed ids in this pass, sorted
func (self *BindingTable[S]) Ids() []string {
	customIds := maps.Keys(self.bindings)
	slices.Sort(customIds)
	return customIds
}

// ids with a bound handler, sorted
func (self *BindingTable[S]) BoundIds() []string {
	customIds := []string{}
	for customId, handler := range self.bindings {
		if handler != nil {
			customIds = append(customIds, customId)
		}
	}
	slices.Sort(customIds)
	return customIds
}

func (self *BindingTable[S]) Len() int {
	return len(self.bindings)
}
