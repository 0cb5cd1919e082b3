package dusk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
)

// session states: rendering -> publishing -> awaiting -> dispatching -> rendering ...
// The session closes when a handler calls `SessionContext.Finish`.

type TimeoutPolicy int

const (
	// an expired wait closes the session
	TimeoutPolicyClose TimeoutPolicy = iota
	// an expired wait forces a new render pass
	TimeoutPolicyRerender
)

type SessionSettings struct {
	// root scope segment of every control id. Empty omits the segment.
	Scope     string
	Ephemeral bool
	Deferred  bool
	// `WaitTimeout < 0` waits for an event without a deadline
	WaitTimeout   time.Duration
	TimeoutPolicy TimeoutPolicy
}

func DefaultSessionSettings() *SessionSettings {
	return &SessionSettings{
		Scope:         "",
		Ephemeral:     false,
		Deferred:      true,
		WaitTimeout:   -1,
		TimeoutPolicy: TimeoutPolicyClose,
	}
}

// returns nil to leave the text unchanged
type TextFunction[S any] func(state S) *string

type WindowFunction[S any] func(state S) *Window[S]

type Session[S any] struct {
	correlator *Correlator
	publisher  Publisher
	// the command event the session responds to
	origin *Event

	renderText   TextFunction[S]
	renderWindow WindowFunction[S]

	settings *SessionSettings
}

func NewSessionWithDefaults[S any](
	correlator *Correlator,
	publisher Publisher,
	origin *Event,
	renderText TextFunction[S],
	renderWindow WindowFunction[S],
) *Session[S] {
	return NewSession(correlator, publisher, origin, renderText, renderWindow, DefaultSessionSettings())
}

func NewSession[S any](
	correlator *Correlator,
	publisher Publisher,
	origin *Event,
	renderText TextFunction[S],
	renderWindow WindowFunction[S],
	settings *SessionSettings,
) *Session[S] {
	return &Session[S]{
		correlator:   correlator,
		publisher:    publisher,
		origin:       origin,
		renderText:   renderText,
		renderWindow: renderWindow,
		settings:     settings,
	}
}

// state of one session run
type sessionRun[S any] struct {
	sessionCtx *SessionContext
	bindings   *BindingTable[S]

	published bool
	messageId Id
	textSent  bool
	lastText  string

	waiter *Waiter
}

// Runs the session loop until a handler finishes the session.
// Returns the final state. Construction, transport and wait errors end the
// session and are returned with the last state.
func (self *Session[S]) Run(ctx context.Context, state S) (S, error) {
	run := &sessionRun[S]{
		sessionCtx: NewSessionContext(),
		bindings:   NewBindingTable[S](),
	}
	defer func() {
		if run.waiter != nil {
			run.waiter.Discard()
		}
	}()

	glog.V(1).Infof("[session]start %s\n", self.origin)

	for !run.sessionCtx.IsFinished() {
		// the slot for the previous revision must not be fulfilled after this point
		if run.waiter != nil {
			run.waiter.Discard()
			run.waiter = nil
		}

		suppress := run.sessionCtx.takeSuppressNextRender()
		if !suppress || !run.published {
			if err := self.render(ctx, run, state); err != nil {
				glog.Infof("[session]%s render error = %s\n", self.origin, err)
				return state, err
			}
		} else {
			glog.V(2).Infof("[session]%s suppress render m(%s)\n", self.origin, run.messageId)
		}

		waiter, err := self.correlator.Register(run.messageId)
		if err != nil {
			return state, err
		}
		run.waiter = waiter

		event, err := waiter.Wait(ctx, self.settings.WaitTimeout)
		run.waiter = nil
		if errors.Is(err, ErrWaitTimeout) {
			switch self.settings.TimeoutPolicy {
			case TimeoutPolicyRerender:
				glog.V(2).Infof("[session]%s wait timeout, rerender\n", self.origin)
				continue
			default:
				glog.V(1).Infof("[session]%s wait timeout, close\n", self.origin)
				return state, nil
			}
		}
		if err != nil {
			glog.Infof("[session]%s wait error = %s\n", self.origin, err)
			return state, err
		}

		state, err = self.dispatch(ctx, run, event, state)
		if err != nil {
			glog.Infof("[session]%s handler error = %s\n", self.origin, err)
			return state, err
		}
	}

	glog.V(1).Infof("[session]close %s\n", self.origin)
	return state, nil
}

// renders the state and publishes the result
func (self *Session[S]) render(ctx context.Context, run *sessionRun[S], state S) error {
	text := self.renderText(state)
	window := self.renderWindow(state)
	if window == nil {
		window = NewWindow[S]()
	}

	run.bindings.Clear()
	controls, err := window.Lower(RootScope(self.settings.Scope), run.bindings)
	if err != nil {
		return err
	}

	message := &Message{
		Controls: controls,
	}
	// unchanged text is not re-sent
	if text != nil && (!run.textSent || *text != run.lastText) {
		message.Text = text
	}

	publish := func() (Id, error) {
		if !run.published {
			messageId, err := self.publisher.Create(ctx, self.origin, message, CreateOptions{
				Ephemeral: self.settings.Ephemeral,
				Deferred:  self.settings.Deferred,
			})
			if err != nil {
				return messageId, fmt.Errorf("create message: %w", err)
			}
			return messageId, nil
		}
		messageId, err := self.publisher.Update(ctx, self.origin, run.messageId, message)
		if err != nil {
			return messageId, fmt.Errorf("update message: %w", err)
		}
		return messageId, nil
	}

	var messageId Id
	if glog.V(2) {
		messageId, err = TraceWithReturnError(fmt.Sprintf("[session]publish %s", self.origin), publish)
	} else {
		messageId, err = publish()
	}
	if err != nil {
		return err
	}

	run.published = true
	run.messageId = messageId
	if message.Text != nil {
		run.textSent = true
		run.lastText = *message.Text
	}
	return nil
}

// resolves the activated control and runs its handler.
// Stale or foreign ids leave the state unchanged.
func (self *Session[S]) dispatch(ctx context.Context, run *sessionRun[S], event *Event, state S) (S, error) {
	handler, ok := run.bindings.Resolve(event.CustomId)
	if !ok {
		glog.V(2).Infof("[session]%s no handler for %s\n", self.origin, event.CustomId)
		return state, nil
	}

	nextState := state
	var handlerErr error
	HandleError(func() {
		nextState, handlerErr = handler(ctx, event, run.sessionCtx, state)
	}, func(err error) {
		nextState = state
		handlerErr = fmt.Errorf("%w: %s: %s", ErrHandlerPanic, event.CustomId, err)
	})
	return nextState, handlerErr
}
