package main

import (
	"context"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/bringyour/dusk/dusk"
)

func TestCounterWindow(t *testing.T) {
	ctx := context.Background()

	state := counterState{step: 1}
	bindings := dusk.NewBindingTable[counterState]()
	controls, err := counterWindow(state).Lower(dusk.RootScope(""), bindings)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(controls), 3)
	// three buttons, peek, done and the step menu
	assert.Equal(t, len(bindings.BoundIds()), 6)

	// reset is disabled at zero
	assert.Equal(t, controls[0].Components[2].Disabled, true)

	step, ok := bindings.Resolve("2.step")
	assert.Equal(t, ok, true)
	event := dusk.NewComponentEvent(nil, dusk.NewId(), "2.step", "5")
	state, err = step(ctx, event, dusk.NewSessionContext(), state)
	assert.Equal(t, err, nil)
	assert.Equal(t, state.step, 5)

	increment, ok := bindings.Resolve(controls[0].Components[1].CustomId)
	assert.Equal(t, ok, true)
	state, err = increment(ctx, event, dusk.NewSessionContext(), state)
	assert.Equal(t, err, nil)
	assert.Equal(t, state.count, 5)

	sessionCtx := dusk.NewSessionContext()
	done, ok := bindings.Resolve("1:1.done")
	assert.Equal(t, ok, true)
	_, err = done(ctx, event, sessionCtx, state)
	assert.Equal(t, err, nil)
	assert.Equal(t, sessionCtx.IsFinished(), true)

	assert.Equal(t, *counterText(state), "Count: 5 (step 5)")
}
