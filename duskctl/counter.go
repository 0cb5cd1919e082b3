package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang/glog"

	"github.com/bringyour/dusk/dusk"
)

// demo session: a counter with a selectable step

type counterState struct {
	count int
	step  int
	// peeks do not render
	peeks int
}

func runCounter(
	ctx context.Context,
	correlator *dusk.Correlator,
	publisher dusk.Publisher,
	origin *dusk.Event,
	settings *dusk.SessionSettings,
) {
	session := dusk.NewSession(correlator, publisher, origin, counterText, counterWindow, settings)
	state, err := session.Run(ctx, counterState{step: 1})
	if err != nil {
		glog.Infof("[duskctl]counter %s error = %s\n", origin, err)
		return
	}
	glog.V(1).Infof("[duskctl]counter %s closed count=%d peeks=%d\n", origin, state.count, state.peeks)
}

func counterText(state counterState) *string {
	return dusk.Text(fmt.Sprintf("Count: %d (step %d)", state.count, state.step))
}

func counterWindow(state counterState) *dusk.Window[counterState] {
	decrement := dusk.NewButton[counterState]("-").
		WithStyle(dusk.ButtonStyleSecondary).
		OnClick(func(ctx context.Context, event *dusk.Event, session *dusk.SessionContext, state counterState) (counterState, error) {
			state.count -= state.step
			return state, nil
		})
	increment := dusk.NewButton[counterState]("+").
		OnClick(func(ctx context.Context, event *dusk.Event, session *dusk.SessionContext, state counterState) (counterState, error) {
			state.count += state.step
			return state, nil
		})
	reset := dusk.NewButton[counterState]("reset").
		WithStyle(dusk.ButtonStyleDanger).
		SetDisabled(state.count == 0).
		OnClick(func(ctx context.Context, event *dusk.Event, session *dusk.SessionContext, state counterState) (counterState, error) {
			state.count = 0
			return state, nil
		})
	peek := dusk.NewButton[counterState]("peek").
		WithStyle(dusk.ButtonStyleSecondary).
		OnClick(func(ctx context.Context, event *dusk.Event, session *dusk.SessionContext, state counterState) (counterState, error) {
			session.SuppressNextRender()
			state.peeks += 1
			return state, nil
		})
	done := dusk.NewButtonWithId[counterState]("done", "done").
		WithStyle(dusk.ButtonStyleSuccess).
		OnClick(func(ctx context.Context, event *dusk.Event, session *dusk.SessionContext, state counterState) (counterState, error) {
			session.Finish()
			return state, nil
		})

	stepMenu := dusk.NewSelectMenu[counterState]().
		WithId("step").
		WithPlaceholder("step").
		OnChange(func(ctx context.Context, event *dusk.Event, session *dusk.SessionContext, state counterState) (counterState, error) {
			if len(event.Values) == 0 {
				return state, nil
			}
			step, err := strconv.Atoi(event.Values[0])
			if err != nil {
				return state, err
			}
			state.step = step
			return state, nil
		})
	for _, step := range []int{1, 5, 10} {
		stepMenu.WithOptions(
			dusk.NewSelectOption(fmt.Sprintf("step %d", step), strconv.Itoa(step)).SetDefault(step == state.step),
		)
	}

	return dusk.NewWindow[counterState](
		dusk.NewButtonRow[counterState](3, decrement, increment, reset),
		dusk.NewRow[counterState](peek, done),
		stepMenu,
	)
}
