package console

import (
	"context"
	"flag"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/assert/v2"

	"github.com/bringyour/dusk/dusk"
)

func init() {
	initGlog()
}

func initGlog() {
	flag.Set("logtostderr", "true")
	flag.Set("stderrthreshold", "INFO")
	flag.Set("v", "0")
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testMessage() *dusk.Message {
	maxValues := 1
	return &dusk.Message{
		Text: dusk.Text("pick"),
		Controls: []*dusk.WireControl{
			{
				Type: dusk.ControlTypeRow,
				Components: []*dusk.WireControl{
					{Type: dusk.ControlTypeButton, CustomId: "0:0.prev", Label: "Prev", Style: dusk.ButtonStylePrimary},
					{Type: dusk.ControlTypeButton, CustomId: "0:1.next", Label: "Next", Style: dusk.ButtonStylePrimary},
					{Type: dusk.ControlTypeButton, Label: "Docs", Style: dusk.ButtonStyleLink, Url: "https://example.com"},
				},
			},
			{
				Type: dusk.ControlTypeRow,
				Components: []*dusk.WireControl{
					{
						Type:      dusk.ControlTypeSelectMenu,
						CustomId:  "1.step",
						MaxValues: &maxValues,
						Options: []*dusk.SelectOption{
							dusk.NewSelectOption("One", "1"),
							dusk.NewSelectOption("Two", "2"),
						},
					},
				},
			},
		},
	}
}

func TestModelTargets(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	correlator := dusk.NewCorrelatorWithDefaults(ctx)
	defer correlator.Close()

	console := NewConsoleWithDefaults(ctx, correlator)
	defer console.Close()

	origin := dusk.NewCommandEvent("counter", "u1")
	messageId, err := console.Create(ctx, origin, testMessage(), dusk.CreateOptions{})
	assert.Equal(t, err, nil)

	model := NewModel(console)
	assert.Equal(t, len(model.targets), 4)
	assert.Equal(t, model.Focused().Label, "Prev")

	model.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, model.Focused().Label, "Next")
	model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	// wraps around
	assert.Equal(t, model.Focused().Label, "Two")

	model.Update(runes("/"))
	assert.Equal(t, model.filtering, true)
	model.Update(runes("ne"))
	// "ne" matches "One" and "Next"
	assert.Equal(t, len(model.visible), 2)
	model.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	model.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, len(model.visible), 4)
	model.Update(runes("one"))
	assert.Equal(t, len(model.visible), 1)
	assert.Equal(t, model.Focused().Label, "One")

	waiter, err := correlator.Register(messageId)
	assert.Equal(t, err, nil)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, model.filtering, false)
	assert.NotEqual(t, cmd, nil)
	msg := cmd()
	assert.Equal(t, msg, statusMsg("One"))

	event, err := waiter.Wait(ctx, time.Second)
	assert.Equal(t, err, nil)
	assert.Equal(t, event.CustomId, "1.step")
	assert.Equal(t, event.Values, []string{"1"})
	assert.Equal(t, event.Token, origin.Token)
	assert.Equal(t, *event.MessageId, messageId)

	// no waiter now
	msg = model.fire()()
	assert.Equal(t, msg, statusMsg("One: no session is waiting on this message"))

	model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, len(model.visible), 4)
	assert.Equal(t, model.Focused().Label, "One")

	view := model.View()
	assert.NotEqual(t, view, "")
}

func TestModelUpdateKeepsPosition(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	correlator := dusk.NewCorrelatorWithDefaults(ctx)
	defer correlator.Close()

	console := NewConsoleWithDefaults(ctx, correlator)
	defer console.Close()

	origin := dusk.NewCommandEvent("counter", "u1")
	messageId, err := console.Create(ctx, origin, testMessage(), dusk.CreateOptions{})
	assert.Equal(t, err, nil)

	model := NewModel(console)
	model.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, model.Focused().Label, "Next")

	// a new revision with new control ids
	message := testMessage()
	message.Text = nil
	message.Controls[0].Components[0].CustomId = "0:0.a"
	message.Controls[0].Components[1].CustomId = "0:1.b"
	_, err = console.Update(ctx, origin, messageId, message)
	assert.Equal(t, err, nil)

	model.Update(messagesMsg{})
	assert.Equal(t, model.Focused().Label, "Next")
	assert.Equal(t, model.Focused().CustomId, "0:1.b")

	messages := console.Messages()
	assert.Equal(t, len(messages), 1)
	assert.Equal(t, messages[0].Revision, 1)
	// unchanged text is kept
	assert.Equal(t, messages[0].Text, "pick")

	_, err = console.Update(ctx, origin, dusk.NewId(), message)
	assert.NotEqual(t, err, nil)
}

func TestModelMaxMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	correlator := dusk.NewCorrelatorWithDefaults(ctx)
	defer correlator.Close()

	settings := DefaultConsoleSettings()
	settings.MaxMessages = 2
	console := NewConsole(ctx, correlator, settings)
	defer console.Close()

	messageIds := []dusk.Id{}
	for range 3 {
		messageId, err := console.Create(ctx, dusk.NewCommandEvent("counter", "u1"), testMessage(), dusk.CreateOptions{})
		assert.Equal(t, err, nil)
		messageIds = append(messageIds, messageId)
	}

	messages := console.Messages()
	assert.Equal(t, len(messages), 2)
	assert.Equal(t, messages[0].MessageId, messageIds[1])
	assert.Equal(t, messages[1].MessageId, messageIds[2])

	// the newest message takes focus
	model := NewModel(console)
	assert.Equal(t, model.Focused().MessageId, messageIds[2])
}

func TestModelCommandAndQuit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	correlator := dusk.NewCorrelatorWithDefaults(ctx)
	defer correlator.Close()

	console := NewConsoleWithDefaults(ctx, correlator)
	defer console.Close()

	commands := make(chan *dusk.Event, 1)
	remove := console.AddCommandCallback(func(event *dusk.Event) {
		commands <- event
	})
	defer remove()

	model := NewModel(console)
	assert.Equal(t, model.Focused(), nil)
	// nothing to fire
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, cmd, nil)

	model.Update(runes("n"))
	select {
	case event := <-commands:
		assert.Equal(t, event.Name, "counter")
		assert.Equal(t, event.Kind, dusk.EventKindCommand)
	case <-ctx.Done():
		t.Fatal("timeout waiting for command")
	}

	_, cmd = model.Update(runes("q"))
	assert.Equal(t, cmd(), tea.QuitMsg{})
}

func TestConsoleSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	correlator := dusk.NewCorrelatorWithDefaults(ctx)
	defer correlator.Close()

	console := NewConsoleWithDefaults(ctx, correlator)
	defer console.Close()

	origin := dusk.NewCommandEvent("counter", "u1")
	text := func(state int) *string {
		return dusk.Text(fmt.Sprintf("count %d", state))
	}
	window := func(state int) *dusk.Window[int] {
		return dusk.NewWindow[int](
			dusk.NewRow[int](
				dusk.NewButton[int]("Next").OnClick(func(ctx context.Context, event *dusk.Event, session *dusk.SessionContext, state int) (int, error) {
					return state + 1, nil
				}),
				dusk.NewButton[int]("Done").OnClick(func(ctx context.Context, event *dusk.Event, session *dusk.SessionContext, state int) (int, error) {
					session.Finish()
					return state, nil
				}),
			),
		)
	}
	session := dusk.NewSessionWithDefaults(correlator, console, origin, text, window)

	type result struct {
		state int
		err   error
	}
	results := make(chan result, 1)
	go func() {
		state, err := session.Run(ctx, 0)
		results <- result{state, err}
	}()

	model := NewModel(console)
	awaitText := func(text string) {
		for {
			model.Update(messagesMsg{})
			if 0 < len(model.messages) && model.messages[0].Text == text {
				return
			}
			select {
			case <-ctx.Done():
				t.Fatalf("timeout waiting for %q", text)
			case <-time.After(time.Millisecond):
			}
		}
	}
	// the session registers after the publish returns, so retry until matched
	activate := func(label string) {
		for {
			model.Update(messagesMsg{})
			model.setFilter(label)
			assert.Equal(t, model.Focused().Label, label)
			if model.fire()() == statusMsg(label) {
				return
			}
			select {
			case <-ctx.Done():
				t.Fatalf("timeout activating %q", label)
			case <-time.After(time.Millisecond):
			}
		}
	}

	awaitText("count 0")
	activate("Next")
	awaitText("count 1")
	activate("Next")
	awaitText("count 2")
	activate("Done")

	select {
	case r := <-results:
		assert.Equal(t, r.err, nil)
		assert.Equal(t, r.state, 2)
	case <-ctx.Done():
		t.Fatal("timeout waiting for session")
	}
}
