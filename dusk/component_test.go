package dusk

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestRandomControlId(t *testing.T) {
	n := 1024
	ids := map[string]bool{}
	for range n {
		id := RandomControlId()
		assert.Equal(t, len(id), randomControlIdLength)
		assert.Equal(t, validateControlId(id), nil)
		ids[id] = true
	}
	assert.Equal(t, len(ids), n)
}

func TestLowerWindow(t *testing.T) {
	window := NewWindow[int](
		NewRow[int](
			NewButtonWithId[int]("prev", "Prev").OnClick(incrementHandler),
			NewButtonWithId[int]("next", "Next").OnClick(incrementHandler),
			NewLinkButton[int]("Docs", "https://example.com/docs"),
		),
		NewSelectMenu[int]().WithId("step").WithOptions(
			NewSelectOption("One", "1"),
			NewSelectOption("Two", "2").SetDefault(true),
		).OnChange(incrementHandler),
	)

	bindings := NewBindingTable[int]()
	controls, err := window.Lower(RootScope(""), bindings)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(controls), 2)

	assert.Equal(t, controls[0].Type, ControlTypeRow)
	assert.Equal(t, len(controls[0].Components), 3)
	assert.Equal(t, controls[0].Components[0].CustomId, "0:0.prev")
	assert.Equal(t, controls[0].Components[1].CustomId, "0:1.next")
	// link buttons have no id
	assert.Equal(t, controls[0].Components[2].CustomId, "")
	assert.Equal(t, controls[0].Components[2].Url, "https://example.com/docs")

	// a select menu is wrapped in its own row
	assert.Equal(t, controls[1].Type, ControlTypeRow)
	assert.Equal(t, len(controls[1].Components), 1)
	assert.Equal(t, controls[1].Components[0].Type, ControlTypeSelectMenu)
	assert.Equal(t, controls[1].Components[0].CustomId, "1.step")

	assert.Equal(t, CustomIds(controls), []string{"0:0.prev", "0:1.next", "1.step"})
	assert.Equal(t, bindings.BoundIds(), []string{"0:0.prev", "0:1.next", "1.step"})
}

func TestLowerDistinctIdsAcrossContainers(t *testing.T) {
	// the same local id in different containers is distinct
	window := NewWindow[int](
		NewRow[int](NewButtonWithId[int]("a", "A").OnClick(incrementHandler)),
		NewRow[int](NewButtonWithId[int]("a", "A").OnClick(incrementHandler)),
	)
	bindings := NewBindingTable[int]()
	controls, err := window.Lower(RootScope("s"), bindings)
	assert.Equal(t, err, nil)
	assert.Equal(t, CustomIds(controls), []string{"s:0:0.a", "s:1:0.a"})
}

func TestLowerDuplicateId(t *testing.T) {
	// positional scopes keep ids distinct within one window,
	// so a duplicate comes from an id already claimed in the pass
	bindings := NewBindingTable[int]()
	err := bindings.Insert("0:0.b", nil)
	assert.Equal(t, err, nil)
	window := NewWindow[int](NewRow[int](NewButtonWithId[int]("b", "B")))
	_, err = window.Lower(RootScope(""), bindings)
	assert.Equal(t, errors.Is(err, ErrDuplicateId), true)
}

func TestLowerCapacity(t *testing.T) {
	row := NewRow[int]()
	for range MaxRowWidth + 1 {
		row.Add(NewButton[int]("x"))
	}
	_, err := NewWindow[int](row).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)

	window := NewWindow[int]()
	for range MaxWindowRows + 1 {
		window.Add(NewRow[int](NewButton[int]("x")))
	}
	_, err = window.Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)

	window = NewWindow[int]()
	for range MaxWindowRows {
		window.Add(NewRow[int](NewButton[int]("x")))
	}
	controls, err := window.Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, err, nil)
	assert.Equal(t, len(controls), MaxWindowRows)
}

func TestButtonRow(t *testing.T) {
	buttonRow := NewButtonRow[int](2, NewButton[int]("a"))
	assert.Equal(t, buttonRow.Full(), false)
	buttonRow.Add(NewButton[int]("b"))
	assert.Equal(t, buttonRow.Full(), true)

	controls, err := NewWindow[int](buttonRow).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, err, nil)
	assert.Equal(t, len(controls[0].Components), 2)

	buttonRow.Add(NewButton[int]("c"))
	_, err = NewWindow[int](buttonRow).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)

	_, err = NewWindow[int](NewButtonRow[int](MaxRowWidth+1)).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)
	_, err = NewWindow[int](NewButtonRow[int](0)).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)
}

func TestLowerConsumesHandlers(t *testing.T) {
	button := NewButtonWithId[int]("a", "A").OnClick(incrementHandler)
	assert.Equal(t, button.HasHandler(), true)

	bindings := NewBindingTable[int]()
	_, err := NewWindow[int](NewRow[int](button)).Lower(RootScope(""), bindings)
	assert.Equal(t, err, nil)
	assert.Equal(t, button.HasHandler(), false)

	_, ok := bindings.Resolve("0:0.a")
	assert.Equal(t, ok, true)
}

func TestLowerInvalidControls(t *testing.T) {
	// link buttons cannot have a handler
	link := NewLinkButton[int]("Docs", "https://example.com").OnClick(incrementHandler)
	_, err := NewWindow[int](NewRow[int](link)).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)

	// link buttons need a url
	link = NewLinkButton[int]("Docs", "")
	_, err = NewWindow[int](NewRow[int](link)).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)

	_, err = NewWindow[int](NewSelectMenu[int]()).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)

	menu := NewSelectMenu[int]().WithOptions(NewSelectOption("a", "a")).WithMinValues(2).WithMaxValues(1)
	_, err = NewWindow[int](menu).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)

	_, err = NewWindow[int](NewRow[int](NewButtonWithId[int]("a.b", "A"))).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)
}

func TestLowerNilChild(t *testing.T) {
	_, err := NewWindow[int](nil).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)

	var row *Row[int]
	_, err = NewWindow[int](row).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)

	_, err = NewWindow[int](NewRow[int](nil)).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)

	var button *Button[int]
	_, err = NewWindow[int](NewRow[int](NewButton[int]("A"), button)).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)

	_, err = NewWindow[int](NewButtonRow[int](2, button)).Lower(RootScope(""), NewBindingTable[int]())
	assert.Equal(t, errors.Is(err, ErrInvalidComponent), true)
}
