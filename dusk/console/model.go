package console

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/bringyour/dusk/dusk"
)

// the published messages changed
type messagesMsg struct{}

type statusMsg string

// One activatable control. Each option of a select menu is its own target.
type Target struct {
	MessageId dusk.Id
	Origin    *dusk.Event
	CustomId  string
	Label     string
	// selected option value, for select menu options
	Value    string
	Style    dusk.ButtonStyle
	Disabled bool
}

func (self *Target) key() string {
	return fmt.Sprintf("%s/%s/%s", self.MessageId, self.CustomId, self.Value)
}

var (
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	textStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	filterStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	disabledStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	linkStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	focusedStyle     = lipgloss.NewStyle().Reverse(true).Bold(true)

	buttonStyles = map[dusk.ButtonStyle]lipgloss.Style{
		dusk.ButtonStylePrimary:   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		dusk.ButtonStyleSecondary: lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
		dusk.ButtonStyleSuccess:   lipgloss.NewStyle().Foreground(lipgloss.Color("35")),
		dusk.ButtonStyleDanger:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

type Model struct {
	console *Console

	messages []*ConsoleMessage
	targets  []*Target
	// indexes into `targets` that match the filter
	visible []int
	// index into `visible`
	cursor int

	filter    string
	filtering bool
	status    string

	lastMessageId dusk.Id
}

func NewModel(console *Console) *Model {
	model := &Model{
		console: console,
	}
	model.refresh()
	return model
}

func (self *Model) Init() tea.Cmd {
	return nil
}

func (self *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case messagesMsg:
		self.refresh()
	case statusMsg:
		self.status = string(v)
	case tea.KeyMsg:
		if self.filtering {
			return self, self.handleFilterKey(v)
		}
		return self, self.handleKey(v)
	}
	return self, nil
}

func (self *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "up", "left", "shift+tab", "k", "h":
		self.move(-1)
	case "down", "right", "tab", "j", "l":
		self.move(1)
	case "/":
		self.filtering = true
	case "esc":
		self.setFilter("")
	case "n":
		event := self.console.Command()
		self.status = fmt.Sprintf("started %s", event)
	case "enter", " ":
		return self.fire()
	}
	return nil
}

func (self *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC:
		return tea.Quit
	case tea.KeyEsc:
		self.filtering = false
		self.setFilter("")
	case tea.KeyEnter:
		self.filtering = false
		return self.fire()
	case tea.KeyBackspace:
		runes := []rune(self.filter)
		if 0 < len(runes) {
			self.setFilter(string(runes[:len(runes)-1]))
		}
	case tea.KeyUp, tea.KeyShiftTab:
		self.move(-1)
	case tea.KeyDown, tea.KeyTab:
		self.move(1)
	case tea.KeyRunes, tea.KeySpace:
		self.setFilter(self.filter + string(msg.Runes))
	}
	return nil
}

func (self *Model) move(delta int) {
	if len(self.visible) == 0 {
		self.cursor = 0
		return
	}
	self.cursor = (self.cursor + delta + len(self.visible)) % len(self.visible)
}

// the target under the cursor, or nil
func (self *Model) Focused() *Target {
	if self.cursor < 0 || len(self.visible) <= self.cursor {
		return nil
	}
	return self.targets[self.visible[self.cursor]]
}

func (self *Model) fire() tea.Cmd {
	target := self.Focused()
	if target == nil {
		return nil
	}
	if target.Disabled {
		self.status = fmt.Sprintf("%s is disabled", target.Label)
		return nil
	}
	return func() tea.Msg {
		result, err := self.console.Activate(target)
		switch {
		case err != nil:
			return statusMsg(fmt.Sprintf("%s: %s", target.Label, err))
		case result.Matched:
			return statusMsg(target.Label)
		case result.Duplicate:
			return statusMsg(fmt.Sprintf("%s: already delivered", target.Label))
		default:
			return statusMsg(fmt.Sprintf("%s: no session is waiting on this message", target.Label))
		}
	}
}

func (self *Model) setFilter(filter string) {
	focused := self.Focused()
	self.filter = filter
	self.applyFilter()
	if focused != nil {
		self.focus(focused.key())
	}
}

func (self *Model) applyFilter() {
	self.visible = []int{}
	query := strings.TrimSpace(self.filter)
	if query == "" {
		for i := range self.targets {
			self.visible = append(self.visible, i)
		}
	} else {
		labels := make([]string, len(self.targets))
		for i, target := range self.targets {
			labels[i] = target.Label
		}
		matches := map[int]bool{}
		for _, rank := range fuzzy.RankFindNormalizedFold(query, labels) {
			matches[rank.OriginalIndex] = true
		}
		// keep display order
		for i := range self.targets {
			if matches[i] {
				self.visible = append(self.visible, i)
			}
		}
	}
	if len(self.visible) <= self.cursor {
		self.cursor = max(0, len(self.visible)-1)
	}
}

// moves the cursor to the target with `key`, when visible
func (self *Model) focus(key string) bool {
	for i, j := range self.visible {
		if self.targets[j].key() == key {
			self.cursor = i
			return true
		}
	}
	return false
}

// reloads the messages from the console
func (self *Model) refresh() {
	focused := self.Focused()
	focusedMessageId := dusk.Id{}
	focusedIndex := 0
	if focused != nil {
		focusedMessageId = focused.MessageId
		for i := 0; i < self.cursor; i += 1 {
			if self.targets[self.visible[i]].MessageId == focusedMessageId {
				focusedIndex += 1
			}
		}
	}

	self.messages = self.console.Messages()
	self.targets = []*Target{}
	for _, message := range self.messages {
		self.targets = append(self.targets, messageTargets(message)...)
	}
	self.applyFilter()

	var lastMessageId dusk.Id
	if 0 < len(self.messages) {
		lastMessageId = self.messages[len(self.messages)-1].MessageId
	}
	if lastMessageId != self.lastMessageId {
		// a new message takes focus
		self.lastMessageId = lastMessageId
		self.focusMessage(lastMessageId, 0)
	} else if focused != nil {
		// control ids can change on each render, so keep the position within the message
		if !self.focus(focused.key()) {
			self.focusMessage(focusedMessageId, focusedIndex)
		}
	}
}

func (self *Model) focusMessage(messageId dusk.Id, index int) {
	n := 0
	last := -1
	for i, j := range self.visible {
		if self.targets[j].MessageId == messageId {
			if n == index {
				self.cursor = i
				return
			}
			last = i
			n += 1
		}
	}
	if 0 <= last {
		self.cursor = last
	}
}

func messageTargets(message *ConsoleMessage) []*Target {
	targets := []*Target{}
	dusk.WalkControls(message.Controls, func(control *dusk.WireControl) {
		if control.CustomId == "" {
			return
		}
		switch control.Type {
		case dusk.ControlTypeButton:
			targets = append(targets, &Target{
				MessageId: message.MessageId,
				Origin:    message.Origin,
				CustomId:  control.CustomId,
				Label:     control.Label,
				Style:     control.Style,
				Disabled:  control.Disabled,
			})
		case dusk.ControlTypeSelectMenu:
			for _, option := range control.Options {
				targets = append(targets, &Target{
					MessageId: message.MessageId,
					Origin:    message.Origin,
					CustomId:  control.CustomId,
					Label:     option.Label,
					Value:     option.Value,
					Style:     dusk.ButtonStyleSecondary,
					Disabled:  control.Disabled,
				})
			}
		}
	})
	return targets
}

func (self *Model) View() string {
	var b strings.Builder

	focused := self.Focused()
	isFocused := func(target *Target) bool {
		return focused != nil && focused.key() == target.key()
	}
	isVisible := map[string]bool{}
	for _, j := range self.visible {
		isVisible[self.targets[j].key()] = true
	}

	if len(self.messages) == 0 {
		b.WriteString(placeholderStyle.Render("no messages. press n to start a session."))
		b.WriteString("\n")
	}

	for _, message := range self.messages {
		header := fmt.Sprintf("m(%s) r%d", message.MessageId, message.Revision)
		if message.Ephemeral {
			header += " (only you can see this)"
		}
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")
		if message.Text != "" {
			b.WriteString(textStyle.Render(message.Text))
			b.WriteString("\n")
		}

		targets := messageTargets(message)
		i := 0
		for _, row := range message.Controls {
			parts := []string{}
			for _, control := range row.Components {
				switch control.Type {
				case dusk.ControlTypeButton:
					if control.CustomId == "" {
						parts = append(parts, linkStyle.Render(fmt.Sprintf("%s <%s>", control.Label, control.Url)))
						continue
					}
					parts = append(parts, self.renderTarget(targets[i], isFocused(targets[i]), isVisible[targets[i].key()]))
					i += 1
				case dusk.ControlTypeSelectMenu:
					options := []string{}
					for range control.Options {
						options = append(options, self.renderTarget(targets[i], isFocused(targets[i]), isVisible[targets[i].key()]))
						i += 1
					}
					menu := strings.Join(options, " | ")
					if control.Placeholder != "" {
						menu = placeholderStyle.Render(control.Placeholder+":") + " " + menu
					}
					parts = append(parts, menu)
				}
			}
			b.WriteString(strings.Join(parts, " "))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if self.filtering || self.filter != "" {
		b.WriteString(filterStyle.Render("/" + self.filter))
		b.WriteString("\n")
	}
	if self.status != "" {
		b.WriteString(statusStyle.Render(self.status))
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render("tab move  / filter  enter activate  n new  q quit"))
	return b.String()
}

func (self *Model) renderTarget(target *Target, focused bool, visible bool) string {
	label := fmt.Sprintf("[%s]", target.Label)
	switch {
	case focused:
		return focusedStyle.Render(label)
	case target.Disabled || !visible:
		return disabledStyle.Render(label)
	}
	if style, ok := buttonStyles[target.Style]; ok {
		return style.Render(label)
	}
	return label
}
