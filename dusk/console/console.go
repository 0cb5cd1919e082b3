package console

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"github.com/bringyour/dusk/dusk"
)

// The console is a local stand-in for the messaging service. Sessions publish
// messages to it, and the terminal user activates the controls on those
// messages. Activations are delivered through the correlator exactly like
// gateway events.

type ConsoleSettings struct {
	// command name of events started with `n`
	CommandName string
	UserId      string
	// number of most recent messages shown
	MaxMessages    int
	DeliverTimeout time.Duration
}

func DefaultConsoleSettings() *ConsoleSettings {
	return &ConsoleSettings{
		CommandName:    "counter",
		UserId:         "console",
		MaxMessages:    3,
		DeliverTimeout: 5 * time.Second,
	}
}

// a published message as the console user sees it
type ConsoleMessage struct {
	MessageId dusk.Id
	Origin    *dusk.Event
	Text      string
	Controls  []*dusk.WireControl
	Ephemeral bool
	// number of updates since create
	Revision int
}

// implements `dusk.Publisher` and `dusk.Acknowledger`
type Console struct {
	ctx    context.Context
	cancel context.CancelFunc

	correlator *dusk.Correlator
	settings   *ConsoleSettings

	stateLock sync.Mutex
	// publish order
	messages []*ConsoleMessage
	program  *tea.Program

	commandCallbacks *dusk.CallbackList[dusk.CommandFunction]
}

func NewConsoleWithDefaults(ctx context.Context, correlator *dusk.Correlator) *Console {
	return NewConsole(ctx, correlator, DefaultConsoleSettings())
}

func NewConsole(ctx context.Context, correlator *dusk.Correlator, settings *ConsoleSettings) *Console {
	cancelCtx, cancel := context.WithCancel(ctx)
	return &Console{
		ctx:              cancelCtx,
		cancel:           cancel,
		correlator:       correlator,
		settings:         settings,
		messages:         []*ConsoleMessage{},
		commandCallbacks: dusk.NewCallbackList[dusk.CommandFunction](),
	}
}

// returns a function that removes the callback
func (self *Console) AddCommandCallback(commandCallback dusk.CommandFunction) func() {
	callbackId := self.commandCallbacks.Add(commandCallback)
	return func() {
		self.commandCallbacks.Remove(callbackId)
	}
}

// starts a new session the way a user command would
func (self *Console) Command() *dusk.Event {
	event := dusk.NewCommandEvent(self.settings.CommandName, self.settings.UserId)
	glog.V(2).Infof("[console]%s\n", event)
	for _, commandCallback := range self.commandCallbacks.Get() {
		go dusk.HandleError(func() {
			commandCallback(event)
		})
	}
	return event
}

// Runs the terminal ui until the user quits or the console is closed.
func (self *Console) Run(options ...tea.ProgramOption) error {
	options = append([]tea.ProgramOption{tea.WithContext(self.ctx)}, options...)
	program := tea.NewProgram(NewModel(self), options...)

	self.stateLock.Lock()
	self.program = program
	self.stateLock.Unlock()

	defer func() {
		self.stateLock.Lock()
		self.program = nil
		self.stateLock.Unlock()
	}()

	_, err := program.Run()
	return err
}

func (self *Console) Close() {
	self.cancel()
}

// the most recent messages, oldest first
func (self *Console) Messages() []*ConsoleMessage {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	start := 0
	if 0 < self.settings.MaxMessages && self.settings.MaxMessages < len(self.messages) {
		start = len(self.messages) - self.settings.MaxMessages
	}
	messages := make([]*ConsoleMessage, 0, len(self.messages)-start)
	for _, message := range self.messages[start:] {
		messageCopy := *message
		messages = append(messages, &messageCopy)
	}
	return messages
}

func (self *Console) notify(msg tea.Msg) {
	self.stateLock.Lock()
	program := self.program
	self.stateLock.Unlock()

	if program != nil {
		// `Send` blocks until the program reads the message
		go program.Send(msg)
	}
}

// Publisher implementation

func (self *Console) Create(ctx context.Context, origin *dusk.Event, message *dusk.Message, options dusk.CreateOptions) (dusk.Id, error) {
	consoleMessage := &ConsoleMessage{
		MessageId: dusk.NewId(),
		Origin:    origin,
		Controls:  message.Controls,
		Ephemeral: options.Ephemeral,
	}
	if message.Text != nil {
		consoleMessage.Text = *message.Text
	}

	func() {
		self.stateLock.Lock()
		defer self.stateLock.Unlock()
		self.messages = append(self.messages, consoleMessage)
	}()
	glog.V(2).Infof("[console]create m(%s) for %s\n", consoleMessage.MessageId, origin)

	self.notify(messagesMsg{})
	return consoleMessage.MessageId, nil
}

func (self *Console) Update(ctx context.Context, origin *dusk.Event, messageId dusk.Id, message *dusk.Message) (dusk.Id, error) {
	err := func() error {
		self.stateLock.Lock()
		defer self.stateLock.Unlock()

		for _, consoleMessage := range self.messages {
			if consoleMessage.MessageId == messageId {
				if message.Text != nil {
					consoleMessage.Text = *message.Text
				}
				consoleMessage.Controls = message.Controls
				consoleMessage.Revision += 1
				return nil
			}
		}
		return fmt.Errorf("Unknown message m(%s).", messageId)
	}()
	if err != nil {
		return dusk.Id{}, err
	}
	glog.V(2).Infof("[console]update m(%s)\n", messageId)

	self.notify(messagesMsg{})
	return messageId, nil
}

// Acknowledger implementation

func (self *Console) AckDeferred(ctx context.Context, event *dusk.Event) error {
	glog.V(2).Infof("[console]ack %s\n", event)
	return nil
}

// delivers an activation of `target` to the session waiting on its message
func (self *Console) Activate(target *Target) (dusk.DeliveryResult, error) {
	var values []string
	if target.Value != "" {
		values = []string{target.Value}
	}
	event := dusk.NewComponentEvent(target.Origin, target.MessageId, target.CustomId, values...)

	deliverCtx, deliverCancel := context.WithTimeout(self.ctx, self.settings.DeliverTimeout)
	defer deliverCancel()
	return self.correlator.Deliver(deliverCtx, event, self)
}
