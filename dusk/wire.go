package dusk

// wire-level control descriptions, as accepted by the messaging service

const MaxCustomIdLength = 100

// max children in one row
const MaxRowWidth = 5

// max top level rows on one message
const MaxWindowRows = 5

type ControlType int

const (
	ControlTypeRow        ControlType = 1
	ControlTypeButton     ControlType = 2
	ControlTypeSelectMenu ControlType = 3
)

type ButtonStyle int

const (
	ButtonStylePrimary   ButtonStyle = 1
	ButtonStyleSecondary ButtonStyle = 2
	ButtonStyleSuccess   ButtonStyle = 3
	ButtonStyleDanger    ButtonStyle = 4
	// link buttons open `Url` and never produce events
	ButtonStyleLink ButtonStyle = 5
)

type Emoji struct {
	Id       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Animated bool   `json:"animated,omitempty"`
}

type SelectOption struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	Emoji       *Emoji `json:"emoji,omitempty"`
	Default     bool   `json:"default,omitempty"`
}

func NewSelectOption(label string, value string) *SelectOption {
	return &SelectOption{
		Label: label,
		Value: value,
	}
}

func (self *SelectOption) WithDescription(description string) *SelectOption {
	self.Description = description
	return self
}

func (self *SelectOption) WithEmoji(emoji *Emoji) *SelectOption {
	self.Emoji = emoji
	return self
}

func (self *SelectOption) SetDefault(isDefault bool) *SelectOption {
	self.Default = isDefault
	return self
}

type WireControl struct {
	Type     ControlType `json:"type"`
	CustomId string      `json:"custom_id,omitempty"`
	Disabled bool        `json:"disabled,omitempty"`

	// button
	Label string      `json:"label,omitempty"`
	Style ButtonStyle `json:"style,omitempty"`
	Emoji *Emoji      `json:"emoji,omitempty"`
	Url   string      `json:"url,omitempty"`

	// select menu
	Options     []*SelectOption `json:"options,omitempty"`
	Placeholder string          `json:"placeholder,omitempty"`
	MinValues   *int            `json:"min_values,omitempty"`
	MaxValues   *int            `json:"max_values,omitempty"`

	// row
	Components []*WireControl `json:"components,omitempty"`
}

// visits every control in the trees, depth first
func WalkControls(controls []*WireControl, visit func(control *WireControl)) {
	for _, control := range controls {
		visit(control)
		WalkControls(control.Components, visit)
	}
}

// custom ids of all interactive controls in the trees, in tree order
func CustomIds(controls []*WireControl) []string {
	customIds := []string{}
	WalkControls(controls, func(control *WireControl) {
		if control.CustomId != "" {
			customIds = append(customIds, control.CustomId)
		}
	})
	return customIds
}
