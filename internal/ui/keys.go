package ui

import "github.com/charmbracelet/bubbles/key"

// Key bindings
var keys = struct {
	Quit      key.Binding
	Debug     key.Binding
	Cancel    key.Binding
	Submit    key.Binding
	Trigger   key.Binding
	NextField key.Binding
	PrevField key.Binding
	SortNext  key.Binding
	SortPrev  key.Binding
	PageDown  key.Binding
	PageUp    key.Binding
}{
	Quit:      key.NewBinding(key.WithKeys("ctrl+c")),
	Debug:     key.NewBinding(key.WithKeys("ctrl+d")),
	Cancel:    key.NewBinding(key.WithKeys("esc")),
	Submit:    key.NewBinding(key.WithKeys("enter")),
	Trigger:   key.NewBinding(key.WithKeys("enter", " ")),
	NextField: key.NewBinding(key.WithKeys("tab")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab")),
	SortNext:  key.NewBinding(key.WithKeys("right", "l", "enter", " ")),
	SortPrev:  key.NewBinding(key.WithKeys("left", "h")),
	PageDown:  key.NewBinding(key.WithKeys("pgdown", "ctrl+f")),
	PageUp:    key.NewBinding(key.WithKeys("pgup", "ctrl+b")),
}

// field identifies the focused control.
type field int

const (
	fieldQuery field = iota
	fieldMaxResults
	fieldTrigger
	fieldSort
	fieldCount
)

// controls is the enable state of the search trigger and sort selector.
// A running poller.Session disables both and re-enables them when it ends.
type controls struct {
	triggerDisabled bool
	sortDisabled    bool
}

func (c *controls) Disable() {
	c.triggerDisabled = true
	c.sortDisabled = true
}

func (c *controls) Enable() {
	c.triggerDisabled = false
	c.sortDisabled = false
}
