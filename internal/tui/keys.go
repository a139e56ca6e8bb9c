package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/fakeyudi/voxrec/internal/recording"
)

type keyMap struct {
	Start  key.Binding
	Pause  key.Binding
	Stop   key.Binding
	Cancel key.Binding
	Save   key.Binding
	Play   key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Start:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "record")),
		Pause:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "pause")),
		Stop:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Cancel: key.NewBinding(key.WithKeys("c", "esc"), key.WithHelp("c", "cancel")),
		Save:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save")),
		Play:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// apply enables exactly the bindings whose controls are enabled. Disabled
// bindings neither match key presses nor show up in help.
func (k *keyMap) apply(c recording.Controls, canPlay bool) {
	k.Start.SetEnabled(c.Start)
	k.Pause.SetEnabled(c.Pause)
	k.Pause.SetHelp("space", strings.ToLower(c.PauseLabel))
	k.Stop.SetEnabled(c.Stop)
	k.Cancel.SetEnabled(c.Cancel)
	k.Save.SetEnabled(c.Save)
	k.Play.SetEnabled(canPlay)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Stop, k.Cancel, k.Save, k.Play, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Pause, k.Stop},
		{k.Cancel, k.Save, k.Play, k.Quit},
	}
}
