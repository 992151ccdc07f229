package tui

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "  "
	ti.CharLimit = 256
	ti.Width = 40
	// Static cursor: no blink ticks to schedule.
	ti.Cursor.SetMode(cursor.CursorStatic)
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

// focusInputs focuses inputs[idx] and blurs the rest.
func focusInputs(inputs []textinput.Model, idx int) {
	for i := range inputs {
		if i == idx {
			inputs[i].Focus()
		} else {
			inputs[i].Blur()
		}
	}
}

func resetInputs(inputs []textinput.Model) {
	for i := range inputs {
		inputs[i].Reset()
		inputs[i].Blur()
	}
}

// cycle moves the focused input forward or back with wraparound.
func cycle(inputs []textinput.Model, idx, delta int) int {
	n := len(inputs)
	idx = ((idx+delta)%n + n) % n
	focusInputs(inputs, idx)
	return idx
}

// typeInto forwards a key to the focused input.
func typeInto(inputs []textinput.Model, idx int, msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	inputs[idx], cmd = inputs[idx].Update(msg)
	return cmd
}
