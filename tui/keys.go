package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"todo-tui/app"
)

// translateKey maps a terminal key press to core events. Pasted text arrives
// as several runes and becomes one event per rune.
func translateKey(msg tea.KeyMsg) []app.Event {
	if msg.Alt {
		return nil
	}
	switch msg.Type {
	case tea.KeyCtrlC:
		return one(app.KeyInterrupt)
	case tea.KeyEnter:
		return one(app.KeyEnter)
	case tea.KeyEsc:
		return one(app.KeyEsc)
	case tea.KeyBackspace, tea.KeyCtrlH:
		return one(app.KeyBackspace)
	case tea.KeyTab:
		return one(app.KeyTab)
	case tea.KeyShiftTab:
		return one(app.KeyBackTab)
	case tea.KeyUp:
		return one(app.KeyUp)
	case tea.KeyDown:
		return one(app.KeyDown)
	case tea.KeyLeft:
		return one(app.KeyLeft)
	case tea.KeyRight:
		return one(app.KeyRight)
	case tea.KeySpace:
		return one(app.KeySpace)
	case tea.KeyRunes:
		out := make([]app.Event, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			if r == ' ' {
				out = append(out, app.KeyEvent(app.KeySpace))
				continue
			}
			out = append(out, app.RuneEvent(r))
		}
		return out
	default:
		return nil
	}
}

func one(k app.Key) []app.Event {
	return []app.Event{app.KeyEvent(k)}
}

// keyMap lists the bindings shown in help. Host-level keys (tabs, help) are
// also matched through it; everything else goes to the dispatcher.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Add      key.Binding
	When     key.Binding
	Toggle   key.Binding
	Delete   key.Binding
	Filter   key.Binding
	Save     key.Binding
	Copy     key.Binding
	SwitchTo key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Top:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "first")),
		Bottom:   key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "last")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		When:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "timeframe")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "enter", "x"), key.WithHelp("space/x", "toggle")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Filter:   key.NewBinding(key.WithKeys("f", "/"), key.WithHelp("f", "filter")),
		Save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy title")),
		SwitchTo: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch tab")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.Filter, k.SwitchTo, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Add, k.When, k.Toggle, k.Delete},
		{k.Filter, k.Save, k.Copy},
		{k.SwitchTo, k.Help, k.Quit},
	}
}

// insertKeyMap is the help shown while a draft is open.
type insertKeyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Adjust  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

func defaultInsertKeyMap() insertKeyMap {
	return insertKeyMap{
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
		Adjust:  key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→ 1-5", "priority")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:  key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc/ctrl+c", "cancel")),
	}
}

func (k insertKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Adjust, k.Confirm, k.Cancel}
}

func (k insertKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
