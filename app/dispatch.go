package app

// Key is the kind of an input event, independent of any terminal library.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyEsc
	KeyBackspace
	KeyTab
	KeyBackTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySpace
	KeyInterrupt
	KeyResize
	KeyTick
)

// Event is one input event. Rune is set only for KeyRune.
type Event struct {
	Key  Key
	Rune rune
}

func RuneEvent(r rune) Event {
	return Event{Key: KeyRune, Rune: r}
}

func KeyEvent(k Key) Event {
	return Event{Key: k}
}

// Outcome carries effects the host must perform after a dispatch.
type Outcome struct {
	Quit bool
	// Copy is text to place on the clipboard, if non-empty.
	Copy string
}

// Dispatch applies ev to s according to the current mode. It performs no I/O.
// Every (mode, event) pair is handled; unknown combinations are ignored.
func Dispatch(s *State, ev Event) Outcome {
	switch ev.Key {
	case KeyResize, KeyTick:
		return Outcome{}
	}
	if s.InInsert() {
		return dispatchInsert(s, ev)
	}
	return dispatchNormal(s, ev)
}

func dispatchNormal(s *State, ev Event) Outcome {
	switch ev.Key {
	case KeyInterrupt:
		return Outcome{Quit: true}
	case KeyDown:
		s.SelectNext()
	case KeyUp:
		s.SelectPrev()
	case KeySpace, KeyEnter:
		s.ToggleSelected()
	case KeyRune:
		return normalRune(s, ev.Rune)
	}
	return Outcome{}
}

func normalRune(s *State, r rune) Outcome {
	switch r {
	case 'q':
		return Outcome{Quit: true}
	case 'j':
		s.SelectNext()
	case 'k':
		s.SelectPrev()
	case 'g':
		s.SelectFirst()
	case 'G':
		s.SelectLast()
	case 'a':
		s.EnterInsert()
	case 't':
		_ = s.EnterTimeframeEdit()
	case 'x', ' ':
		s.ToggleSelected()
	case 'd':
		s.DeleteSelected()
	case 'f', '/':
		s.CycleFilter()
	case 's':
		s.RequestSave()
	case 'y':
		if task, ok := s.SelectedTask(); ok {
			return Outcome{Copy: task.Title}
		}
		s.setInfo("Nothing selected")
	}
	return Outcome{}
}

func dispatchInsert(s *State, ev Event) Outcome {
	switch ev.Key {
	case KeyEsc, KeyInterrupt:
		s.CancelDraft()
	case KeyEnter:
		_ = s.CommitDraft()
	case KeyTab:
		s.DraftNextField()
	case KeyBackTab:
		s.DraftPrevField()
	case KeyBackspace:
		s.DraftBackspace()
	case KeyLeft:
		s.DraftAdjustPriority(-1)
	case KeyRight:
		s.DraftAdjustPriority(1)
	case KeySpace:
		s.DraftInsert(' ')
	case KeyRune:
		s.DraftInsert(ev.Rune)
	}
	return Outcome{}
}
