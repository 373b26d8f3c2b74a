package app

import (
	"unicode/utf8"

	"todo-tui/model"
)

// Field names one editable buffer of a Draft.
type Field int

const (
	FieldTitle Field = iota
	FieldNotes
	FieldTimeframe
	FieldPriority
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "Title"
	case FieldNotes:
		return "Notes"
	case FieldTimeframe:
		return "Time"
	case FieldPriority:
		return "Priority"
	default:
		return "?"
	}
}

// Purpose says what committing a Draft does.
type Purpose int

const (
	// PurposeNew adds a new task.
	PurposeNew Purpose = iota
	// PurposeTimeframe rewrites the timeframe of an existing task.
	PurposeTimeframe
)

var (
	newTaskFields   = []Field{FieldTitle, FieldNotes, FieldTimeframe, FieldPriority}
	timeframeFields = []Field{FieldTimeframe}
)

// Draft holds an uncommitted edit while in Insert mode.
type Draft struct {
	Purpose Purpose
	// TargetID is the task being edited when Purpose is PurposeTimeframe.
	TargetID string
	Fields   []Field
	Active   int

	Title     string
	Notes     string
	Timeframe string
	Priority  int
}

func newTaskDraft() *Draft {
	return &Draft{
		Purpose:  PurposeNew,
		Fields:   newTaskFields,
		Priority: model.DefaultPriority,
	}
}

func timeframeDraft(t model.Task) *Draft {
	return &Draft{
		Purpose:   PurposeTimeframe,
		TargetID:  t.ID,
		Fields:    timeframeFields,
		Timeframe: t.TimeframeText(),
		Priority:  model.ClampPriority(t.Priority),
		Title:     t.Title,
	}
}

// ActiveField is the field receiving text input.
func (d *Draft) ActiveField() Field {
	if len(d.Fields) == 0 {
		return FieldTitle
	}
	return d.Fields[d.Active]
}

// Value returns the text shown for f.
func (d *Draft) Value(f Field) string {
	switch f {
	case FieldTitle:
		return d.Title
	case FieldNotes:
		return d.Notes
	case FieldTimeframe:
		return d.Timeframe
	default:
		return ""
	}
}

func (d *Draft) next(wrap bool) {
	if d.Active+1 < len(d.Fields) {
		d.Active++
		return
	}
	if wrap {
		d.Active = 0
	}
}

func (d *Draft) prev(wrap bool) {
	if d.Active > 0 {
		d.Active--
		return
	}
	if wrap {
		d.Active = len(d.Fields) - 1
	}
}

func (d *Draft) buffer() *string {
	switch d.ActiveField() {
	case FieldTitle:
		return &d.Title
	case FieldNotes:
		return &d.Notes
	case FieldTimeframe:
		return &d.Timeframe
	default:
		return nil
	}
}

// insert appends r to the active text buffer. On the priority field a digit
// in range selects that priority and anything else is ignored.
func (d *Draft) insert(r rune) {
	if d.ActiveField() == FieldPriority {
		if r >= '0'+model.PriorityHighest && r <= '0'+model.PriorityLowest {
			d.Priority = int(r - '0')
		}
		return
	}
	if buf := d.buffer(); buf != nil {
		*buf += string(r)
	}
}

func (d *Draft) backspace() {
	buf := d.buffer()
	if buf == nil || *buf == "" {
		return
	}
	_, size := utf8.DecodeLastRuneInString(*buf)
	*buf = (*buf)[:len(*buf)-size]
}

func (d *Draft) adjustPriority(delta int) {
	if d.ActiveField() != FieldPriority {
		return
	}
	d.Priority = model.ClampPriority(d.Priority + delta)
}

func (d *Draft) clone() Draft {
	out := *d
	out.Fields = append([]Field(nil), d.Fields...)
	return out
}
