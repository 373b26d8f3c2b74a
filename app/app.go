package app

import (
	"errors"
	"fmt"
	"strings"

	"todo-tui/model"
)

var (
	ErrEmptyTitle    = errors.New("title must not be empty")
	ErrNoSelection   = errors.New("no task selected")
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Filter selects which tasks are visible.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterDone
)

func (f Filter) String() string {
	switch f {
	case FilterActive:
		return "active"
	case FilterDone:
		return "done"
	default:
		return "all"
	}
}

// Next is the filter that follows f in the fixed All, Active, Done cycle.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterActive
	case FilterActive:
		return FilterDone
	default:
		return FilterAll
	}
}

// Matches reports whether t is visible under f.
func (f Filter) Matches(t model.Task) bool {
	switch f {
	case FilterActive:
		return !t.IsDone()
	case FilterDone:
		return t.IsDone()
	default:
		return true
	}
}

// ParseFilter accepts "all", "active" or "done" (case-insensitive).
// An empty string is FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active", "todo", "pending":
		return FilterActive, nil
	case "done":
		return FilterDone, nil
	default:
		return FilterAll, fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
}

// Mode is either NormalMode or InsertMode.
type Mode interface {
	isMode()
}

type NormalMode struct{}

// InsertMode carries the draft being edited. The draft exists only here, so
// leaving Insert mode discards it.
type InsertMode struct {
	Draft *Draft
}

func (NormalMode) isMode() {}
func (InsertMode) isMode() {}

// Status is the transient message shown to the user.
type Status struct {
	Text    string
	IsError bool
}

type Options struct {
	// WrapFields makes Tab on the last draft field return to the first.
	WrapFields bool
}

func DefaultOptions() Options {
	return Options{WrapFields: true}
}

// State is the application state machine. It owns the collection it was
// built with; all mutation goes through State so that the selection stays
// inside the visible sequence.
type State struct {
	tasks     *model.Collection
	opts      Options
	selection int
	filter    Filter
	mode      Mode
	status    Status
	dirty     bool
	saveAsked bool
}

// NewState takes ownership of tasks. A nil collection starts empty.
func NewState(tasks *model.Collection, opts Options) *State {
	if tasks == nil {
		tasks = model.NewCollection()
	}
	return &State{
		tasks: tasks,
		opts:  opts,
		mode:  NormalMode{},
	}
}

// VisiblePositions returns the backing positions that pass the filter, in
// backing order. It is recomputed on every call.
func (s *State) VisiblePositions() []int {
	out := make([]int, 0, s.tasks.Len())
	for i, t := range s.tasks.Items {
		if s.filter.Matches(t) {
			out = append(out, i)
		}
	}
	return out
}

// VisibleTasks returns copies of the visible tasks in display order.
func (s *State) VisibleTasks() []model.Task {
	positions := s.VisiblePositions()
	out := make([]model.Task, 0, len(positions))
	for _, pos := range positions {
		out = append(out, s.tasks.Items[pos])
	}
	return out
}

func (s *State) Selection() int {
	return s.selection
}

// Select moves the cursor to visible index i. Out-of-range indexes are
// rejected and leave the selection alone.
func (s *State) Select(i int) bool {
	if i < 0 || i >= len(s.VisiblePositions()) {
		return false
	}
	s.selection = i
	return true
}

func (s *State) SelectNext() {
	if s.selection+1 < len(s.VisiblePositions()) {
		s.selection++
	}
}

func (s *State) SelectPrev() {
	if s.selection > 0 {
		s.selection--
	}
}

func (s *State) SelectFirst() {
	s.selection = 0
}

func (s *State) SelectLast() {
	n := len(s.VisiblePositions())
	if n == 0 {
		s.selection = 0
		return
	}
	s.selection = n - 1
}

// ClampSelection pulls the selection back into [0, visible length), or to 0
// when nothing is visible. Every change that can shrink the visible set must
// be followed by a clamp.
func (s *State) ClampSelection() {
	n := len(s.VisiblePositions())
	switch {
	case n == 0 || s.selection < 0:
		s.selection = 0
	case s.selection >= n:
		s.selection = n - 1
	}
}

func (s *State) Filter() Filter {
	return s.filter
}

func (s *State) SetFilter(f Filter) {
	s.filter = f
	s.ClampSelection()
}

func (s *State) CycleFilter() {
	s.SetFilter(s.filter.Next())
	s.setInfo("Filter: " + s.filter.String())
}

// SelectedPosition resolves the selection to a backing position.
func (s *State) SelectedPosition() (int, bool) {
	positions := s.VisiblePositions()
	if s.selection < 0 || s.selection >= len(positions) {
		return 0, false
	}
	return positions[s.selection], true
}

// SelectedTask returns a copy of the selected task.
func (s *State) SelectedTask() (model.Task, bool) {
	pos, ok := s.SelectedPosition()
	if !ok {
		return model.Task{}, false
	}
	return s.tasks.At(pos)
}

// AddTask validates and inserts a new task. It is the single creation path
// for both the draft commit and the command surface.
func (s *State) AddTask(title string, priority int, notes, timeframe string) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	task := model.NewTask(title, model.ClampPriority(priority), model.OptionalText(notes))
	task.Timeframe = model.OptionalText(timeframe)
	s.tasks.Insert(task)
	s.dirty = true
	s.selectID(task.ID)
	return task, nil
}

// ToggleSelected flips the selected task. Under a filter the task may leave
// the visible set, so the selection is clamped afterwards.
func (s *State) ToggleSelected() bool {
	pos, ok := s.SelectedPosition()
	if !ok || !s.tasks.ToggleAt(pos) {
		s.setInfo("Nothing selected")
		return false
	}
	s.dirty = true
	s.ClampSelection()
	if s.tasks.Items[pos].IsDone() {
		s.setInfo("Marked done")
	} else {
		s.setInfo("Marked pending")
	}
	return true
}

// DeleteSelected removes the selected task and clamps the selection.
func (s *State) DeleteSelected() bool {
	pos, ok := s.SelectedPosition()
	if !ok || !s.tasks.DeleteAt(pos) {
		s.setInfo("Nothing selected")
		return false
	}
	s.dirty = true
	s.ClampSelection()
	s.setInfo("Deleted")
	return true
}

func (s *State) InInsert() bool {
	_, ok := s.mode.(InsertMode)
	return ok
}

// Draft returns a copy of the current draft while in Insert mode.
func (s *State) Draft() (Draft, bool) {
	d := s.draft()
	if d == nil {
		return Draft{}, false
	}
	return d.clone(), true
}

func (s *State) draft() *Draft {
	if m, ok := s.mode.(InsertMode); ok {
		return m.Draft
	}
	return nil
}

// EnterInsert starts a fresh new-task draft and clears the status line.
func (s *State) EnterInsert() {
	s.mode = InsertMode{Draft: newTaskDraft()}
	s.status = Status{}
}

// EnterTimeframeEdit starts a draft that rewrites the selected task's
// timeframe.
func (s *State) EnterTimeframeEdit() error {
	task, ok := s.SelectedTask()
	if !ok {
		s.setError("Nothing selected")
		return ErrNoSelection
	}
	s.mode = InsertMode{Draft: timeframeDraft(task)}
	s.status = Status{}
	return nil
}

// CommitDraft applies the draft. On a validation failure the state stays in
// Insert mode with the draft intact and nothing is mutated.
func (s *State) CommitDraft() error {
	d := s.draft()
	if d == nil {
		return nil
	}

	switch d.Purpose {
	case PurposeTimeframe:
		pos, ok := s.tasks.FindByID(d.TargetID)
		if !ok {
			s.mode = NormalMode{}
			s.setError("Task no longer exists")
			return ErrTaskNotFound
		}
		s.tasks.SetTimeframeAt(pos, d.Timeframe)
		s.dirty = true
		s.mode = NormalMode{}
		s.setInfo("Timeframe updated")
		return nil
	default:
		if _, err := s.AddTask(d.Title, d.Priority, d.Notes, d.Timeframe); err != nil {
			s.setError("Title cannot be empty")
			return err
		}
		s.mode = NormalMode{}
		s.setInfo("Added")
		return nil
	}
}

// CancelDraft discards the draft without touching the collection.
func (s *State) CancelDraft() {
	if !s.InInsert() {
		return
	}
	s.mode = NormalMode{}
	s.setInfo("Cancelled")
}

func (s *State) DraftInsert(r rune) {
	if d := s.draft(); d != nil {
		d.insert(r)
	}
}

func (s *State) DraftBackspace() {
	if d := s.draft(); d != nil {
		d.backspace()
	}
}

func (s *State) DraftNextField() {
	if d := s.draft(); d != nil {
		d.next(s.opts.WrapFields)
	}
}

func (s *State) DraftPrevField() {
	if d := s.draft(); d != nil {
		d.prev(s.opts.WrapFields)
	}
}

// DraftAdjustPriority moves the draft priority by delta, saturating at the
// bounds. It only acts while the priority field is active.
func (s *State) DraftAdjustPriority(delta int) {
	if d := s.draft(); d != nil {
		d.adjustPriority(delta)
	}
}

// RequestSave marks the state dirty so the host flushes it.
func (s *State) RequestSave() {
	s.dirty = true
	s.saveAsked = true
	s.setInfo("Save requested")
}

func (s *State) Dirty() bool {
	return s.dirty
}

func (s *State) MarkSaved() {
	s.dirty = false
	if s.saveAsked {
		s.saveAsked = false
		s.setInfo("Saved")
	}
}

// SaveFailed keeps the dirty flag so the next flush retries.
func (s *State) SaveFailed(err error) {
	s.dirty = true
	s.setError("Save failed: " + err.Error())
}

// Flush persists the collection through save when dirty. The dirty flag is
// cleared only after save returns nil.
func (s *State) Flush(save func(*model.Collection) error) error {
	if !s.dirty {
		return nil
	}
	if err := save(s.tasks); err != nil {
		s.SaveFailed(err)
		return err
	}
	s.MarkSaved()
	return nil
}

func (s *State) Status() Status {
	return s.status
}

func (s *State) SetStatus(text string, isErr bool) {
	s.status = Status{Text: text, IsError: isErr}
}

func (s *State) setInfo(text string) {
	s.status = Status{Text: text}
}

func (s *State) setError(text string) {
	s.status = Status{Text: text, IsError: true}
}

func (s *State) selectID(id string) {
	for i, pos := range s.VisiblePositions() {
		if s.tasks.Items[pos].ID == id {
			s.selection = i
			return
		}
	}
	s.ClampSelection()
}
