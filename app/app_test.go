package app

import (
	"errors"
	"testing"

	"todo-tui/model"
)

func task(id string, priority int, created int64, done bool) model.Task {
	status := model.StatusPending
	if done {
		status = model.StatusDone
	}
	return model.Task{ID: id, Title: id, Priority: priority, Status: status, CreatedAt: created}
}

func newStateWith(opts Options, tasks ...model.Task) *State {
	c := model.NewCollection()
	for _, t := range tasks {
		c.Insert(t)
	}
	return NewState(c, opts)
}

func mustAddTask(t *testing.T, s *State, title string, priority int) model.Task {
	t.Helper()
	tk, err := s.AddTask(title, priority, "", "")
	if err != nil {
		t.Fatalf("add task failed: %v", err)
	}
	return tk
}

func visibleIDs(s *State) []string {
	out := []string{}
	for _, t := range s.VisibleTasks() {
		out = append(out, t.ID)
	}
	return out
}

func assertSelectionInBounds(t *testing.T, s *State) {
	t.Helper()
	n := len(s.VisiblePositions())
	if n == 0 && s.Selection() != 0 {
		t.Fatalf("expected selection 0 on empty view, got %d", s.Selection())
	}
	if n > 0 && (s.Selection() < 0 || s.Selection() >= n) {
		t.Fatalf("selection %d out of [0,%d)", s.Selection(), n)
	}
}

func TestScenarioAVisibleOrder(t *testing.T) {
	s := NewState(nil, DefaultOptions())
	mustAddTask(t, s, "Write spec", 1)
	mustAddTask(t, s, "Ship", 3)

	tasks := s.VisibleTasks()
	if len(tasks) != 2 || tasks[0].Title != "Write spec" || tasks[1].Title != "Ship" {
		t.Fatalf("unexpected visible order %+v", tasks)
	}
	if tasks[0].Priority != 1 || tasks[1].Priority != 3 {
		t.Fatalf("unexpected priorities %+v", tasks)
	}
	if !s.Dirty() {
		t.Fatalf("expected dirty after add")
	}
}

func TestAddTaskRejectsBlankTitle(t *testing.T) {
	s := NewState(nil, DefaultOptions())
	if _, err := s.AddTask("   ", 1, "", ""); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if len(s.VisiblePositions()) != 0 || s.Dirty() {
		t.Fatalf("expected no mutation on rejected add")
	}
}

func TestAddTaskSelectsNewTask(t *testing.T) {
	s := newStateWith(DefaultOptions(), task("a", 1, 3, false), task("c", 3, 1, false))
	added := mustAddTask(t, s, "middle", 2)

	got, ok := s.SelectedTask()
	if !ok || got.ID != added.ID {
		t.Fatalf("expected new task selected, got %+v", got)
	}
	if s.Selection() != 1 {
		t.Fatalf("expected selection 1, got %d", s.Selection())
	}
}

func TestScenarioBDeleteThenClamp(t *testing.T) {
	s := newStateWith(DefaultOptions(),
		task("a", 1, 3, false), task("b", 2, 2, false), task("c", 3, 1, false))
	if !s.Select(1) {
		t.Fatalf("select 1 failed")
	}
	if !s.DeleteSelected() {
		t.Fatalf("delete failed")
	}
	if len(s.VisiblePositions()) != 2 {
		t.Fatalf("expected 2 tasks, got %v", visibleIDs(s))
	}
	if s.Selection() != 1 {
		t.Fatalf("expected selection 1, got %d", s.Selection())
	}

	if !s.DeleteSelected() {
		t.Fatalf("second delete failed")
	}
	if s.Selection() != 0 {
		t.Fatalf("expected selection clamped to 0, got %d", s.Selection())
	}
	if !s.DeleteSelected() {
		t.Fatalf("third delete failed")
	}
	assertSelectionInBounds(t, s)
	if s.DeleteSelected() {
		t.Fatalf("expected delete on empty view to report false")
	}
}

func TestDeleteKeepsSelectionInBoundsFromEveryPosition(t *testing.T) {
	for start := 0; start < 4; start++ {
		s := newStateWith(DefaultOptions(),
			task("a", 1, 4, false), task("b", 2, 3, true), task("c", 3, 2, false), task("d", 4, 1, true))
		s.Select(start)
		for len(s.VisiblePositions()) > 0 {
			s.DeleteSelected()
			assertSelectionInBounds(t, s)
		}
	}
}

func TestSelectionMovesWithoutWrap(t *testing.T) {
	s := newStateWith(DefaultOptions(), task("a", 1, 2, false), task("b", 2, 1, false))

	s.SelectPrev()
	if s.Selection() != 0 {
		t.Fatalf("expected no wrap at top, got %d", s.Selection())
	}
	s.SelectNext()
	s.SelectNext()
	if s.Selection() != 1 {
		t.Fatalf("expected no wrap at bottom, got %d", s.Selection())
	}
	s.SelectFirst()
	if s.Selection() != 0 {
		t.Fatalf("expected first, got %d", s.Selection())
	}
	s.SelectLast()
	if s.Selection() != 1 {
		t.Fatalf("expected last, got %d", s.Selection())
	}
	if s.Select(5) || s.Selection() != 1 {
		t.Fatalf("expected out-of-range select to be rejected")
	}
}

func TestFilterCycleAndClamp(t *testing.T) {
	s := newStateWith(DefaultOptions(),
		task("a", 1, 3, false), task("b", 2, 2, true), task("c", 3, 1, false))
	s.SelectLast()

	s.CycleFilter()
	if s.Filter() != FilterActive {
		t.Fatalf("expected active filter, got %v", s.Filter())
	}
	if ids := visibleIDs(s); len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Fatalf("unexpected active view %v", ids)
	}
	if s.Selection() != 1 {
		t.Fatalf("expected selection clamped to 1, got %d", s.Selection())
	}

	s.CycleFilter()
	if s.Filter() != FilterDone || s.Selection() != 0 {
		t.Fatalf("expected done filter with selection 0, got %v %d", s.Filter(), s.Selection())
	}
	if ids := visibleIDs(s); len(ids) != 1 || ids[0] != "b" {
		t.Fatalf("unexpected done view %v", ids)
	}

	s.CycleFilter()
	if s.Filter() != FilterAll {
		t.Fatalf("expected cycle back to all, got %v", s.Filter())
	}
}

func TestVisiblePositionsTrackBackingChanges(t *testing.T) {
	s := newStateWith(DefaultOptions(), task("a", 1, 2, true), task("b", 2, 1, false))
	s.SetFilter(FilterActive)
	if got := s.VisiblePositions(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("unexpected positions %v", got)
	}

	mustAddTask(t, s, "urgent", 1)
	got := s.VisiblePositions()
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("expected positions recomputed after add, got %v", got)
	}
}

func TestToggleUnderFilterClampsSelection(t *testing.T) {
	s := newStateWith(DefaultOptions(), task("a", 1, 2, false), task("b", 2, 1, false))
	s.SetFilter(FilterActive)
	s.SelectLast()

	if !s.ToggleSelected() {
		t.Fatalf("toggle failed")
	}
	assertSelectionInBounds(t, s)
	if ids := visibleIDs(s); len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("expected toggled task to leave active view, got %v", ids)
	}
}

func TestToggleTwiceRestores(t *testing.T) {
	s := newStateWith(DefaultOptions(), task("a", 1, 1, false))
	s.ToggleSelected()
	s.ToggleSelected()
	got, _ := s.SelectedTask()
	if got.IsDone() {
		t.Fatalf("expected pending after double toggle")
	}
}

func TestScenarioCCancelDiscardsDraft(t *testing.T) {
	s := NewState(nil, DefaultOptions())
	s.EnterInsert()
	for _, r := range "half typed" {
		s.DraftInsert(r)
	}
	s.CancelDraft()

	if s.InInsert() {
		t.Fatalf("expected normal mode after cancel")
	}
	if len(s.VisiblePositions()) != 0 || s.Dirty() {
		t.Fatalf("expected collection untouched")
	}

	s.EnterInsert()
	d, ok := s.Draft()
	if !ok || d.Title != "" || d.Notes != "" || d.Priority != model.DefaultPriority || d.ActiveField() != FieldTitle {
		t.Fatalf("expected fresh draft on re-entry, got %+v", d)
	}
}

func TestScenarioDEmptyTitleStaysInInsert(t *testing.T) {
	s := NewState(nil, DefaultOptions())
	s.EnterInsert()
	s.DraftInsert(' ')

	if err := s.CommitDraft(); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if !s.InInsert() {
		t.Fatalf("expected to remain in insert mode")
	}
	if len(s.VisiblePositions()) != 0 || s.Dirty() {
		t.Fatalf("expected no mutation")
	}
	if st := s.Status(); !st.IsError || st.Text == "" {
		t.Fatalf("expected validation status, got %+v", st)
	}
}

func TestCommitDraftAddsAllFields(t *testing.T) {
	s := NewState(nil, DefaultOptions())
	s.EnterInsert()
	for _, r := range "Ship" {
		s.DraftInsert(r)
	}
	s.DraftNextField()
	for _, r := range "with notes" {
		s.DraftInsert(r)
	}
	s.DraftNextField()
	for _, r := range "Fri" {
		s.DraftInsert(r)
	}
	s.DraftNextField()
	s.DraftAdjustPriority(1)
	s.DraftAdjustPriority(1)

	if err := s.CommitDraft(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if s.InInsert() || !s.Dirty() {
		t.Fatalf("expected normal mode and dirty after commit")
	}
	got, ok := s.SelectedTask()
	if !ok {
		t.Fatalf("expected new task selected")
	}
	if got.Title != "Ship" || got.NotesText() != "with notes" || got.TimeframeText() != "Fri" || got.Priority != 3 {
		t.Fatalf("unexpected task %+v", got)
	}
}

func TestFieldCyclingPolicies(t *testing.T) {
	cases := []struct {
		name string
		wrap bool
		want Field
	}{
		{name: "wrap", wrap: true, want: FieldTitle},
		{name: "dead end", wrap: false, want: FieldPriority},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewState(nil, Options{WrapFields: tc.wrap})
			s.EnterInsert()
			for i := 0; i < 4; i++ {
				s.DraftNextField()
			}
			d, _ := s.Draft()
			if d.ActiveField() != tc.want {
				t.Fatalf("expected %v after 4 tabs, got %v", tc.want, d.ActiveField())
			}
		})
	}
}

func TestPrevFieldPolicies(t *testing.T) {
	s := NewState(nil, Options{WrapFields: false})
	s.EnterInsert()
	s.DraftPrevField()
	if d, _ := s.Draft(); d.ActiveField() != FieldTitle {
		t.Fatalf("expected dead end at first field, got %v", d.ActiveField())
	}

	s = NewState(nil, Options{WrapFields: true})
	s.EnterInsert()
	s.DraftPrevField()
	if d, _ := s.Draft(); d.ActiveField() != FieldPriority {
		t.Fatalf("expected wrap to last field, got %v", d.ActiveField())
	}
}

func TestDraftPriorityInput(t *testing.T) {
	s := NewState(nil, DefaultOptions())
	s.EnterInsert()

	s.DraftAdjustPriority(1)
	if d, _ := s.Draft(); d.Priority != model.DefaultPriority {
		t.Fatalf("expected priority untouched off the priority field, got %d", d.Priority)
	}

	s.DraftPrevField()
	s.DraftAdjustPriority(-1)
	if d, _ := s.Draft(); d.Priority != 1 {
		t.Fatalf("expected saturation at 1, got %d", d.Priority)
	}
	for i := 0; i < 10; i++ {
		s.DraftAdjustPriority(1)
	}
	if d, _ := s.Draft(); d.Priority != 5 {
		t.Fatalf("expected saturation at 5, got %d", d.Priority)
	}
	s.DraftInsert('2')
	s.DraftInsert('9')
	s.DraftInsert('z')
	if d, _ := s.Draft(); d.Priority != 2 || d.Title != "" {
		t.Fatalf("expected digit 2 to set priority only, got %+v", d)
	}
}

func TestDraftBackspaceIsRuneAware(t *testing.T) {
	s := NewState(nil, DefaultOptions())
	s.EnterInsert()
	for _, r := range "café" {
		s.DraftInsert(r)
	}
	s.DraftBackspace()
	if d, _ := s.Draft(); d.Title != "caf" {
		t.Fatalf("expected last rune removed, got %q", d.Title)
	}
	for i := 0; i < 5; i++ {
		s.DraftBackspace()
	}
	if d, _ := s.Draft(); d.Title != "" {
		t.Fatalf("expected empty title, got %q", d.Title)
	}
}

func TestTimeframeEdit(t *testing.T) {
	s := newStateWith(DefaultOptions(), task("a", 1, 1, false))
	if err := s.EnterTimeframeEdit(); err != nil {
		t.Fatalf("enter timeframe edit failed: %v", err)
	}
	d, _ := s.Draft()
	if d.Purpose != PurposeTimeframe || d.TargetID != "a" || d.ActiveField() != FieldTimeframe {
		t.Fatalf("unexpected draft %+v", d)
	}
	for _, r := range "Today 3-5pm" {
		s.DraftInsert(r)
	}
	if err := s.CommitDraft(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	got, _ := s.SelectedTask()
	if got.TimeframeText() != "Today 3-5pm" || !s.Dirty() {
		t.Fatalf("expected timeframe set and dirty, got %+v", got)
	}
}

func TestTimeframeEditWithoutSelection(t *testing.T) {
	s := NewState(nil, DefaultOptions())
	if err := s.EnterTimeframeEdit(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if s.InInsert() {
		t.Fatalf("expected to stay in normal mode")
	}
}

func TestTimeframeEditStaleTarget(t *testing.T) {
	s := newStateWith(DefaultOptions(), task("a", 1, 1, false))
	if err := s.EnterTimeframeEdit(); err != nil {
		t.Fatalf("enter failed: %v", err)
	}
	s.tasks.DeleteAt(0)

	if err := s.CommitDraft(); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if s.InInsert() || !s.Status().IsError {
		t.Fatalf("expected normal mode with error status")
	}
}

func TestFlushClearsDirtyOnlyOnSuccess(t *testing.T) {
	s := NewState(nil, DefaultOptions())
	calls := 0
	ok := func(*model.Collection) error { calls++; return nil }
	failing := func(*model.Collection) error { calls++; return errors.New("disk full") }

	if err := s.Flush(ok); err != nil || calls != 0 {
		t.Fatalf("expected clean state to skip save, calls=%d err=%v", calls, err)
	}

	mustAddTask(t, s, "x", 1)
	if err := s.Flush(failing); err == nil {
		t.Fatalf("expected save error")
	}
	if !s.Dirty() || !s.Status().IsError {
		t.Fatalf("expected dirty kept and error status after failed save")
	}

	if err := s.Flush(ok); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if s.Dirty() || calls != 2 {
		t.Fatalf("expected dirty cleared after successful save, calls=%d", calls)
	}
}

func TestRequestSave(t *testing.T) {
	s := NewState(nil, DefaultOptions())
	s.RequestSave()
	if !s.Dirty() {
		t.Fatalf("expected dirty after save request")
	}
	s.MarkSaved()
	if s.Dirty() || s.Status().Text != "Saved" {
		t.Fatalf("expected saved status, got %+v", s.Status())
	}
}

func TestParseFilter(t *testing.T) {
	cases := map[string]Filter{"": FilterAll, "ALL": FilterAll, "active": FilterActive, "done": FilterDone}
	for in, want := range cases {
		got, err := ParseFilter(in)
		if err != nil || got != want {
			t.Fatalf("ParseFilter(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFilter("someday"); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	s := newStateWith(DefaultOptions(), task("a", 1, 2, true), task("b", 7, 1, false))
	s.SelectLast()
	snap := s.Snapshot()

	if len(snap.Rows) != 2 || snap.Rows[1].Position != 1 || !snap.Rows[1].Selected || snap.Rows[0].Selected {
		t.Fatalf("unexpected rows %+v", snap.Rows)
	}
	if snap.Total != 2 || snap.Done != 1 || snap.Active != 1 || snap.PercentDone != 0.5 {
		t.Fatalf("unexpected counts %+v", snap)
	}
	if snap.ByPriority[0] != 1 || snap.ByPriority[4] != 1 {
		t.Fatalf("unexpected histogram %v", snap.ByPriority)
	}
	if snap.Insert {
		t.Fatalf("expected normal mode snapshot")
	}

	s.EnterInsert()
	s.DraftInsert('z')
	snap = s.Snapshot()
	if !snap.Insert || snap.Draft.Title != "z" {
		t.Fatalf("expected draft in snapshot, got %+v", snap.Draft)
	}
	snap.Draft.Fields[0] = FieldPriority
	if d, _ := s.Draft(); d.Fields[0] != FieldTitle {
		t.Fatalf("expected snapshot draft to be a copy")
	}
}
