package app

import "todo-tui/model"

// Row is one visible task together with its backing position.
type Row struct {
	Position int
	Task     model.Task
	Selected bool
}

// Snapshot is the read-only view of State handed to renderers.
type Snapshot struct {
	Rows      []Row
	Selection int
	Filter    Filter
	Insert    bool
	Draft     Draft
	Status    Status
	Dirty     bool

	Total       int
	Active      int
	Done        int
	PercentDone float64
	ByPriority  [model.PriorityLowest]int
}

// Selected returns the selected row, if any.
func (s Snapshot) Selected() (Row, bool) {
	if s.Selection < 0 || s.Selection >= len(s.Rows) {
		return Row{}, false
	}
	return s.Rows[s.Selection], true
}

func (s *State) Snapshot() Snapshot {
	positions := s.VisiblePositions()
	rows := make([]Row, 0, len(positions))
	for i, pos := range positions {
		rows = append(rows, Row{
			Position: pos,
			Task:     s.tasks.Items[pos],
			Selected: i == s.selection,
		})
	}

	snap := Snapshot{
		Rows:        rows,
		Selection:   s.selection,
		Filter:      s.filter,
		Status:      s.status,
		Dirty:       s.dirty,
		Total:       s.tasks.Len(),
		Active:      s.tasks.ActiveCount(),
		Done:        s.tasks.DoneCount(),
		PercentDone: s.tasks.PercentDone(),
		ByPriority:  s.tasks.CountsByPriority(),
	}
	if d, ok := s.Draft(); ok {
		snap.Insert = true
		snap.Draft = d
	}
	return snap
}
