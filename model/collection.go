package model

import "sort"

// Collection is the ordered task list persisted to disk.
//
// Positions are indexes into Items. Any Add/Insert/DeleteAt invalidates
// positions captured before the call.
type Collection struct {
	Items []Task `json:"items"`
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{Items: []Task{}}
}

// Add builds a new task and inserts it in sorted position.
func (c *Collection) Add(title string, priority int, notes *string) Task {
	task := NewTask(title, priority, notes)
	c.Insert(task)
	return task
}

// Insert appends t and re-sorts the whole sequence by priority ascending,
// then created_at descending. After return t sits where the ordering puts it,
// not necessarily at the end.
func (c *Collection) Insert(t Task) {
	c.Items = append(c.Items, t)
	c.sort()
}

// DeleteAt removes the task at pos. Order of the remaining tasks is untouched.
func (c *Collection) DeleteAt(pos int) bool {
	if pos < 0 || pos >= len(c.Items) {
		return false
	}
	c.Items = append(c.Items[:pos], c.Items[pos+1:]...)
	return true
}

// ToggleAt flips the status of the task at pos without reordering.
func (c *Collection) ToggleAt(pos int) bool {
	if pos < 0 || pos >= len(c.Items) {
		return false
	}
	c.Items[pos].Toggle()
	return true
}

// SetTimeframeAt replaces the timeframe at pos. A blank value clears it.
func (c *Collection) SetTimeframeAt(pos int, timeframe string) bool {
	if pos < 0 || pos >= len(c.Items) {
		return false
	}
	c.Items[pos].Timeframe = OptionalText(timeframe)
	return true
}

// FindByID returns the current position of the task with id.
func (c *Collection) FindByID(id string) (int, bool) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (c *Collection) Len() int {
	return len(c.Items)
}

// At returns a copy of the task at pos.
func (c *Collection) At(pos int) (Task, bool) {
	if pos < 0 || pos >= len(c.Items) {
		return Task{}, false
	}
	return c.Items[pos], true
}

// Tasks returns a copy of all tasks in order.
func (c *Collection) Tasks() []Task {
	out := make([]Task, len(c.Items))
	copy(out, c.Items)
	return out
}

func (c *Collection) ActiveCount() int {
	n := 0
	for _, t := range c.Items {
		if !t.IsDone() {
			n++
		}
	}
	return n
}

func (c *Collection) DoneCount() int {
	return len(c.Items) - c.ActiveCount()
}

// PercentDone is the done ratio in [0,1]; an empty collection is 0.
func (c *Collection) PercentDone() float64 {
	if len(c.Items) == 0 {
		return 0
	}
	return float64(c.DoneCount()) / float64(len(c.Items))
}

// CountsByPriority counts tasks per priority bucket P1..P5.
// Out-of-range priorities land in the nearest bucket.
func (c *Collection) CountsByPriority() [PriorityLowest]int {
	var out [PriorityLowest]int
	for _, t := range c.Items {
		out[ClampPriority(t.Priority)-1]++
	}
	return out
}

func (c *Collection) sort() {
	sort.SliceStable(c.Items, func(i, j int) bool {
		a := c.Items[i]
		b := c.Items[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.CreatedAt > b.CreatedAt
	})
}
