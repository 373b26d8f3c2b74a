package tui

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"todo-tui/app"
	"todo-tui/logging"
	"todo-tui/model"
	"todo-tui/store"
)

type tab int

const (
	tabTodos tab = iota
	tabDashboard
)

func (t tab) String() string {
	if t == tabDashboard {
		return "Dashboard"
	}
	return "Todos"
}

const (
	defaultTick     = 80 * time.Millisecond
	activitySamples = 48
)

type tickMsg time.Time

// Options configures the hosting loop.
type Options struct {
	DataFile string
	Backups  int
	Tick     time.Duration
	NoColor  bool
	Logger   *log.Logger

	// Save persists the collection. Defaults to store.Autosave on DataFile.
	Save func(*model.Collection) error
	// Copy places text on the clipboard. Defaults to clipboard.WriteAll.
	Copy func(string) error
}

// Model hosts an app.State inside a bubbletea program. It translates key
// presses into dispatcher events and flushes the state after each one.
type Model struct {
	state *app.State
	opts  Options
	log   *log.Logger

	tab      tab
	showHelp bool

	width  int
	height int

	keys       keyMap
	insertKeys insertKeyMap
	help       help.Model
	table      table.Model
	detail     viewport.Model
	gauge      progress.Model

	detailKey string
	mdStyle   string

	frame           int
	ticksPerSample  int
	ticksSeen       int
	eventsThisRound int
	activity        []int

	err error
}

func NewModel(state *app.State, opts Options) *Model {
	if opts.Tick <= 0 {
		opts.Tick = defaultTick
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Save == nil {
		path, keep := opts.DataFile, opts.Backups
		opts.Save = func(c *model.Collection) error {
			return store.Autosave(path, c, keep)
		}
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}

	perSample := int(time.Second / opts.Tick)
	if perSample < 1 {
		perSample = 1
	}

	gaugeOpts := []progress.Option{progress.WithDefaultGradient(), progress.WithoutPercentage()}
	mdStyle := "dark"
	if opts.NoColor {
		gaugeOpts = []progress.Option{progress.WithColorProfile(termenv.Ascii), progress.WithoutPercentage()}
		mdStyle = "notty"
	}

	t := table.New(
		table.WithColumns(taskColumns(60)),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())

	m := &Model{
		state:          state,
		opts:           opts,
		log:            opts.Logger,
		keys:           defaultKeyMap(),
		insertKeys:     defaultInsertKeyMap(),
		help:           help.New(),
		table:          t,
		detail:         viewport.New(40, 10),
		gauge:          progress.New(gaugeOpts...),
		mdStyle:        mdStyle,
		ticksPerSample: perSample,
		activity:       make([]int, 0, activitySamples),
	}
	m.syncWidgets()
	return m
}

// Run starts the full-screen program and blocks until it quits. A failed
// final save is returned so the caller can exit non-zero.
func Run(state *app.State, opts Options) error {
	if opts.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	m := NewModel(state, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return m.Err()
}

// Err is the error from the last flush before quitting, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		app.Dispatch(m.state, app.KeyEvent(app.KeyResize))
		m.syncWidgets()
	case tickMsg:
		app.Dispatch(m.state, app.KeyEvent(app.KeyTick))
		m.advance()
		return m, m.tick()
	case tea.KeyMsg:
		// Pasted text is only meaningful inside a draft.
		if msg.Paste && !m.state.InInsert() {
			return m, nil
		}
		if m.handleHostKey(msg) {
			return m, nil
		}
		if quit := m.handleKey(msg); quit {
			return m, tea.Quit
		}
	}
	return m, nil
}

// handleHostKey consumes keys that only affect presentation. Insert mode owns
// every key so that Tab and ? reach the draft.
func (m *Model) handleHostKey(msg tea.KeyMsg) bool {
	if m.state.InInsert() {
		return false
	}
	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return true
	case m.showHelp && msg.Type == tea.KeyEsc:
		m.showHelp = false
		m.help.ShowAll = false
		return true
	case key.Matches(msg, m.keys.SwitchTo):
		m.tab = (m.tab + 1) % 2
		return true
	}
	return false
}

func (m *Model) handleKey(msg tea.KeyMsg) bool {
	quit := false
	for _, ev := range translateKey(msg) {
		out := app.Dispatch(m.state, ev)
		m.eventsThisRound++
		if out.Copy != "" {
			m.copy(out.Copy)
		}
		if out.Quit {
			quit = true
			break
		}
	}

	m.err = m.flush()
	m.syncWidgets()
	return quit
}

func (m *Model) flush() error {
	if !m.state.Dirty() {
		return nil
	}
	err := m.state.Flush(m.opts.Save)
	if err != nil {
		m.log.Error("save failed", "path", m.opts.DataFile, "err", err)
		return err
	}
	m.log.Debug("saved", "path", m.opts.DataFile, "tasks", m.state.Snapshot().Total)
	return nil
}

func (m *Model) copy(text string) {
	if err := m.opts.Copy(text); err != nil {
		m.log.Warn("clipboard unavailable", "err", err)
		m.state.SetStatus("Copy failed: "+err.Error(), true)
		return
	}
	m.state.SetStatus("Copied: "+truncateRunes(text, 40), false)
}

// advance moves the pulse animation and rolls the activity window.
func (m *Model) advance() {
	m.frame++
	m.ticksSeen++
	if m.ticksSeen < m.ticksPerSample {
		return
	}
	m.ticksSeen = 0
	m.activity = append(m.activity, m.eventsThisRound)
	if len(m.activity) > activitySamples {
		m.activity = m.activity[len(m.activity)-activitySamples:]
	}
	m.eventsThisRound = 0
}

// syncWidgets copies the current snapshot into the bubbles widgets. The table
// cursor mirrors the selection, which keeps the selected row scrolled into
// view.
func (m *Model) syncWidgets() {
	snap := m.state.Snapshot()

	leftW, rightW := m.paneWidths(m.viewportWidth(), 1)
	bodyH := m.bodyHeight()

	m.table.SetColumns(taskColumns(leftW))
	m.table.SetRows(taskRows(snap))
	m.table.SetHeight(clamp(bodyH-1, 3, bodyH))
	if len(snap.Rows) > 0 {
		m.table.SetCursor(snap.Selection)
	}

	m.detail.Width = rightW
	m.detail.Height = clamp(bodyH-2, 3, bodyH)
	row, ok := snap.Selected()
	detailKey := ""
	if ok {
		detailKey = detailCacheKey(row.Task, rightW)
	}
	if detailKey != m.detailKey {
		m.detailKey = detailKey
		if ok {
			m.detail.SetContent(renderMarkdown(taskMarkdown(row.Task), m.mdStyle, rightW))
		} else {
			m.detail.SetContent(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("Nothing selected."))
		}
		m.detail.GotoTop()
	}

	m.gauge.Width = clamp(m.viewportWidth()-4, 10, 80)
	m.help.Width = m.viewportWidth()
}

func (m *Model) bodyHeight() int {
	h := m.height - 6
	if h < 8 {
		h = 8
	}
	return h
}

func (m *Model) viewportWidth() int {
	if m.width <= 0 {
		return 80
	}
	// One spare column keeps the right border from wrapping on some terminals.
	if m.width > 1 {
		return m.width - 1
	}
	return m.width
}

func (m *Model) paneWidths(total, gap int) (int, int) {
	if total <= 0 {
		return 24, 30
	}
	if gap < 0 {
		gap = 0
	}

	minLeft := 30
	minRight := 20
	if total < minLeft+minRight+gap {
		left := total * 2 / 3
		if left < 12 {
			left = 12
		}
		right := total - left - gap
		if right < 10 {
			right = 10
			left = total - right - gap
			if left < 12 {
				left = 12
			}
		}
		return left, right
	}

	right := total / 3
	if right < 24 {
		right = 24
	}
	if right > 60 {
		right = 60
	}

	left := total - right - gap
	if left < minLeft {
		left = minLeft
		right = total - left - gap
	}
	if right < minRight {
		right = minRight
		left = total - right - gap
	}
	return left, right
}

func (m *Model) statusLine(st app.Status) (string, lipgloss.Style) {
	text := strings.TrimSpace(st.Text)
	if text == "" {
		text = "Ready"
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	if st.IsError {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
	return text, style
}
