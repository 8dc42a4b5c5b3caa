// Package ui is the terminal rendering layer. It reads store snapshots,
// evaluates deadlines against the clock on every tick and dispatches user
// intents to the store as asynchronous commands.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/clock"
	"taskdeck/internal/config"
	"taskdeck/internal/deadline"
	"taskdeck/internal/edit"
	"taskdeck/internal/store"
	"taskdeck/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
)

const (
	fieldTitle = iota
	fieldDeadline
	fieldCount
)

const clockLayout = "2006-01-02 15:04:05"

type Model struct {
	ctx     context.Context
	store   *store.Store
	session *edit.Session
	clock   *clock.Clock
	cfg     config.Config
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	snap       store.Snapshot
	now        time.Time
	cursor     int
	mode       mode
	inputs     []textinput.Model
	field      int
	status     string
	confirmDel bool
	pendingDel *task.Task
}

func New(ctx context.Context, st *store.Store, clk *clock.Clock, cfg config.Config) Model {
	title := textinput.New()
	title.Placeholder = "Task title"
	title.CharLimit = 256
	title.Width = 40

	due := textinput.New()
	due.Placeholder = "Deadline (YYYY-MM-DDTHH:MM, optional)"
	due.CharLimit = 32
	due.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		store:   st,
		session: edit.NewSession(st),
		clock:   clk,
		cfg:     cfg,
		keys:    newKeyMap(cfg.Keys),
		help:    help.New(),
		spinner: sp,
		snap:    st.Snapshot(),
		now:     clk.Now(),
		mode:    modeList,
		inputs:  []textinput.Model{title, due},
		status:  "Loading tasks...",
	}
}

// Run starts the clock, runs the program until the user quits and stops the
// clock before returning.
func Run(ctx context.Context, st *store.Store, clk *clock.Clock, cfg config.Config) error {
	clk.Start()
	defer clk.Stop()

	program := tea.NewProgram(New(ctx, st, clk, cfg), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForTick(m.clock),
		refreshCmd(m.ctx, m.store),
		m.spinner.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmDel {
			return m.updateDeleteConfirm(msg)
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		for i := range m.inputs {
			m.inputs[i].Width = max(msg.Width-10, 10)
		}
		m.help.Width = msg.Width
	case tickMsg:
		m.now = msg.now
		return m, waitForTick(m.clock)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case opDoneMsg:
		return m.applySnapshot(msg.snap, msg.err, doneStatus(msg.op)), nil
	case renameDoneMsg:
		m.session.Complete(msg.draft, msg.err)
		if msg.err == nil && m.mode == modeEdit && !m.session.Active() {
			m.leaveForm()
		}
		return m.applySnapshot(msg.snap, msg.err, "Task updated"), nil
	}
	return m, nil
}

// applySnapshot swaps in the store's state, keeping the cursor on the same
// task when it still exists.
func (m Model) applySnapshot(snap store.Snapshot, err error, okStatus string) Model {
	selected := m.selectedID()
	m.snap = snap
	m.cursor = clampCursor(m.cursor, len(snap.Tasks))
	if i := task.IndexOf(snap.Tasks, selected); i >= 0 {
		m.cursor = i
	}
	switch {
	case err != nil:
		m.status = store.Message(err)
	case snap.Message != "":
		m.status = snap.Message
	default:
		m.status = okStatus
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeAdd || m.mode == modeEdit {
		return m.updateFormMode(msg)
	}
	return m.updateListMode(msg)
}

func (m Model) updateListMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tasks := m.snap.Tasks
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Down):
		if len(tasks) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(tasks))
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(tasks))
		}
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.resetInputs("", "")
		m.status = "Add mode: type a title, tab to the deadline, enter to save"
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Refresh):
		m.status = "Refreshing..."
		return m, refreshCmd(m.ctx, m.store)
	case key.Matches(msg, m.keys.Toggle):
		if len(tasks) == 0 {
			return m, nil
		}
		return m, toggleCmd(m.ctx, m.store, tasks[m.cursor].ID)
	case key.Matches(msg, m.keys.Delete):
		if len(tasks) == 0 {
			return m, nil
		}
		t := tasks[m.cursor]
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case key.Matches(msg, m.keys.Edit):
		if len(tasks) == 0 {
			m.status = "No tasks to edit"
			return m, nil
		}
		return m.startEdit(tasks[m.cursor])
	}
	return m, nil
}

func (m Model) startEdit(t task.Task) (tea.Model, tea.Cmd) {
	m.session.Begin(t)
	d, _ := m.session.Draft()
	m.mode = modeEdit
	m.resetInputs(d.Title, d.Deadline)
	m.status = "Edit task: enter to save, esc to cancel"
	return m, textinput.Blink
}

func (m Model) updateFormMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.mode == modeEdit {
			m.session.Cancel()
		}
		m.leaveForm()
		m.status = "Cancelled"
		return m, nil
	case key.Matches(msg, m.keys.Next):
		step := 1
		if msg.String() == "shift+tab" {
			step = -1
		}
		m.focusField(wrapIndex(m.field+step, fieldCount))
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Confirm):
		if m.mode == modeEdit {
			return m.saveEdit()
		}
		return m.saveAdd()
	default:
		var cmd tea.Cmd
		m.inputs[m.field], cmd = m.inputs[m.field].Update(msg)
		return m, cmd
	}
}

func (m Model) saveAdd() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.inputs[fieldTitle].Value())
	if title == "" {
		m.status = "Title cannot be empty"
		return m, nil
	}
	d, err := parseDeadlineInput(m.inputs[fieldDeadline].Value())
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.leaveForm()
	m.status = "Adding..."
	return m, addCmd(m.ctx, m.store, title, d)
}

func (m Model) saveEdit() (tea.Model, tea.Cmd) {
	if _, err := parseDeadlineInput(m.inputs[fieldDeadline].Value()); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.session.SetTitle(m.inputs[fieldTitle].Value())
	m.session.SetDeadline(strings.TrimSpace(m.inputs[fieldDeadline].Value()))
	draft, ok := m.session.Submit()
	if !ok {
		// Blank title: the draft was discarded.
		m.leaveForm()
		m.status = "Edit discarded"
		return m, nil
	}
	m.status = "Saving..."
	return m, renameCmd(m.ctx, m.store, draft)
}

func (m Model) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.No):
		if m.pendingDel != nil {
			// A "no" never reaches the gateway.
			_ = m.store.Remove(m.ctx, m.pendingDel.ID, answer(false))
		}
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case key.Matches(msg, m.keys.Yes):
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		id := m.pendingDel.ID
		m.confirmDel = false
		m.pendingDel = nil
		m.status = "Deleting..."
		return m, removeCmd(m.ctx, m.store, id)
	default:
		return m, nil
	}
}

func (m *Model) resetInputs(title, due string) {
	m.inputs[fieldTitle].SetValue(title)
	m.inputs[fieldDeadline].SetValue(due)
	m.focusField(fieldTitle)
}

func (m *Model) focusField(i int) {
	m.field = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m *Model) leaveForm() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.field = fieldTitle
	m.mode = modeList
}

func (m Model) selectedID() string {
	if len(m.snap.Tasks) == 0 {
		return ""
	}
	return m.snap.Tasks[clampCursor(m.cursor, len(m.snap.Tasks))].ID
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("taskdeck"))
	b.WriteString("  ")
	b.WriteString(clockStyle.Render(m.now.Format(clockLayout)))
	b.WriteString("\n\n")

	if len(m.snap.Tasks) == 0 {
		b.WriteString("No tasks yet. Press '" + m.cfg.Keys.Add + "' to add one.")
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n---\n")

	switch m.mode {
	case modeAdd, modeEdit:
		label := "New task"
		if m.mode == modeEdit {
			label = "Edit task"
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(m.inputs[fieldTitle].View())
		b.WriteString("\n")
		b.WriteString(m.inputs[fieldDeadline].View())
		b.WriteString("\n")
	default:
		b.WriteString(faintStyle.Render(deadline.Summarize(m.snap.Tasks, m.now).String()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.snap.Loading() {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
	}
	if m.snap.Message != "" && m.status == m.snap.Message {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.currentHelp()))

	return b.String()
}

func (m Model) currentHelp() []key.Binding {
	switch {
	case m.confirmDel:
		return m.keys.confirmHelp()
	case m.mode == modeAdd || m.mode == modeEdit:
		return m.keys.formHelp()
	default:
		return m.keys.listHelp()
	}
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	for i, t := range m.snap.Tasks {
		ev := deadline.EvaluateTask(t, m.now)

		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = cursorStyle.Render(">")
		}

		checkbox := "[ ]"
		if t.Completed {
			checkbox = "[x]"
		}

		body := fmt.Sprintf("%s %s %s", cursor, checkbox, rowStyle(t, ev).Render(t.Title))
		if t.Deadline.IsSet() {
			body += faintStyle.Render("  due " + t.Deadline.Display())
		}
		if ev.Label != "" {
			body += "  " + statusLabelStyle(ev).Render("("+ev.Label+")")
		}
		if m.session.Editing(t.ID) {
			body += faintStyle.Render("  editing")
		}

		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String()
}

func parseDeadlineInput(v string) (task.Deadline, error) {
	d := task.ParseDeadline(v)
	if d.IsSet() && !d.Valid() {
		return task.Deadline{}, errors.New("deadline invalid: use YYYY-MM-DDTHH:MM")
	}
	return d, nil
}

func doneStatus(op string) string {
	switch op {
	case "refresh":
		return "Tasks loaded"
	case "add":
		return "Added task"
	case "toggle":
		return "Toggled task"
	case "delete":
		return "Deleted task"
	default:
		return ""
	}
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
