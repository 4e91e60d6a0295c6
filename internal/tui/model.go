package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aanand-mishra/student-records/internal/state"
	"github.com/aanand-mishra/student-records/internal/types"
)

// stateChangedMsg tells the model the Store has a new snapshot.
type stateChangedMsg struct{}

// opDoneMsg reports the end of an async Store operation. Failures are
// already in the Store's state; err is kept for logging by callers.
type opDoneMsg struct{ err error }

// Model is the root bubbletea model.
type Model struct {
	ctx     context.Context
	store   *state.Store
	changes <-chan struct{}

	st        state.State
	cursor    int
	form      form
	confirmID int64
	spinner   spinner.Model
	styles    Styles
	width     int
}

// New builds the model over store. The model re-renders whenever the
// store notifies a change; call the returned stop function when the
// program exits to remove the subscription.
func New(ctx context.Context, store *state.Store) (Model, func()) {
	changes := make(chan struct{}, 1)
	stop := store.Subscribe(func(state.State) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(Primary)

	return Model{
		ctx:     ctx,
		store:   store,
		changes: changes,
		st:      store.State(),
		form:    newForm(),
		spinner: sp,
		styles:  DefaultStyles(),
	}, stop
}

// Init starts the spinner, the change listener and the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForChange(), m.run(m.store.FetchStudents))
}

func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return stateChangedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) run(op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{err: op(ctx)}
	}
}

func (m *Model) dispatch(a state.Action) {
	m.store.Dispatch(a)
	m.refresh()
}

func (m *Model) refresh() {
	m.st = m.store.State()
	if m.cursor >= len(m.st.Students) {
		m.cursor = max(len(m.st.Students)-1, 0)
	}
}

func (m Model) current() *types.Student {
	if m.cursor < 0 || m.cursor >= len(m.st.Students) {
		return nil
	}
	s := m.st.Students[m.cursor]
	return &s
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case stateChangedMsg:
		m.refresh()
		return m, m.waitForChange()

	case opDoneMsg:
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch {
		case m.confirmID != 0:
			return m.updateConfirm(msg)
		case m.st.ModalOpen && m.st.ModalMode == state.ModeView:
			return m.updateViewPanel(msg)
		case m.st.ModalOpen:
			return m.updateForm(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.st.Students)-1 {
			m.cursor++
		}
	case "n", "a":
		m.form.load(nil)
		m.dispatch(state.OpenModal(state.ModeCreate, nil))
	case "enter", "v":
		if s := m.current(); s != nil {
			m.dispatch(state.OpenModal(state.ModeView, s))
		}
	case "e":
		if s := m.current(); s != nil {
			m.form.load(s)
			m.dispatch(state.OpenModal(state.ModeEdit, s))
		}
	case "d", "x":
		if s := m.current(); s != nil {
			m.confirmID = s.StudentID
		}
	case "r":
		return m, m.run(m.store.FetchStudents)
	case "esc":
		if m.st.Error != "" {
			m.dispatch(state.ClearError())
		}
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		id := m.confirmID
		m.confirmID = 0
		return m, m.run(func(ctx context.Context) error {
			return m.store.DeleteStudent(ctx, id)
		})
	case "n", "N", "esc":
		m.confirmID = 0
	}
	return m, nil
}

func (m Model) updateViewPanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.dispatch(state.CloseModal())
	case "e":
		if s := m.st.Selected; s != nil {
			m.form.load(s)
			m.dispatch(state.OpenModal(state.ModeEdit, s))
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.dispatch(state.CloseModal())
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, m.form.next()
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.form.prev()
	case tea.KeyCtrlS:
		return m.submit()
	case tea.KeyEnter:
		if m.form.lastFocused() {
			return m.submit()
		}
		return m, m.form.next()
	}
	return m, m.form.update(msg)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.st.Loading {
		return m, nil
	}
	dto, err := m.form.dto()
	if err != nil {
		m.form.err = err.Error()
		return m, nil
	}
	m.form.err = ""

	if m.st.ModalMode == state.ModeEdit && m.st.Selected != nil {
		update := dto.ForUpdate(m.st.Selected.StudentID)
		return m, m.run(func(ctx context.Context) error {
			return m.store.UpdateStudent(ctx, update)
		})
	}
	return m, m.run(func(ctx context.Context) error {
		return m.store.CreateStudent(ctx, dto)
	})
}

// View renders the screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Student Management System"))
	if m.st.Loading {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render(fmt.Sprintf("%d students", len(m.st.Students))))
	b.WriteString("\n")

	if m.st.Error != "" {
		b.WriteString(m.styles.ErrorBanner.Render("✗ " + m.st.Error + "  (esc to dismiss)"))
		b.WriteString("\n")
	}

	switch {
	case m.confirmID != 0:
		b.WriteString(m.viewConfirm())
	case m.st.ModalOpen && m.st.ModalMode == state.ModeView:
		b.WriteString(m.viewPanel())
	case m.st.ModalOpen:
		b.WriteString(m.viewForm())
	default:
		b.WriteString(m.viewList())
	}

	return b.String()
}

func (m Model) viewList() string {
	var b strings.Builder

	switch {
	case m.st.Loading && len(m.st.Students) == 0:
		b.WriteString(m.spinner.View() + " Loading students...\n")
	case len(m.st.Students) == 0:
		b.WriteString(m.styles.Muted.Render("No students found. Add your first student!"))
		b.WriteString("\n")
	}

	for i, s := range m.st.Students {
		b.WriteString(m.viewCard(s, i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString(m.help("↑/↓", "move", "n", "add", "v", "view", "e", "edit", "d", "delete", "r", "refresh", "q", "quit"))
	return b.String()
}

func (m Model) viewCard(s types.Student, selected bool) string {
	lines := []string{m.styles.Name.Render(s.FullName())}
	lines = append(lines, m.styles.Label.Render("Email")+s.Email)
	if s.Phone != nil {
		lines = append(lines, m.styles.Label.Render("Phone")+*s.Phone)
	}
	if s.City != nil {
		lines = append(lines, m.styles.Label.Render("Location")+*s.City+", "+types.StringValue(s.State))
	}
	lines = append(lines, m.styles.Muted.Render("Enrolled: "+s.EnrollmentDate.Format(types.DateLayout)))

	style := m.styles.Card
	if selected {
		style = m.styles.SelectedCard
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m Model) viewPanel() string {
	s := m.st.Selected
	if s == nil {
		return m.styles.Modal.Render("No student selected")
	}

	row := func(label, value string) string {
		if value == "" {
			value = "-"
		}
		return m.styles.FieldLabel.Render(label) + value
	}
	dob := ""
	if s.DateOfBirth != nil {
		dob = s.DateOfBirth.String()
	}
	active := "No"
	if s.IsActive {
		active = "Yes"
	}

	body := strings.Join([]string{
		m.styles.Title.Render("Student Details"),
		"",
		row("ID", fmt.Sprint(s.StudentID)),
		row("Name", s.FullName()),
		row("Email", s.Email),
		row("Phone", types.StringValue(s.Phone)),
		row("Date of Birth", dob),
		row("Address", types.StringValue(s.Address)),
		row("City", types.StringValue(s.City)),
		row("State", types.StringValue(s.State)),
		row("Zip Code", types.StringValue(s.ZipCode)),
		row("Enrolled", s.EnrollmentDate.Format(types.DateLayout)),
		row("Active", active),
	}, "\n")

	return m.styles.Modal.Render(body) + "\n" + m.help("e", "edit", "esc", "close")
}

func (m Model) viewForm() string {
	title := "Add New Student"
	action := "Create"
	if m.st.ModalMode == state.ModeEdit {
		title = "Edit Student"
		action = "Update"
	}
	if m.st.Loading {
		action = "Saving..."
	}

	body := m.styles.Title.Render(title) + "\n\n" + m.form.view(m.styles)
	return m.styles.Modal.Render(body) + "\n" + m.help("tab", "next field", "ctrl+s", action, "esc", "cancel")
}

func (m Model) viewConfirm() string {
	body := m.styles.Danger.Render("Confirm Delete") + "\n\n" +
		"Are you sure you want to delete this student? This action cannot be undone."
	return m.styles.Confirm.Render(body) + "\n" + m.help("y", "delete", "n", "cancel")
}

func (m Model) help(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, m.styles.Key.Render(pairs[i])+" "+pairs[i+1])
	}
	return m.styles.Help.Render(strings.Join(parts, " • "))
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, store *state.Store) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m, stop := New(ctx, store)
	defer stop()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
