package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/nodecfg/internal/foreground"
	"github.com/muurk/nodecfg/internal/nodedata"
)

// Message types for async operations
type (
	storeChangedMsg struct{}

	submitDoneMsg struct {
		intent nodedata.Update
		label  string
		failed bool
	}
)

// Model is the dashboard for one node session.
type Model struct {
	ctx        context.Context
	session    *nodedata.Session
	foreground *foreground.Broadcaster
	alerts     *AlertQueue
	target     string

	snap nodedata.StoreSnapshot

	Width  int
	Height int

	// Status line under the node view
	status      string
	statusStyle lipgloss.Style

	// Alerts waiting to be acknowledged, oldest first
	pendingAlerts []string

	editingRoutes    bool
	routesInput      textinput.Model
	confirmingLogout bool
	showingHelp      bool

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// Config configures a dashboard Model.
type Config struct {
	Session *nodedata.Session

	// Alerts must be the Notifier the Session was built with
	Alerts *AlertQueue

	// Foreground receives focus changes; nil creates one
	Foreground *foreground.Broadcaster

	// Target is the node URL shown in the header
	Target string
}

// NewModel creates a dashboard model.
func NewModel(ctx context.Context, cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	routes := textinput.New()
	routes.Placeholder = "10.0.0.0/24,192.168.1.0/24"
	routes.CharLimit = 1024
	routes.Width = 50

	b := cfg.Foreground
	if b == nil {
		b = &foreground.Broadcaster{}
	}
	alerts := cfg.Alerts
	if alerts == nil {
		alerts = NewAlertQueue()
	}

	return Model{
		ctx:         ctx,
		session:     cfg.Session,
		foreground:  b,
		alerts:      alerts,
		target:      cfg.Target,
		snap:        cfg.Session.Store.Snapshot(),
		routesInput: routes,
		spinner:     s,
		help:        help.New(),
		keys:        defaultKeyMap(),
	}
}

// Init starts the spinner and the store and alert watchers
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForChange(m.session.Store.Changed()),
		m.alerts.next(),
	)
}

func waitForChange(changed <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changed
		return storeChangedMsg{}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.FocusMsg:
		m.foreground.Publish(foreground.Visible)
		return m, nil

	case tea.BlurMsg:
		m.foreground.Publish(foreground.Hidden)
		return m, nil

	case storeChangedMsg:
		// Take the channel before the snapshot so no change is missed
		changed := m.session.Store.Changed()
		m.snap = m.session.Store.Snapshot()
		return m, waitForChange(changed)

	case alertMsg:
		m.pendingAlerts = append(m.pendingAlerts, string(msg))
		return m, m.alerts.next()

	case submitDoneMsg:
		m.applySubmitResult(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	switch {
	case len(m.pendingAlerts) > 0:
		return m.updateAlertModal(msg)
	case m.showingHelp:
		return m.updateHelpModal(msg)
	case m.confirmingLogout:
		return m.updateLogoutModal(msg)
	case m.editingRoutes:
		return m.updateRoutesEditor(msg)
	}
	return m.updateNormalMode(msg)
}

func (m Model) updateNormalMode(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(keyMsg, m.keys.Help):
		m.showingHelp = true

	case key.Matches(keyMsg, m.keys.Refresh):
		m.setStatus("Refreshing…", StatusWarnStyle)
		return m, m.refreshCmd()

	case key.Matches(keyMsg, m.keys.ToggleExitNode):
		if !m.snap.Loaded {
			return m, nil
		}
		advertise := !m.snap.Node.AdvertiseExitNode
		return m.submit(nodedata.SetExitNode(advertise), fmt.Sprintf("Exit node %s", onOff(advertise)))

	case key.Matches(keyMsg, m.keys.EditRoutes):
		if !m.snap.Loaded {
			return m, nil
		}
		m.editingRoutes = true
		m.routesInput.SetValue(m.snap.Node.AdvertiseRoutes)
		m.routesInput.CursorEnd()
		return m, m.routesInput.Focus()

	case key.Matches(keyMsg, m.keys.Reauthenticate):
		return m.submit(nodedata.Reauthenticate(), "Reauthentication started")

	case key.Matches(keyMsg, m.keys.Logout):
		if m.snap.Loaded {
			m.confirmingLogout = true
		}
	}

	return m, nil
}

// submit dispatches an update unless one is already in flight. The Submitter
// enforces the same rule; checking here keeps the status line accurate.
func (m Model) submit(u nodedata.Update, label string) (tea.Model, tea.Cmd) {
	if m.session.Store.IsPosting() {
		m.setStatus(WarningMarker+" An update is already in progress", StatusWarnStyle)
		return m, nil
	}
	m.setStatus("Applying…", StatusWarnStyle)
	return m, m.submitCmd(u, label)
}

func (m Model) submitCmd(u nodedata.Update, label string) tea.Cmd {
	ctx, session, alerts := m.ctx, m.session, m.alerts
	return func() tea.Msg {
		before := alerts.Count()
		session.Submit(ctx, u)
		return submitDoneMsg{intent: u, label: label, failed: alerts.Count() > before}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		session.Refresh(ctx)
		return nil
	}
}

func (m *Model) applySubmitResult(msg submitDoneMsg) {
	m.snap = m.session.Store.Snapshot()

	if msg.failed {
		m.setStatus(FailureMarker+" "+msg.label+" failed", StatusErrorStyle)
		return
	}
	if mismatches := nodedata.Mismatches(msg.intent, m.snap.Node); len(mismatches) > 0 {
		m.setStatus(WarningMarker+" Node reports "+strings.Join(mismatches, "; "), StatusWarnStyle)
		return
	}
	m.setStatus(SuccessMarker+" "+msg.label, StatusOKStyle)
}

func (m *Model) setStatus(text string, style lipgloss.Style) {
	m.status = text
	m.statusStyle = style
}

func (m Model) updateRoutesEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.editingRoutes = false
			m.routesInput.Blur()
			return m, nil

		case "enter":
			routes := nodedata.NormalizeRoutes(m.routesInput.Value())
			if err := nodedata.ValidateRoutes(routes); err != nil {
				m.setStatus(FailureMarker+" "+err.Error(), StatusErrorStyle)
				return m, nil
			}
			m.editingRoutes = false
			m.routesInput.Blur()

			label := "Routes cleared"
			if routes != "" {
				label = "Routes set to " + routes
			}
			return m.submit(nodedata.SetRoutes(routes), label)
		}
	}

	var cmd tea.Cmd
	m.routesInput, cmd = m.routesInput.Update(msg)
	return m, cmd
}

func (m Model) updateLogoutModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y", "enter":
		m.confirmingLogout = false
		return m.submit(nodedata.Logout(), "Logged out")
	case "n", "N", "esc", "q":
		m.confirmingLogout = false
	}
	return m, nil
}

func (m Model) updateAlertModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter", " ", "esc":
			m.pendingAlerts = m.pendingAlerts[1:]
		}
	}
	return m, nil
}

func (m Model) updateHelpModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		m.showingHelp = false
	}
	return m, nil
}

// View renders the dashboard
func (m Model) View() string {
	switch {
	case len(m.pendingAlerts) > 0:
		return RenderModal(m.renderAlertModal(), m.Width, m.Height)
	case m.showingHelp:
		return RenderModal(m.renderHelpModal(), m.Width, m.Height)
	case m.confirmingLogout:
		return RenderModal(m.renderLogoutModal(), m.Width, m.Height)
	}
	return m.renderDashboard()
}

func (m Model) renderDashboard() string {
	width := ContentWidth(m.Width)

	parts := []string{m.renderHeader()}

	switch {
	case !m.snap.Loaded && m.snap.LastFetchError != nil:
		parts = append(parts, m.renderFetchError())
	case !m.snap.Loaded:
		parts = append(parts, fmt.Sprintf("\n%s Loading node data…", m.spinner.View()))
	default:
		parts = append(parts, m.renderNode())
	}

	if m.editingRoutes {
		editor := lipgloss.JoinVertical(lipgloss.Left,
			LabelStyle.Render("Routes"),
			m.routesInput.View(),
			SubtitleStyle.Render("comma-separated prefixes · enter to apply · esc to cancel"),
		)
		parts = append(parts, EditorStyle().Render(editor))
	}

	parts = append(parts, m.renderStatusLine())
	parts = append(parts, HelpStyle.Render(m.help.View(m.keys)))

	return ContainerStyle(width).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderHeader() string {
	title := TitleStyle.Render(fmt.Sprintf("%s v%s", AppName, AppVersion()))
	if m.target == "" {
		return title
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, SubtitleStyle.Render(m.target))
}

func (m Model) renderFetchError() string {
	err := m.snap.LastFetchError
	lines := []string{
		"",
		StatusErrorStyle.Render(FailureMarker + " " + nodedata.ShortMessage(err)),
	}
	if hint := nodedata.Hint(err); hint != "" {
		lines = append(lines, SubtitleStyle.Render(hint))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderNode() string {
	n := m.snap.Node

	routes := OffStyle.Render("(none)")
	if list := n.RouteList(); len(list) > 0 {
		routes = ValueStyle.Render(strings.Join(list, "\n"))
	}

	exitNode := OffStyle.Render("off")
	if n.AdvertiseExitNode {
		exitNode = OnStyle.Render("on")
	}

	sections := []string{
		SectionTitleStyle.Render("Device"),
		field("Name", n.DeviceName),
		field("Status", n.Status),
		field("IP", n.IP),
		field("Version", n.IPNVersion),
		field("Platform", n.Platform()),
		field("Network mode", n.NetworkMode()),

		SectionTitleStyle.Render("Identity"),
		field("User", n.Profile.DisplayName),
		field("Login", n.Profile.LoginName),

		SectionTitleStyle.Render("Advertisement"),
		lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render("Exit node"), exitNode),
		lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render("Routes"), routes),
	}

	updated := "Updated " + m.snap.UpdatedAt.Format(time.TimeOnly)
	if m.snap.LastFetchError != nil {
		updated += StatusWarnStyle.Render(fmt.Sprintf("  %s refresh failing (%s)",
			WarningMarker, nodedata.ShortMessage(m.snap.LastFetchError)))
	}
	sections = append(sections, "", SubtitleStyle.Render(updated))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStatusLine() string {
	if m.snap.Posting {
		return fmt.Sprintf("\n%s Applying…", m.spinner.View())
	}
	if m.status == "" {
		return ""
	}
	return "\n" + m.statusStyle.Render(m.status)
}

func (m Model) renderAlertModal() string {
	title := StatusErrorStyle.Bold(true).Render(FailureMarker + " OPERATION FAILED")
	body := ValueStyle.Render(m.pendingAlerts[0])
	footer := SubtitleStyle.Render("enter to dismiss")
	if n := len(m.pendingAlerts) - 1; n > 0 {
		footer = SubtitleStyle.Render(fmt.Sprintf("enter to dismiss · %d more", n))
	}
	return ModalStyle(ErrorColor).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", footer))
}

func (m Model) renderLogoutModal() string {
	title := StatusWarnStyle.Bold(true).Render(WarningMarker + " LOG OUT")
	body := ValueStyle.Render(fmt.Sprintf("Log %s out of the node? It stays offline until someone signs in again.",
		orDash(m.snap.Node.DeviceName)))
	footer := SubtitleStyle.Render("y to log out · n to cancel")
	return ModalStyle(WarningColor).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", footer))
}

func (m Model) renderHelpModal() string {
	h := m.help
	h.ShowAll = true
	title := TitleStyle.Render("KEYS")
	return ModalStyle(PrimaryColor).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", h.View(m.keys)))
}

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), ValueStyle.Render(orDash(value)))
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
