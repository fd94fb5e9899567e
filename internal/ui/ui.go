package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tracklift/internal/models"
	"github.com/dustin/go-humanize"
)

// Agent is the part of the agent the popup drives. A bus client satisfies it.
type Agent interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	SetSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error)
	GetSession(ctx context.Context) (models.SessionStatus, error)
	StartLogin(ctx context.Context) (models.LoginStarted, error)
}

const (
	backendField = iota
	playlistField
)

// Model represents the popup state.
type Model struct {
	ctx     context.Context
	agent   Agent
	inputs  []textinput.Model
	focus   int
	session *models.SessionStatus
	status  string // outcome of the last save or login, shown under the fields
	err     error
	help    help.Model
	keys    keyMap
	now     func() time.Time
}

// NewModel creates a popup bound to agent.
func NewModel(ctx context.Context, agent Agent) *Model {
	backend := textinput.New()
	backend.Placeholder = models.DefaultBackendBaseURL
	backend.CharLimit = 256
	backend.Width = 40

	playlist := textinput.New()
	playlist.Placeholder = "Spotify playlist ID"
	playlist.CharLimit = 64
	playlist.Width = 40

	m := &Model{
		ctx:    ctx,
		agent:  agent,
		inputs: []textinput.Model{backend, playlist},
		help:   help.New(),
		keys:   newKeyMap(),
		now:    time.Now,
	}
	m.inputs[backendField].Focus()
	return m
}

// Init loads the saved settings and checks the session.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadSettings(), m.checkSession(), textinput.Blink)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.next):
			return m, m.setFocus(m.focus + 1)
		case key.Matches(msg, m.keys.prev):
			return m, m.setFocus(m.focus - 1)
		case key.Matches(msg, m.keys.save):
			m.status = "Saving..."
			return m, m.saveSettings()
		case key.Matches(msg, m.keys.login):
			m.status = "Opening Spotify login..."
			return m, m.startLogin()
		case key.Matches(msg, m.keys.recheck):
			m.session = nil
			return m, m.checkSession()
		}

	case Msg:
		return m.handleResult(msg)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) handleResult(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSettingsLoaded:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.fill(msg.data.(models.Settings))

	case MsgSettingsSaved:
		if msg.err != nil {
			m.status = ""
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.fill(msg.data.(models.Settings))
		m.status = "Settings saved."
		m.session = nil
		return m, m.checkSession()

	case MsgSessionChecked:
		if msg.err != nil {
			m.session = &models.SessionStatus{Authenticated: false, Error: msg.err.Error()}
			return m, nil
		}
		status := msg.data.(models.SessionStatus)
		m.session = &status

	case MsgLoginStarted:
		if msg.err != nil {
			m.status = ""
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = "Finish logging in in your browser, then press ctrl+r."
	}
	return m, nil
}

func (m *Model) fill(s models.Settings) {
	m.inputs[backendField].SetValue(s.BackendBaseURL)
	m.inputs[playlistField].SetValue(s.PlaylistID)
}

func (m *Model) setFocus(i int) tea.Cmd {
	n := len(m.inputs)
	m.focus = ((i % n) + n) % n
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	return m.inputs[m.focus].Focus()
}

// patch collects both fields. Saving always writes both.
func (m *Model) patch() models.SettingsPatch {
	backend := strings.TrimSpace(m.inputs[backendField].Value())
	playlist := strings.TrimSpace(m.inputs[playlistField].Value())
	return models.SettingsPatch{BackendBaseURL: &backend, PlaylistID: &playlist}
}

func (m *Model) loadSettings() tea.Cmd {
	return func() tea.Msg {
		return settingsLoadedMsg(m.agent.GetSettings(m.ctx))
	}
}

func (m *Model) saveSettings() tea.Cmd {
	patch := m.patch()
	return func() tea.Msg {
		return settingsSavedMsg(m.agent.SetSettings(m.ctx, patch))
	}
}

func (m *Model) checkSession() tea.Cmd {
	return func() tea.Msg {
		return sessionCheckedMsg(m.agent.GetSession(m.ctx))
	}
}

func (m *Model) startLogin() tea.Cmd {
	return func() tea.Msg {
		return loginStartedMsg(m.agent.StartLogin(m.ctx))
	}
}

// View renders the popup.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("tracklift"))
	b.WriteString("\n")
	b.WriteString(m.renderSession())
	b.WriteString("\n\n")

	labels := []string{"Backend URL", "Playlist ID"}
	for i, input := range m.inputs {
		label := styles.label.Render(labels[i])
		if i == m.focus {
			label = styles.focused.Render(labels[i])
		}
		fmt.Fprintf(&b, "%s %s\n", label, input.View())
	}

	if m.err != nil {
		b.WriteString("\n" + styles.err.Render("Error: "+m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + styles.help.Render(m.status) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderSession() string {
	switch {
	case m.session == nil:
		return styles.help.Render("Checking session...")
	case !m.session.Authenticated:
		reason := m.session.Error
		if reason == "" {
			reason = "not connected"
		}
		return styles.warn.Render("Not connected: " + reason)
	}

	name := "Spotify"
	if u := m.session.User; u != nil {
		name = u.DisplayName
		if name == "" {
			name = u.ID
		}
	}
	line := styles.ok.Render("Connected as " + name)
	if exp := m.session.TokenExpiresAt; exp != nil {
		line += styles.help.Render(" · token expires " + humanize.RelTime(time.UnixMilli(*exp), m.now(), "ago", "from now"))
	}
	return line
}

// Run starts the popup on the terminal and blocks until the user quits.
func Run(ctx context.Context, agent Agent) error {
	_, err := tea.NewProgram(NewModel(ctx, agent), tea.WithContext(ctx)).Run()
	return err
}
