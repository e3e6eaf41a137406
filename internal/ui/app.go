package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/swarmtail/internal/logstream"
	"github.com/five82/swarmtail/internal/prefs"
	"github.com/five82/swarmtail/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewForm View = iota
	ViewLogs
)

// Options configures the UI.
type Options struct {
	Context       context.Context
	Store         *state.Store
	Dialer        logstream.Dialer
	Logger        *zap.Logger
	Form          logstream.FormState
	FlushDelay    time.Duration
	MaxMessageLen int
	PollTick      time.Duration
	ThemeName     string
	Prefs         prefs.Prefs
	PrefsPath     string
	Endpoint      string
	Clock         clock.Clock
	DownloadDir   string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	store       *state.Store
	logger      *zap.Logger
	prefs       prefs.Prefs
	prefsPath   string
	pollTick    time.Duration
	endpoint    string
	downloadDir string

	// Stream
	ctrl   *logstream.Controller
	poster *poster

	// UI state
	keys     keyMap
	theme    Theme
	view     View
	width    int
	height   int
	ready    bool
	showHelp bool

	// Data state
	snapshot state.Snapshot

	form formState
	logs logView

	// Status line
	status    string
	statusErr bool
	statusAt  time.Time

	copyFn func(string) error
	now    func() time.Time
}

// New creates a new Bubble Tea model. The controller posts its events
// through the program once Run binds it.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = opts.Prefs.Theme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	form := opts.Form
	if form == (logstream.FormState{}) {
		form = logstream.DefaultForm()
	}

	p := &poster{}
	ctrl := logstream.NewController(logstream.Options{
		Context:       ctx,
		Dialer:        opts.Dialer,
		Post:          p.post,
		Clock:         opts.Clock,
		FlushDelay:    opts.FlushDelay,
		MaxMessageLen: opts.MaxMessageLen,
		Logger:        logger,
	})
	ctrl.Configure()
	ctrl.SetVisible(false)

	return Model{
		ctx:         ctx,
		store:       opts.Store,
		logger:      logger.With(zap.String("component", "ui")),
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		endpoint:    opts.Endpoint,
		downloadDir: opts.DownloadDir,
		ctrl:        ctrl,
		poster:      p,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(themeName),
		view:        ViewForm,
		form:        newFormState(form),
		logs:        newLogView(),
		copyFn:      clipboard.WriteAll,
		now:         time.Now,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		tickCmd(m.pollTick),
	}
	// Fetch snapshot immediately on start
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeLogs()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.form.resolveSource(m.snapshot.Services)
		return m, nil

	case runMsg:
		// Controller work posted from the transport and flush timers.
		msg()
		m.syncLogs()
		return m, nil
	}

	// Cursor blink and other input-driven messages
	return m.updateInputs(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// Show help overlay if active
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	switch m.view {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderForm())
	}
	return b.String()
}

// handleKey routes keyboard input to the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch m.view {
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleFormKey(msg)
	}
}

// updateInputs forwards non-key messages to whichever textinput is active.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.view == ViewLogs && m.logs.mode != inputNone:
		m.logs.input, cmd = m.logs.input.Update(msg)
	case m.view == ViewForm:
		if in := m.form.activeInput(); in != nil {
			*in, cmd = in.Update(msg)
		}
	}
	return m, cmd
}

// handleTick refreshes the catalog snapshot and expires old status text.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	if m.status != "" && (m.view == ViewLogs || !m.statusErr) && m.now().Sub(m.statusAt) > StatusLifetime {
		m.clearStatus()
	}

	// Schedule next tick
	cmds = append(cmds, tickCmd(m.pollTick))

	return m, tea.Batch(cmds...)
}

// showLogs switches to the logs view; the stream counts as visible there.
func (m *Model) showLogs() {
	m.view = ViewLogs
	m.ctrl.SetVisible(true)
	m.logs.rendered = false
	m.syncLogs()
}

// showForm switches to the form. A running stream keeps running but is no
// longer visible, so it will not reconnect if it drops.
func (m *Model) showForm() {
	m.view = ViewForm
	m.ctrl.SetVisible(false)
	m.form.syncFocus()
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.logs.viewport.Style = m.logs.viewport.Style.Background(lipgloss.Color(m.theme.FocusBg))
	m.logs.rendered = false
	m.syncLogs()
	m.savePrefs()
}

// savePrefs persists the theme and the form. Failures are logged only.
func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	m.prefs.Theme = m.theme.Name
	m.prefs.Form = prefs.FromForm(m.form.value())
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs", zap.Error(err))
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
	m.statusAt = m.now()
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program and stops any running stream when it
// exits.
func Run(opts Options) error {
	m := New(opts)
	ctrl := m.ctrl

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	m.poster.bind(p.Send)

	_, err := p.Run()
	// The event loop has exited, so this goroutine now owns the controller.
	ctrl.Stop()

	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
