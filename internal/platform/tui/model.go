package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/canrun/internal/config"
	"github.com/vovakirdan/canrun/internal/core"
	"github.com/vovakirdan/canrun/internal/export"
	"github.com/vovakirdan/canrun/internal/game"
	"github.com/vovakirdan/canrun/internal/run"
	"github.com/vovakirdan/canrun/internal/storage"
)

// Session configures a play session. Runs restart within one session.
type Session struct {
	Config  config.RunnerConfig
	Runtime core.RuntimeConfig
	Store   *storage.Store // Optional; runs are not saved and no form is shown when nil
	Email   string         // Profile to play as; an unknown email opens the form pre-filled
	Export  string         // Optional; profile CSV rewritten after every run
	Logger  *log.Logger
}

// steerHold is how many ticks one key press keeps steering. Terminals
// report key repeats, not key holds.
const steerHold = 8

// advisoryTicks is how long the watchdog advisory stays on screen.
const advisoryTicks = 45

// player is the identity of the session. It resolves once registration
// or lookup succeeds and then stays resolved across restarts.
type player struct {
	profile run.Profile
	ok      bool
}

func (p *player) CurrentProfile() (run.Profile, bool) { return p.profile, p.ok }

func (p *player) set(rec storage.ProfileRecord) {
	p.profile = run.Profile{ID: rec.ID, Name: rec.Name, Email: rec.Email, BestScore: rec.BestScore}
	p.ok = true
}

// advisory receives the watchdog's remaining time for the HUD.
type advisory struct {
	remaining float64
	ticks     int
}

func (a *advisory) Advise(remaining float64) {
	a.remaining = remaining
	a.ticks = advisoryTicks
}

// Model is the Bubble Tea model for a play session.
type Model struct {
	session Session
	log     *log.Logger
	engine  *game.Engine
	player  *player
	advice  *advisory
	form    *RegisterForm
	screen  *core.Screen
	keys    KeyMap
	help    help.Model

	width, height int

	steer    float64
	steerTTL int
	input    core.InputFrame
	state    core.GameState
	recorded bool // Game-over bookkeeping done for the current run
	quitting bool
	err      error
}

// NewModel creates the model and its first run.
func NewModel(s Session) (Model, error) {
	if s.Runtime.Seed == 0 {
		s.Runtime.Seed = time.Now().UnixNano()
	}

	m := Model{
		session: s,
		log:     core.LoggerOrDiscard(s.Logger),
		player:  &player{},
		advice:  &advisory{},
		keys:    DefaultKeyMap(),
		help:    help.New(),
		width:   s.Runtime.ScreenW,
		height:  s.Runtime.ScreenH,
		input:   core.NewInputFrame(),
	}
	m.screen = core.NewScreen(m.width, m.playHeight())

	switch {
	case s.Store == nil:
		m.player.profile = run.Profile{Name: "guest"}
		m.player.ok = true
	case s.Email != "":
		rec, err := s.Store.ProfileByEmail(s.Email)
		switch {
		case err == nil:
			m.player.set(rec)
		case errors.Is(err, storage.ErrNotFound):
			m.form = NewRegisterForm(s.Email)
		default:
			return Model{}, err
		}
	default:
		m.form = NewRegisterForm("")
	}

	if err := m.newRun(s.Runtime.Seed); err != nil {
		return Model{}, err
	}
	return m, nil
}

// playHeight leaves one line for the help bar.
func (m Model) playHeight() int {
	if m.height > 1 {
		return m.height - 1
	}
	return m.height
}

// newRun replaces the engine with a fresh one.
func (m *Model) newRun(seed int64) error {
	rt := m.session.Runtime
	rt.Seed = seed

	var eng *game.Engine
	var sink run.ScoreSink
	if m.session.Store != nil {
		sink = storage.NewRunRecorder(m.session.Store, m.player,
			storage.WithDetails(func() storage.RunDetails {
				sum := eng.Summary()
				return storage.RunDetails{Distance: sum.Distance, Duration: sum.Duration, EndReason: sum.Reason}
			}))
	}

	eng, err := game.New(m.session.Config, rt, game.Deps{
		Identity: m.player,
		Sink:     sink,
		Advisor:  m.advice,
		Logger:   m.session.Logger,
	})
	if err != nil {
		return err
	}
	m.engine = eng
	m.state = eng.State()
	m.recorded = false
	m.advice.ticks = 0
	m.steerTTL = 0
	m.log.Info("new run", "seed", seed)
	return nil
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.session.Runtime.TickRate)}
	if m.form != nil {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.form != nil {
			return m.handleFormKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.screen.Resize(m.width, m.playHeight())
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	}

	submitted, cmd := m.form.Update(msg)
	if !submitted {
		return m, cmd
	}

	p, err := m.form.Profile()
	if err == nil {
		p, err = m.session.Store.RegisterProfile(p)
	}
	if err != nil {
		m.form.SetError(err)
		return m, nil
	}
	m.player.set(p)
	m.form = nil
	m.log.Info("profile registered", "email", p.Email)
	return m, nil
}

// handleKey processes keyboard input during a run.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Screenshot) {
		m.saveScreenshot()
		return m, nil
	}

	switch action := m.keys.MapKey(msg); action {
	case core.ActionQuit:
		m.quitting = true
		m.engine.End(run.ReasonPlayerEnded)
		m.afterRun()
		return m, tea.Quit
	case core.ActionLeft:
		m.steer, m.steerTTL = -1, steerHold
	case core.ActionRight:
		m.steer, m.steerTTL = 1, steerHold
	case core.ActionRestart:
		if m.state.GameOver {
			m.input.Set(action)
		}
	case core.ActionNone:
	default:
		m.input.Set(action)
	}
	return m, nil
}

// handleTick processes simulation ticks.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.input.Has(core.ActionRestart) && m.state.GameOver {
		if err := m.newRun(time.Now().UnixNano()); err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.input.Clear()
		return m, tickCmd(m.session.Runtime.TickRate)
	}

	if m.steerTTL > 0 {
		m.input.Steer(m.steer)
		m.steerTTL--
	}
	if m.advice.ticks > 0 {
		m.advice.ticks--
	}

	m.state = m.engine.Step(m.input).State
	if m.state.GameOver {
		m.afterRun()
	}

	m.input.Clear()
	return m, tickCmd(m.session.Runtime.TickRate)
}

// afterRun reports the finished run once.
func (m *Model) afterRun() {
	if m.recorded || !m.engine.State().GameOver {
		return
	}
	m.recorded = true

	sum := m.engine.Summary()
	m.log.Info("run finished", "score", sum.Score, "distance", fmt.Sprintf("%.0f", sum.Distance), "reason", sum.Reason)
	if err := m.engine.Err(); err != nil {
		m.log.Error("run not saved", "error", err)
	}

	if m.session.Export == "" || m.session.Store == nil {
		return
	}
	profiles, err := m.session.Store.Profiles()
	if err == nil {
		err = export.WriteProfilesFile(m.session.Export, profiles)
	}
	if err != nil {
		m.log.Error("profile export failed", "error", err)
	}
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	m.engine.Render(m.screen)

	dir := filepath.Join(os.Getenv("HOME"), ".canrun", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("canrun_%s.txt", timestamp))

	//nolint:errcheck // Best-effort save, the run continues regardless
	os.WriteFile(path, []byte(m.screen.String()), 0o600)
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.form != nil {
		return "\n" + m.form.View(m.width)
	}

	m.engine.Render(m.screen)
	if m.advice.ticks > 0 && !m.state.GameOver {
		msg := fmt.Sprintf(" %.0fs left to grab a can ", m.advice.remaining)
		m.screen.DrawText((m.screen.Width()-len(msg))/2, 1, msg, core.ColorBrightYellow)
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	return RenderScreen(m.screen) + "\n" + helpStyle.Render(m.help.View(m.keys))
}

// Err returns the error that stopped the session, if any.
func (m Model) Err() error { return m.err }

// Result reports what a finished session leaves behind.
type Result struct {
	Email string // Email of the player the session ran as, if registered
}

// Run starts the Bubble Tea program for a play session.
func Run(s Session) (Result, error) {
	model, err := NewModel(s)
	if err != nil {
		return Result{}, err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Result{}, err
	}
	fm, ok := final.(Model)
	if !ok {
		return Result{}, nil
	}
	return Result{Email: fm.player.profile.Email}, fm.Err()
}
