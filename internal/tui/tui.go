// Package tui provides the Bubble Tea recorder screen.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/voxrec/internal/recording"
	"github.com/fakeyudi/voxrec/internal/render"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	recordingBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160")).Padding(0, 1)
	pausedBadge    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("178")).Padding(0, 1)
	idleBadge      = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Background(lipgloss.Color("235")).Padding(0, 1)
	stoppedBadge   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("82")).Padding(0, 1)

	// Frame around the visualizer
	canvasStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Foreground(lipgloss.Color("240"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// Recorder is the controller surface the screen drives.
type Recorder interface {
	Start(ctx context.Context) error
	TogglePause() error
	Stop() error
	Cancel()
	Save(ctx context.Context) error
	Status() recording.Status
}

// Playable plays the latest finished recording.
type Playable interface {
	Loaded() bool
	Play(ctx context.Context) error
}

// ── Messages ─────────────────

// StatusMsg carries a controller status change into the program.
type StatusMsg recording.Status

// NoticeMsg shows a one-line message in the status area.
type NoticeMsg string

type frameMsg time.Time

type actionMsg struct {
	action string
	err    error
}

// ── Model ────────────────────

// Options configure the screen.
type Options struct {
	Canvas    *render.Canvas
	Player    Playable // may be nil
	FrameRate int
	OutputDir string
}

// Model is the root Bubble Tea model for the recorder.
type Model struct {
	rec    Recorder
	opts   Options
	ctx    context.Context
	keys   keyMap
	help   help.Model
	watch  stopwatch.Model
	status recording.Status
	notice string
	err    error
	width  int
	height int
}

// New creates the recorder screen.
func New(ctx context.Context, rec Recorder, opts Options) Model {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 30
	}
	m := Model{
		rec:   rec,
		opts:  opts,
		ctx:   ctx,
		keys:  newKeyMap(),
		help:  help.New(),
		watch: stopwatch.NewWithInterval(100 * time.Millisecond),
	}
	m.status = rec.Status()
	m.keys.apply(m.status.Controls, m.canPlay())
	return m
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return m.frame() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case frameMsg:
		return m, m.frame()

	case StatusMsg:
		return m, m.setStatus(recording.Status(msg))

	case NoticeMsg:
		m.notice = string(msg)
		return m, nil

	case actionMsg:
		m.err = msg.err
		if msg.err == nil {
			switch msg.action {
			case "save":
				m.notice = "saved " + recording.ArtifactFileName + " to " + orDot(m.opts.OutputDir)
			case "play":
				m.notice = "playback finished"
			}
		}
		return m, m.setStatus(m.rec.Status())
	}

	var cmd tea.Cmd
	m.watch, cmd = m.watch.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.rec.Cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Start):
		m.err, m.notice = nil, "opening microphone…"
		rec, ctx := m.rec, m.ctx
		return m, func() tea.Msg {
			return actionMsg{action: "start", err: rec.Start(ctx)}
		}

	case key.Matches(msg, m.keys.Pause):
		m.err, m.notice = m.rec.TogglePause(), ""

	case key.Matches(msg, m.keys.Stop):
		m.err, m.notice = m.rec.Stop(), ""

	case key.Matches(msg, m.keys.Cancel):
		m.rec.Cancel()
		m.err, m.notice = nil, "recording discarded"

	case key.Matches(msg, m.keys.Save):
		rec, ctx := m.rec, m.ctx
		return m, func() tea.Msg {
			return actionMsg{action: "save", err: rec.Save(ctx)}
		}

	case key.Matches(msg, m.keys.Play):
		p, ctx := m.opts.Player, m.ctx
		m.notice = "playing…"
		return m, func() tea.Msg {
			return actionMsg{action: "play", err: p.Play(ctx)}
		}

	default:
		return m, nil
	}
	return m, m.setStatus(m.rec.Status())
}

// setStatus records st, syncs the key bindings and drives the stopwatch.
func (m *Model) setStatus(st recording.Status) tea.Cmd {
	prev := m.status.State
	m.status = st
	m.keys.apply(st.Controls, m.canPlay())
	if st.Err != nil {
		m.err = st.Err
	}
	if prev == st.State {
		return nil
	}
	switch st.State {
	case recording.StateRecording:
		if prev == recording.StateIdle || prev == recording.StateStopped {
			return tea.Sequence(m.watch.Reset(), m.watch.Start())
		}
		return m.watch.Start()
	case recording.StateIdle:
		return tea.Sequence(m.watch.Stop(), m.watch.Reset())
	default:
		return m.watch.Stop()
	}
}

func (m Model) canPlay() bool {
	return m.opts.Player != nil && m.status.Artifact != nil && m.opts.Player.Loaded()
}

func (m Model) frame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FrameRate), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	// ── Row 1: title bar ──────────────────────────────────────────────────────
	title := titleStyle.Width(width).Render("  voxrec  " + stateBadge(m.status.State))

	// ── Visualizer ────────────────────────────────────────────────────────────
	var canvas string
	if m.opts.Canvas != nil {
		cols := width - 2
		if cols > 128 {
			cols = 128
		}
		canvas = canvasStyle.Render(m.opts.Canvas.Render(cols, m.canvasRows()))
	}

	// ── Stats ─────────────────────────────────────────────────────────────────
	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("  %-10s", label)) + "  " + value
	}
	stats := []string{
		row("Elapsed:", timeStyle.Render(formatElapsed(m.watch.Elapsed()))),
		row("Captured:", fmt.Sprintf("%d fragments, %s", m.status.Fragments, formatBytes(m.status.Bytes))),
	}
	if a := m.status.Artifact; a != nil {
		stats = append(stats, row("Ready:", fmt.Sprintf("%s (%s, %s)", recording.ArtifactFileName, formatBytes(a.Len()), formatElapsed(a.Duration))))
	}

	// ── Message line ──────────────────────────────────────────────────────────
	msg := dimStyle.Render("  " + m.notice)
	if m.err != nil {
		msg = errorStyle.Render("  " + describeError(m.err))
	}

	statusBar := statusBarStyle.Width(width).Render(m.help.View(m.keys))

	parts := []string{title, canvas}
	parts = append(parts, stats...)
	parts = append(parts, msg, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) canvasRows() int {
	// title(1) + border(2) + stats(3) + message(1) + statusBar(1)
	rows := m.height - 8
	if rows > 16 || m.height == 0 {
		rows = 16
	}
	if rows < 2 {
		rows = 2
	}
	return rows
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func stateBadge(s recording.State) string {
	label := strings.ToUpper(s.String())
	switch s {
	case recording.StateRecording:
		return recordingBadge.Render("● " + label)
	case recording.StatePaused:
		return pausedBadge.Render("❚❚ " + label)
	case recording.StateStopped:
		return stoppedBadge.Render("■ " + label)
	}
	return idleBadge.Render(label)
}

func describeError(err error) string {
	switch {
	case errors.Is(err, recording.ErrPermissionDenied):
		return "microphone access was denied"
	case errors.Is(err, recording.ErrNoArtifact):
		return "nothing to save yet"
	}
	return err.Error()
}

func formatElapsed(d time.Duration) string {
	d = d.Round(100 * time.Millisecond)
	m := int(d / time.Minute)
	s := (d % time.Minute).Seconds()
	return fmt.Sprintf("%02d:%04.1f", m, s)
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

func orDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

// Bridge forwards controller status changes into a running program. Create it
// before the controller, pass Notify as the observer, then hand it to Run.
//
// Notify never blocks: it keeps only the latest status and a pump goroutine
// delivers it. Observers run on stream goroutines that Cancel waits for, so a
// blocking Program.Send there would deadlock against Update.
type Bridge struct {
	p    atomic.Pointer[tea.Program]
	mu   sync.Mutex
	last *recording.Status
	wake chan struct{}
	once sync.Once
}

func (b *Bridge) init() {
	b.once.Do(func() { b.wake = make(chan struct{}, 1) })
}

// Notify is a recording observer.
func (b *Bridge) Notify(st recording.Status) {
	b.init()
	b.mu.Lock()
	b.last = &st
	b.mu.Unlock()
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Send delivers msg to the attached program, if any. It may block until the
// program reads it.
func (b *Bridge) Send(msg tea.Msg) {
	if p := b.p.Load(); p != nil {
		p.Send(msg)
	}
}

// pump forwards the latest status to p until ctx is done.
func (b *Bridge) pump(ctx context.Context, p *tea.Program) {
	b.init()
	b.p.Store(p)
	defer b.p.Store(nil)
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.wake:
			b.mu.Lock()
			st := b.last
			b.mu.Unlock()
			if st != nil {
				p.Send(StatusMsg(*st))
			}
		}
	}
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, rec Recorder, bridge *Bridge, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := tea.NewProgram(New(ctx, rec, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if bridge != nil {
		go bridge.pump(ctx, p)
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
