// Package tui provides the Bubble Tea drill interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avandel/keydrill/internal/engine"
	"github.com/avandel/keydrill/internal/generator"
	"github.com/avandel/keydrill/internal/session"
	"github.com/avandel/keydrill/internal/store"
)

// Options configures a drill run.
type Options struct {
	Words       int
	WeakTop     int
	WeakFactor  float64
	BaselineWPM float64
}

// DefaultOptions returns the standard drill settings.
func DefaultOptions() Options {
	return Options{Words: 25, WeakTop: 5, WeakFactor: 4, BaselineWPM: 0}
}

// Model implements the Bubble Tea drill UI. Every keystroke feeds the
// weakness engine; the footer shows the live error-risk estimate for the
// next expected key.
type Model struct {
	eng   *engine.Engine
	st    *store.Store
	gen   *generator.Generator
	words []string
	opts  Options

	width  int
	height int

	targetRunes []rune
	inputRunes  []rune

	sess        *session.Tracker
	started     bool
	prevKeyAt   time.Time
	prevKey     rune
	sessionIdx  int
	currentRisk float64

	riskBar progress.Model

	lastWPM float64
	lastAcc float64
	hasLast bool
}

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle    = pendingStyle.Underline(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs a drill model.
func NewModel(eng *engine.Engine, st *store.Store, gen *generator.Generator, words []string, opts Options) *Model {
	if opts.Words <= 0 {
		opts.Words = DefaultOptions().Words
	}
	m := &Model{
		eng:     eng,
		st:      st,
		gen:     gen,
		words:   words,
		opts:    opts,
		riskBar: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	m.riskBar.Width = 20
	m.resetSession()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.finishSession()
			return m, tea.Quit
		case tea.KeyBackspace, tea.KeyDelete:
			m.handleBackspace()
			return m, nil
		case tea.KeySpace:
			m.handleRunes([]rune{' '})
			return m, nil
		case tea.KeyRunes:
			m.handleRunes(msg.Runes)
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if len(m.targetRunes) == 0 {
		return ""
	}
	content := m.renderText()
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Width(contentWidth).Render(content))
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderText() string {
	var b strings.Builder
	for i, r := range m.targetRunes {
		switch {
		case i < len(m.inputRunes) && m.inputRunes[i] == r:
			b.WriteString(correctStyle.Render(string(r)))
		case i < len(m.inputRunes):
			b.WriteString(incorrectStyle.Render(string(r)))
		case i == len(m.inputRunes):
			b.WriteString(cursorStyle.Render(string(r)))
		default:
			b.WriteString(pendingStyle.Render(string(r)))
		}
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	progressPct := 0
	if len(m.targetRunes) > 0 {
		progressPct = len(m.inputRunes) * 100 / len(m.targetRunes)
	}
	segments := []string{
		fmt.Sprintf("Progress %d%%", progressPct),
		fmt.Sprintf("Acc %.1f%%", m.sess.Accuracy()*100),
		"Risk " + m.riskBar.ViewAs(m.currentRisk),
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM / %.1f%%", m.lastWPM, m.lastAcc*100))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) handleBackspace() {
	if len(m.inputRunes) == 0 {
		return
	}
	m.inputRunes = m.inputRunes[:len(m.inputRunes)-1]
	m.eng.ResetSequence()
	m.prevKey = 0
	m.refreshRisk()
}

func (m *Model) handleRunes(runes []rune) {
	for _, r := range runes {
		if len(m.inputRunes) >= len(m.targetRunes) {
			return
		}
		if !m.started {
			m.started = true
		}
		pos := len(m.inputRunes)
		expected := m.targetRunes[pos]
		m.inputRunes = append(m.inputRunes, r)
		m.recordKeystroke(expected, r)
		if len(m.inputRunes) == len(m.targetRunes) {
			m.finishSession()
			m.resetSession()
		}
	}
}

func (m *Model) recordKeystroke(expected, typed rune) {
	now := time.Now()
	correct := typed == expected

	latencyMs := 0.0
	if !m.prevKeyAt.IsZero() {
		latencyMs = float64(now.Sub(m.prevKeyAt).Milliseconds())
	}
	m.prevKeyAt = now

	m.sess.Record(correct, latencyMs, now)

	if expected == ' ' {
		m.eng.ResetSequence()
		m.prevKey = 0
		m.refreshRisk()
		return
	}

	m.eng.UpdateKey(expected, correct, latencyMs, engine.UpdateContext{
		Timestamp:    now,
		PreviousKey:  m.prevKey,
		HesitationMs: latencyMs,
		SessionIndex: m.sessionIdx,
	})
	m.sessionIdx++
	m.prevKey = expected
	m.refreshRisk()
}

// refreshRisk recomputes the error probability for the next expected key.
func (m *Model) refreshRisk() {
	pos := len(m.inputRunes)
	if pos >= len(m.targetRunes) {
		m.currentRisk = 0
		return
	}
	upcoming := m.targetRunes[pos]
	keyDiff := m.eng.KeyDifficulty(upcoming)
	bigramDiff := 0.0
	if m.prevKey != 0 {
		bigramDiff = m.eng.BigramDifficulty(string([]rune{m.prevKey, upcoming}))
	}
	ctx := m.sess.RiskContext(time.Now(), keyDiff, bigramDiff)
	ctx.BaselineWPM = m.opts.BaselineWPM
	m.currentRisk = m.eng.PredictRisk(upcoming, m.prevKey, ctx)
}

func (m *Model) resetSession() {
	m.inputRunes = nil
	m.started = false
	m.prevKeyAt = time.Time{}
	m.prevKey = 0
	m.sessionIdx = 0
	m.currentRisk = 0
	m.sess = session.New(time.Now(), m.opts.BaselineWPM)
	m.eng.ResetSequence()

	difficulty := m.weakDifficulty()
	words := m.gen.GenerateWeighted(m.words, m.opts.Words, difficulty, m.opts.WeakFactor)
	m.targetRunes = []rune(generator.Join(words))
	m.refreshRisk()
}

// weakDifficulty maps the currently weakest keys to their difficulty so the
// generator can bias word selection toward them.
func (m *Model) weakDifficulty() map[rune]float64 {
	weak := m.eng.WeakKeys(m.opts.WeakTop)
	if len(weak) == 0 {
		return nil
	}
	difficulty := make(map[rune]float64, len(weak))
	for k := range weak {
		difficulty[k] = m.eng.KeyDifficulty(k)
	}
	return difficulty
}

func (m *Model) finishSession() {
	if !m.started || m.sess.Keystrokes() == 0 {
		return
	}
	now := time.Now()
	m.lastWPM = m.sess.WPM()
	m.lastAcc = m.sess.Accuracy()
	m.hasLast = true

	if m.st != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rec := store.SessionRecord{
			ID:         m.sess.ID(),
			StartedAt:  m.sess.StartedAt(),
			EndedAt:    now,
			Keystrokes: m.sess.Keystrokes(),
			Errors:     m.sess.Errors(),
			WPM:        m.sess.WPM(),
		}
		if err := m.st.InsertSession(ctx, rec); err != nil {
			logErrf("failed to save session: %v\n", err)
		}
		if err := m.st.SaveSnapshot(ctx, m.eng.Snapshot()); err != nil {
			logErrf("failed to save snapshot: %v\n", err)
		}
	}
	m.started = false
}

// Run starts the drill UI and blocks until the user quits.
func Run(m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func logErrf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
