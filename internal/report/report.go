// Package report renders weakness analyses for the terminal.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/avandel/keydrill/internal/engine"
	"github.com/avandel/keydrill/internal/hmm"
	"github.com/avandel/keydrill/internal/ngram"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Dashboard renders the per-key summary table, highest priority first.
// limit <= 0 renders every tracked key.
func Dashboard(rows []engine.KeySummary, limit int) string {
	if len(rows) == 0 {
		return dimStyle.Render("no keystroke data yet - run a drill first")
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	headers := []string{"KEY", "ACCURACY", "SPEED", "STATE", "WEAKNESS", "PRIORITY", "N"}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{
			string(r.Key),
			fmt.Sprintf("%.1f%%", r.Accuracy*100),
			fmt.Sprintf("%.0fms", r.SpeedMs),
			string(r.State),
			fmt.Sprintf("%.2f", r.Weakness),
			fmt.Sprintf("%.1f", r.Priority),
			fmt.Sprintf("%d", r.Attempts),
		})
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Key weakness report"))
	b.WriteString("\n\n")
	right := map[int]bool{1: true, 2: true, 4: true, 5: true, 6: true}
	for i, line := range formatTable(headers, table, right) {
		if i == 0 {
			b.WriteString(headerStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// NgramSection renders the slowest and most error-prone n-grams. Empty
// when no n-gram has enough attempts yet.
func NgramSection(rep engine.NgramReport) string {
	if len(rep.Slowest) == 0 && len(rep.ErrorProne) == 0 {
		return ""
	}

	var b strings.Builder
	if len(rep.Slowest) > 0 {
		b.WriteString(titleStyle.Render("Slowest n-grams"))
		b.WriteString("\n\n")
		writeNgramTable(&b, rep.Slowest)
	}
	if len(rep.ErrorProne) > 0 {
		if len(rep.Slowest) > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(titleStyle.Render("Error-prone n-grams"))
		b.WriteString("\n\n")
		writeNgramTable(&b, rep.ErrorProne)
	}
	return b.String()
}

func writeNgramTable(b *strings.Builder, rows []ngram.Ranked) {
	headers := []string{"NGRAM", "AVG", "ERRORS", "N"}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{
			r.Gram,
			fmt.Sprintf("%.0fms", r.Stat.AvgTime),
			fmt.Sprintf("%.1f%%", r.Stat.ErrorRate*100),
			fmt.Sprintf("%d", r.Stat.Attempts),
		})
	}
	right := map[int]bool{1: true, 2: true, 3: true}
	for i, line := range formatTable(headers, table, right) {
		if i == 0 {
			b.WriteString(headerStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
}

// KeyDetail renders the full analysis for one key.
func KeyDetail(res *engine.WeaknessResult, now time.Time) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Key %q", res.Key)))
	b.WriteString("\n\n")

	writeField(&b, "Accuracy", fmt.Sprintf("%.1f%% (%.1f%% - %.1f%% credible)",
		res.Accuracy*100, res.AccuracyLow*100, res.AccuracyHigh*100))
	writeField(&b, "Speed", fmt.Sprintf("%.0fms (%.0f - %.0f)",
		res.SpeedMillis, res.SpeedMillisLow, res.SpeedMillisHigh))
	writeField(&b, "State", renderState(res))
	writeField(&b, "Weakness", fmt.Sprintf("%.2f (confidence %.2f)", res.WeaknessScore, res.Confidence))
	writeField(&b, "Priority", fmt.Sprintf("%.1f / 100", res.Priority))
	writeField(&b, "Next practice", renderNextPractice(res, now))
	writeField(&b, "Mastery outlook", renderOutlook(res))

	if res.BestHour >= 0 {
		writeField(&b, "Best hour", fmt.Sprintf("%02d:00", res.BestHour))
	}
	if res.BestPosition != "" {
		writeField(&b, "Best position", res.BestPosition)
	}
	if len(res.CorrelatedKeys) > 0 {
		parts := make([]string, len(res.CorrelatedKeys))
		for i, k := range res.CorrelatedKeys {
			parts[i] = string(k)
		}
		writeField(&b, "Often follows", strings.Join(parts, ", "))
	}
	if len(res.Interventions) > 0 {
		writeField(&b, "Try next", strings.Join(res.Interventions, "; "))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(renderBelief(res)))
	b.WriteByte('\n')
	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	b.WriteString(headerStyle.Render(runewidth.FillRight(name, 16)))
	b.WriteString(value)
	b.WriteByte('\n')
}

func renderState(res *engine.WeaknessResult) string {
	s := string(res.State)
	switch res.State {
	case hmm.Mastered, hmm.Proficient:
		return goodStyle.Render(s)
	case hmm.Regressing:
		return alertStyle.Render(s)
	default:
		return s
	}
}

func renderNextPractice(res *engine.WeaknessResult, now time.Time) string {
	days := res.NextPractice.Sub(now).Hours() / 24
	if days <= 0 {
		return alertStyle.Render("now")
	}
	return fmt.Sprintf("in %.1f days (interval %.1f)", days, res.IntervalDays)
}

func renderOutlook(res *engine.WeaknessResult) string {
	if !res.Converges {
		return dimStyle.Render("not converging at the current rate")
	}
	if res.SessionsToGo == 0 {
		return goodStyle.Render("at mastery threshold")
	}
	out := fmt.Sprintf("~%d sessions to mastery", res.SessionsToGo)
	if res.PlateauDetected {
		out += alertStyle.Render(" (plateau detected)")
	}
	return out
}

func renderBelief(res *engine.WeaknessResult) string {
	states := make([]string, 0, len(res.Belief))
	for s := range res.Belief {
		states = append(states, string(s))
	}
	sort.Strings(states)
	parts := make([]string, 0, len(states))
	for _, s := range states {
		parts = append(parts, fmt.Sprintf("%s %.2f", s, res.Belief[hmm.State(s)]))
	}
	return "belief: " + strings.Join(parts, "  ")
}

func formatTable(headers []string, rows [][]string, rightAlign map[int]bool) []string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, formatRow(headers, widths, rightAlign))
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlign))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlign map[int]bool) string {
	var b strings.Builder
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		if rightAlign[i] {
			b.WriteString(runewidth.FillLeft(cell, w))
		} else {
			b.WriteString(runewidth.FillRight(cell, w))
		}
	}
	return strings.TrimRight(b.String(), " ")
}
