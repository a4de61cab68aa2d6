package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tagsift/internal/domain"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Phase tracks where the interactive run currently is.
type Phase int

const (
	PhaseScanning Phase = iota
	PhaseConfirm
	PhaseExecuting
	PhaseDone
	PhaseError
)

// Messages fed into the program by the planner and executor goroutines.
type (
	ScanProgressMsg struct {
		Current int
		Total   int
	}
	PlanReadyMsg struct {
		Plan domain.TriagePlan
	}
	CopyProgressMsg struct {
		Current int
		Total   int
	}
	CopyDoneMsg struct {
		Report domain.ExecReport
	}
	ErrorMsg struct {
		Err error
	}

	answerMsg struct {
		overwrite bool
	}
)

// ExecuteFunc starts the copy run in the background and feeds progress
// and completion messages back into the program.
type ExecuteFunc func(plan domain.TriagePlan, overwrite bool) tea.Cmd

// Config wires the interactive run.
type Config struct {
	Root        string
	Destination string
	DryRun      bool
	Overwrite   bool
	Verbose     bool
	Execute     ExecuteFunc
}

// Model drives the full-screen run: scan, confirm pending overwrites,
// copy, report. Exported fields are read by the command layer after the
// program exits.
type Model struct {
	cfg  Config
	plan domain.TriagePlan

	Phase    Phase
	Report   domain.ExecReport
	Err      error
	Quitting bool

	spinner   spinner.Model
	progress  progress.Model
	readDone  int
	readTotal int
	copyDone  int
	copyTotal int
	answerYes bool
}

func NewModel(cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	bar := progress.New(
		progress.WithGradient("#7C9CF4", "#7FD488"),
		progress.WithWidth(46),
		progress.WithoutPercentage(),
	)

	return Model{
		cfg:      cfg,
		Phase:    PhaseScanning,
		spinner:  sp,
		progress: bar,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = min(msg.Width-20, 60)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ScanProgressMsg:
		m.readDone, m.readTotal = msg.Current, msg.Total
		return m, nil

	case PlanReadyMsg:
		m.plan = msg.Plan
		switch {
		case m.cfg.DryRun:
			m.Phase = PhaseDone
		case m.plan.Stats.Overwrites > 0:
			m.Phase = PhaseConfirm
		default:
			return m.startExec(m.cfg.Overwrite)
		}
		return m, nil

	case answerMsg:
		return m.startExec(msg.overwrite)

	case CopyProgressMsg:
		m.copyDone, m.copyTotal = msg.Current, msg.Total
		return m, nil

	case CopyDoneMsg:
		m.Phase = PhaseDone
		m.Report = msg.Report
		return m, nil

	case ErrorMsg:
		m.Phase = PhaseError
		m.Err = msg.Err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "q" {
		m.Quitting = true
		return m, tea.Quit
	}

	switch m.Phase {
	case PhaseConfirm:
		switch key {
		case "left", "h", "y", "Y":
			m.answerYes = true
		case "right", "l", "n", "N":
			m.answerYes = false
		case "tab":
			m.answerYes = !m.answerYes
		case "enter":
			answer := m.answerYes
			return m, func() tea.Msg { return answerMsg{overwrite: answer} }
		}
	case PhaseDone, PhaseError:
		if key == "enter" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) startExec(overwrite bool) (Model, tea.Cmd) {
	m.Phase = PhaseExecuting
	if m.cfg.Execute == nil {
		return m, nil
	}
	return m, m.cfg.Execute(m.plan, overwrite)
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	parts := []string{m.renderHeader()}
	switch m.Phase {
	case PhaseScanning:
		parts = append(parts, m.renderScanning())
	case PhaseConfirm:
		parts = append(parts, m.renderPlan(), m.renderConfirm())
	case PhaseExecuting:
		parts = append(parts, m.renderPlan(), m.renderRun())
	case PhaseDone:
		parts = append(parts, m.renderPlan())
		if !m.cfg.DryRun {
			parts = append(parts, m.renderReport())
		}
	case PhaseError:
		parts = append(parts, m.renderError())
	}
	parts = append(parts, m.keyHint())

	return strings.Join(parts, "\n\n") + "\n"
}

func (m Model) renderHeader() string {
	banner := titleStyle.Render("tagsift") + "  " + subtitleStyle.Render("Label and Headline triage")
	route := dimStyle.Render(fmt.Sprintf("%s %s  %s  %s",
		iconFolder, shortenPath(m.cfg.Root), iconArrow, shortenPath(m.cfg.Destination)))
	return banner + "\n" + route
}

func (m Model) renderScanning() string {
	head := m.spinner.View() + " Reading tags"
	if m.readTotal == 0 {
		return head
	}
	ratio := float64(m.readDone) / float64(m.readTotal)
	return lipgloss.JoinVertical(lipgloss.Left,
		head,
		"",
		"  "+m.progress.ViewAs(ratio),
		"  "+dimStyle.Render(fmt.Sprintf("%d of %d files (%.0f%%)", m.readDone, m.readTotal, ratio*100)),
	)
}

func (m Model) renderPlan() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Qualifying files"))
	b.WriteString("\n")
	if len(m.plan.Items) == 0 {
		b.WriteString(dimStyle.Render("  nothing to copy"))
		b.WriteString("\n")
	} else {
		for _, line := range listLines(m.plan.Items, 6) {
			b.WriteString("  " + line + "\n")
		}
	}

	if lines := m.overwriteLines(4); len(lines) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(fmt.Sprintf("%s %d targets already exist", iconWarn, m.plan.Stats.Overwrites)))
		b.WriteString("\n")
		for _, line := range lines {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderStats())

	if m.cfg.Verbose && len(m.plan.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("Warnings"))
		b.WriteString("\n")
		for _, w := range m.plan.Warnings {
			b.WriteString("  " + iconWarn + " " + w + "\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderStats() string {
	st := m.plan.Stats
	rows := []statRow{
		{"Qualified", mediaStyle.Render(fmt.Sprintf("%s %d of %d scanned", iconMedia, st.Qualified, st.Scanned))},
		{"Sidecars", sidecarStyle.Render(fmt.Sprintf("%s %d", iconSidecar, st.Sidecars))},
		{"Missing tags", dimStyle.Render(fmt.Sprintf("%d", st.MissingTags))},
	}
	if st.SkippedExisting > 0 {
		rows = append(rows, statRow{"Already copied", dimStyle.Render(fmt.Sprintf("%d", st.SkippedExisting))})
	}
	if st.CheckpointedDirs > 0 {
		rows = append(rows, statRow{"Resumed past", dimStyle.Render(fmt.Sprintf("%d dirs", st.CheckpointedDirs))})
	}
	if st.ExcludedDirs > 0 {
		rows = append(rows, statRow{"Excluded", dimStyle.Render(fmt.Sprintf("%d dirs", st.ExcludedDirs))})
	}
	if st.Unreadable > 0 {
		rows = append(rows, statRow{"Unreadable", warnStyle.Render(fmt.Sprintf("%d", st.Unreadable))})
	}
	if st.Overwrites > 0 {
		rows = append(rows, statRow{"Overwrites", warnStyle.Render(fmt.Sprintf("%s %d", iconWarn, st.Overwrites))})
	}

	out := sectionStyle.Render("Summary") + "\n" + statTable(rows)
	if m.cfg.DryRun {
		out += "\n" + calloutStyle.Render("Dry run: nothing was copied")
	}
	return out
}

func (m Model) renderConfirm() string {
	ask := promptStyle.Render(fmt.Sprintf("Overwrite %d existing files?", m.plan.Stats.Overwrites))
	yes := button(" Yes ", m.answerYes, leafColor)
	no := button(" No ", !m.answerYes, roseColor)
	return lipgloss.JoinVertical(lipgloss.Left,
		ask,
		"",
		lipgloss.JoinHorizontal(lipgloss.Center, yes, "  ", no),
	)
}

func (m Model) renderRun() string {
	ratio := 0.0
	if m.copyTotal > 0 {
		ratio = float64(m.copyDone) / float64(m.copyTotal)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render("Copying"),
		"  "+m.spinner.View()+" "+dimStyle.Render(fmt.Sprintf("%d of %d copied", m.copyDone, m.copyTotal)),
		"",
		"  "+m.progress.ViewAs(ratio),
	)
}

func (m Model) renderReport() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Result"))
	b.WriteString("\n")
	if n := len(m.Report.Failures); n == 0 {
		b.WriteString("  " + okStyle.Render(iconOK+" all copies landed") + "\n\n")
	} else {
		b.WriteString("  " + badStyle.Render(fmt.Sprintf("%s %d copies failed", iconFail, n)) + "\n\n")
	}

	rows := []statRow{
		{"Files copied", mediaStyle.Render(fmt.Sprintf("%d", m.Report.Copied))},
		{"Sidecars", sidecarStyle.Render(fmt.Sprintf("%d", m.Report.Sidecars))},
	}
	if m.Report.Skipped > 0 {
		rows = append(rows, statRow{"Skipped", dimStyle.Render(fmt.Sprintf("%d already present", m.Report.Skipped))})
	}
	if m.Report.MarkedDirs > 0 {
		rows = append(rows, statRow{"Dirs marked done", dimStyle.Render(fmt.Sprintf("%d", m.Report.MarkedDirs))})
	}
	b.WriteString(statTable(rows))

	for i, f := range m.Report.Failures {
		if i == 4 {
			b.WriteString("  " + dimStyle.Render(fmt.Sprintf("… and %d more failures", len(m.Report.Failures)-i)) + "\n")
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s: %v\n", badStyle.Render(iconFail), filepath.Base(f.Path), f.Err))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderError() string {
	return calloutStyle.BorderForeground(roseColor).
		Render(badStyle.Render(iconFail) + " " + m.Err.Error())
}

func (m Model) keyHint() string {
	var hint string
	switch m.Phase {
	case PhaseConfirm:
		hint = "←/→ or y/n to choose · enter to confirm · q to quit"
	case PhaseExecuting:
		hint = "copying files · q to abort"
	case PhaseDone, PhaseError:
		hint = "enter or q to exit"
	default:
		hint = "q to quit"
	}
	return helpStyle.Render(hint)
}

// overwriteLines lists planned copies whose target already exists,
// capped at limit lines.
func (m Model) overwriteLines(limit int) []string {
	var lines []string
	for _, item := range m.plan.Items {
		if !item.Copies[0].Exists {
			continue
		}
		if len(lines) == limit {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("… and %d more", m.plan.Stats.Overwrites-limit)))
			break
		}
		lines = append(lines, warnStyle.Render(iconWarn)+" "+fileStyle.Render(item.Media.RelPath))
	}
	return lines
}

func listLines(items []domain.PlanItem, limit int) []string {
	shown := min(len(items), limit)
	lines := make([]string, 0, shown+1)
	for _, item := range items[:shown] {
		lines = append(lines, itemLine(item))
	}
	if rest := len(items) - shown; rest > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("… and %d more", rest)))
	}
	return lines
}

func itemLine(item domain.PlanItem) string {
	line := iconMedia + " " + mediaStyle.Render(item.Media.RelPath)
	if tags := tagSummary(item.Media); tags != "" {
		line += "  " + tagStyle.Render(tags)
	}
	if base := filepath.Base(item.Copies[0].Target); base != item.Media.Name {
		line += "  " + tagStyle.Render(iconArrow+" "+base)
	}
	if len(item.Copies) > 1 {
		line += "  " + sidecarStyle.Render(iconSidecar+" xmp")
	}
	return line
}

func tagSummary(rec domain.MediaRecord) string {
	if rec.Label.Filled() {
		return rec.Label.Value + " · " + rec.Headline.Value
	}
	return rec.Headline.Value
}

type statRow struct {
	name  string
	value string
}

func statTable(rows []statRow) string {
	var b strings.Builder
	for _, r := range rows {
		b.WriteString("  " + labelStyle.Render(r.name) + "  " + r.value + "\n")
	}
	return b.String()
}

func button(label string, active bool, tone lipgloss.Color) string {
	style := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if active {
		style = style.BorderForeground(tone).Foreground(tone).Bold(true)
	} else {
		style = style.BorderForeground(slateColor).Foreground(fogColor)
	}
	return style.Render(label)
}

// shortenPath swaps the home directory prefix for ~ in display paths.
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if rest, ok := strings.CutPrefix(path, home); ok {
		return "~" + rest
	}
	return path
}
