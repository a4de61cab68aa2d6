package tui

import "github.com/charmbracelet/lipgloss"

// Cool ink tones, with amber reserved for anything that needs a second
// look before the run proceeds.
var (
	inkColor   = lipgloss.Color("#7C9CF4")
	leafColor  = lipgloss.Color("#7FD488")
	amberColor = lipgloss.Color("#E8B33C")
	roseColor  = lipgloss.Color("#EF6F7B")
	slateColor = lipgloss.Color("#64748B")
	fogColor   = lipgloss.Color("#A6ADBB")
	paperColor = lipgloss.Color("#ECEFF4")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	titleStyle    = fg(inkColor).Bold(true)
	subtitleStyle = fg(fogColor).Italic(true)

	sectionStyle = fg(leafColor).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(slateColor).
			MarginBottom(1)

	mediaStyle   = fg(inkColor).Bold(true)
	sidecarStyle = fg(leafColor)
	tagStyle     = fg(fogColor)
	fileStyle    = fg(paperColor)

	labelStyle = fg(fogColor).Width(18)
	dimStyle   = fg(slateColor)
	warnStyle  = fg(amberColor)
	okStyle    = fg(leafColor).Bold(true)
	badStyle   = fg(roseColor).Bold(true)

	promptStyle = fg(amberColor).Bold(true)

	calloutStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(inkColor).
			Padding(0, 2)

	spinnerStyle = fg(inkColor)
	helpStyle    = fg(slateColor).Italic(true)
)

const (
	iconMedia   = "◉"
	iconSidecar = "◎"
	iconWarn    = "⚠"
	iconOK      = "✓"
	iconFail    = "✗"
	iconArrow   = "→"
	iconFolder  = "📂"
)
