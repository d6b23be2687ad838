package console

import "github.com/charmbracelet/lipgloss"

const (
	bannerText   = "🎞️ Frames AI ready! Type 'exit' to quit."
	promptText   = "🎙️ You: "
	replyPrefix  = "🤖 Frames: "
	toolPrefix   = "🧰 "
	errorPrefix  = "⚠️ "
	farewellText = "💾 Memory saved. 👋 Goodbye!"
)

type styles struct {
	enabled  bool
	banner   lipgloss.Style
	prompt   lipgloss.Style
	reply    lipgloss.Style
	tool     lipgloss.Style
	errorMsg lipgloss.Style
	farewell lipgloss.Style
}

func newStyles(enabled bool) styles {
	return styles{
		enabled:  enabled,
		banner:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		prompt:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		reply:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		tool:     lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		errorMsg: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		farewell: lipgloss.NewStyle().Faint(true),
	}
}

// render leaves text untouched when styling is off so pipes and tests see
// exactly what was written.
func (s styles) render(st lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return st.Render(text)
}
