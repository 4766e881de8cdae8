package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/satriahrh/model-compare/domain"
)

var providerColors = map[string]lipgloss.Color{
	"openai":    lipgloss.Color("#2e7d32"),
	"anthropic": lipgloss.Color("#1565c0"),
	"groq":      lipgloss.Color("#ef6c00"),
	"google":    lipgloss.Color("#6a1b9a"),
}

var (
	userStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#c62828"))
)

// TurnText lays out one turn for a terminal of the given width: the prompt,
// then the responses side by side.
func TurnText(turn domain.Turn, width int) string {
	if width < 40 {
		width = 40
	}

	var b strings.Builder
	b.WriteString(userStyle.Render("You: " + turn.Content))
	b.WriteString("\n")

	if len(turn.Responses) == 0 {
		return b.String()
	}

	// Each box adds two border columns.
	colWidth := width/len(turn.Responses) - 2
	boxes := make([]string, 0, len(turn.Responses))
	for _, resp := range turn.Responses {
		border := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(providerColors[strings.ToLower(resp.Label)]).
			Width(colWidth).
			Padding(0, 1)

		body := resp.Content
		if resp.Failed {
			body = errorStyle.Render(body)
		}
		boxes = append(boxes, border.Render(labelStyle.Render(resp.Label)+"\n"+body))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n")
	return b.String()
}
