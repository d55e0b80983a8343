package ui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette used for command output.
type Theme struct {
	TextPrimary lipgloss.Color
	TextDim     lipgloss.Color
	Border      lipgloss.Color
	Accent      lipgloss.Color
	Success     lipgloss.Color
	Warning     lipgloss.Color
	Error       lipgloss.Color
	Info        lipgloss.Color
}

// DefaultTheme is a dark palette (Tokyo Night).
var DefaultTheme = Theme{
	TextPrimary: lipgloss.Color("#c0caf5"),
	TextDim:     lipgloss.Color("#565f89"),
	Border:      lipgloss.Color("#414868"),
	Accent:      lipgloss.Color("#7aa2f7"),
	Success:     lipgloss.Color("#9ece6a"),
	Warning:     lipgloss.Color("#e0af68"),
	Error:       lipgloss.Color("#f7768e"),
	Info:        lipgloss.Color("#7dcfff"),
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Box     lipgloss.Style
	Title   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Dim     lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles builds Styles for t.
func NewStyles(t Theme) Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Key:     lipgloss.NewStyle().Foreground(t.TextDim).Width(10),
		Value:   lipgloss.NewStyle().Foreground(t.TextPrimary),
		Dim:     lipgloss.NewStyle().Foreground(t.TextDim),
		Success: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Warning: lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

// DefaultStyles uses DefaultTheme.
var DefaultStyles = NewStyles(DefaultTheme)
