package styles

import "github.com/charmbracelet/lipgloss"

// Color palette - default dark theme
var (
	// Primary colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#3B82F6") // Blue
	Accent    = lipgloss.Color("#F59E0B") // Amber

	// Status colors
	Success = lipgloss.Color("#10B981") // Green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red
	Info    = lipgloss.Color("#3B82F6") // Blue

	// Text colors
	TextPrimary   = lipgloss.Color("#F9FAFB")
	TextSecondary = lipgloss.Color("#9CA3AF")
	TextMuted     = lipgloss.Color("#6B7280")
	TextSubtle    = lipgloss.Color("#4B5563")

	// Background colors
	BgPrimary   = lipgloss.Color("#111827")
	BgSecondary = lipgloss.Color("#1F2937")
	BgTertiary  = lipgloss.Color("#374151")

	// Border colors
	BorderNormal = lipgloss.Color("#374151")
	BorderActive = lipgloss.Color("#7C3AED")

	ToastSuccessTextColor = lipgloss.Color("#000000")
	ToastErrorTextColor   = lipgloss.Color("#FFFFFF")

	// Third-party theme names
	CurrentSyntaxTheme = "monokai"
)

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	Body = lipgloss.NewStyle().
		Foreground(TextPrimary)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	KeyHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(BgTertiary).
		Padding(0, 1)

	// Toast styles for status messages
	ToastSuccess = lipgloss.NewStyle().
			Background(Success).
			Foreground(ToastSuccessTextColor).
			Bold(true).
			Padding(0, 1)

	ToastError = lipgloss.NewStyle().
			Background(Error).
			Foreground(ToastErrorTextColor).
			Bold(true).
			Padding(0, 1)
)

// List item styles
var (
	ListItemNormal = lipgloss.NewStyle().
			Foreground(TextPrimary)

	ListItemSelected = lipgloss.NewStyle().
				Foreground(TextPrimary).
				Background(BgTertiary)

	ListCursor = lipgloss.NewStyle().
			Foreground(TextPrimary).
			Background(Primary)
)

// Bar element styles (statusline and title)
var (
	BarTitle = lipgloss.NewStyle().
			Foreground(TextPrimary).
			Background(BgSecondary).
			Bold(true)

	BarText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(BgSecondary)
)

// groups maps editor highlight group names to styles. Unknown groups
// render unstyled.
var groups = map[string]lipgloss.Style{
	"Normal":      Body,
	"NormalFloat": lipgloss.NewStyle().Foreground(TextPrimary).Background(BgSecondary),
	"FloatBorder": lipgloss.NewStyle().Foreground(BorderActive).Background(BgSecondary),
	"Directory":   lipgloss.NewStyle().Foreground(Secondary).Bold(true),
	"Type":        lipgloss.NewStyle().Foreground(Accent).Bold(true),
	"String":      lipgloss.NewStyle().Foreground(Success),
	"Comment":     Muted,
	"Visual":      ListItemSelected,
	"CursorLine":  ListCursor,
	"StatusLine":  BarText,
	"Title":       BarTitle,
	"ErrorMsg":    lipgloss.NewStyle().Foreground(Error).Bold(true),
}

// Group returns the style of a highlight group.
func Group(name string) lipgloss.Style {
	if s, ok := groups[name]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// HasGroup reports whether name is a known highlight group.
func HasGroup(name string) bool {
	_, ok := groups[name]
	return ok
}

// Border maps an editor border name to a lipgloss border. "none" and
// unknown names report false.
func Border(name string) (lipgloss.Border, bool) {
	switch name {
	case "single":
		return lipgloss.NormalBorder(), true
	case "double":
		return lipgloss.DoubleBorder(), true
	case "rounded":
		return lipgloss.RoundedBorder(), true
	case "solid":
		return lipgloss.BlockBorder(), true
	case "shadow":
		return lipgloss.ThickBorder(), true
	}
	return lipgloss.Border{}, false
}
