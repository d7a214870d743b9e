// Package report renders the human-readable summary of a run.
//
// The plain format reproduces the classic console transcript. The markdown
// format builds a small document and renders it for the terminal with
// glamour, under a lipgloss banner coloured by severity.
package report

import (
	"fmt"
	"io"
	"strings"

	"dialert/internal/advice"
	"dialert/internal/types"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Format selects how the report is rendered.
type Format string

const (
	FormatPlain    Format = "plain"
	FormatMarkdown Format = "markdown"
)

// RunningNotice is printed right before the predictor is invoked.
const RunningNotice = "\n[Running prediction...]\n"

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatPlain, "":
		return FormatPlain, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want plain or markdown)", name)
	}
}

// Severity colours, from the brand palette.
var (
	colorHigh     = lipgloss.Color("#e53935")
	colorModerate = lipgloss.Color("#FFC107")
	colorLow      = lipgloss.Color("#8BC34A")
	colorUnknown  = lipgloss.Color("#2196F3")
)

// Renderer writes reports in one format.
type Renderer struct {
	format Format
	width  int
	style  string // glamour style; empty picks one from the terminal
}

// NewRenderer creates a renderer. width is the markdown word-wrap column.
func NewRenderer(format Format, width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	return &Renderer{format: format, width: width}
}

// WithStyle fixes the glamour style ("dark", "light", "notty", ...).
func (r *Renderer) WithStyle(style string) *Renderer {
	r.style = style
	return r
}

// Write renders outcome to w.
func (r *Renderer) Write(w io.Writer, outcome types.RunOutcome) error {
	var out string
	switch r.format {
	case FormatMarkdown:
		rendered, err := r.renderMarkdown(outcome)
		if err != nil {
			return err
		}
		out = Banner(outcome.Prediction.RiskLabel) + "\n" + rendered
	default:
		out = Plain(outcome)
	}
	_, err := io.WriteString(w, out)
	return err
}

func (r *Renderer) renderMarkdown(outcome types.RunOutcome) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(r.width)}
	if r.style != "" {
		opts = append(opts, glamour.WithStandardStyle(r.style))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(Markdown(outcome))
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return rendered, nil
}

// Plain is the console transcript: probability, label, then one bulleted
// advisory per line and a trailing blank line.
func Plain(outcome types.RunOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Diabetes Risk Probability: %s%%\n", outcome.Prediction.Probability)
	fmt.Fprintf(&b, "Prediction: %s\n\n", outcome.Prediction.RiskLabel)
	b.WriteString(advice.Text(outcome.Recommendations))
	b.WriteString("\n")
	return b.String()
}

// Markdown is the report as a markdown document.
func Markdown(outcome types.RunOutcome) string {
	p := outcome.Patient
	var b strings.Builder

	b.WriteString("# Diabetes Risk Assessment\n\n")
	fmt.Fprintf(&b, "**Probability:** %s%%  \n", outcome.Prediction.Probability)
	fmt.Fprintf(&b, "**Prediction:** %s\n\n", outcome.Prediction.RiskLabel)

	b.WriteString("## Inputs\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	rows := [][2]string{
		{"Gender", p.Gender},
		{"Age", formatNumber(p.Age)},
		{"Hypertension", yesNo(p.Hypertension)},
		{"Heart disease", yesNo(p.HeartDisease)},
		{"Smoking status", p.SmokingStatus},
		{"BMI", formatNumber(p.BMI)},
		{"HbA1c", formatNumber(p.HbA1c)},
		{"Blood glucose", formatNumber(p.Glucose)},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], row[1])
	}

	b.WriteString("\n## Recommendations\n\n")
	for _, line := range advice.Strip(outcome.Recommendations) {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	return b.String()
}

// Banner is a one-line severity header for label.
func Banner(label string) string {
	sev := advice.Classify(label)
	color := colorUnknown
	switch sev {
	case advice.SeverityHigh:
		color = colorHigh
	case advice.SeverityModerate:
		color = colorModerate
	case advice.SeverityLow:
		color = colorLow
	}
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)
	return style.Render(strings.ToUpper(string(sev)) + " RISK")
}

func yesNo(flag int) string {
	if flag == 1 {
		return "yes"
	}
	return "no"
}

func formatNumber(f float64) string {
	return fmt.Sprintf("%g", f)
}
