// Package output renders CLI output in text or JSON mode with
// consistent styling.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Mode selects the output format.
type Mode string

const (
	// ModeAuto picks text output; it exists so scripts can force json.
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Styles holds the lipgloss styles used across commands.
type Styles struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
}

func defaultStyles() Styles {
	return Styles{
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Bold:    lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Renderer writes command output to the configured streams.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles Styles
}

// NewRenderer creates a renderer for the given streams and mode.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return &Renderer{out: out, errOut: errOut, mode: mode, styles: defaultStyles()}
}

// EffectiveMode resolves ModeAuto to the concrete mode in use.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode == ModeAuto {
		return ModeText
	}
	return r.mode
}

// IsJSON reports whether structured output was requested.
func (r *Renderer) IsJSON() bool { return r.EffectiveMode() == ModeJSON }

// Styles returns the renderer's styles.
func (r *Renderer) Styles() Styles { return r.styles }

// Out returns the primary output stream.
func (r *Renderer) Out() io.Writer { return r.out }

// Printf writes formatted text to the primary stream.
func (r *Renderer) Printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// Println writes a line to the primary stream.
func (r *Renderer) Println(args ...any) {
	fmt.Fprintln(r.out, args...)
}

// Success writes a styled success line.
func (r *Renderer) Success(msg string) {
	fmt.Fprintln(r.out, r.styles.Success.Render("✓ ")+msg)
}

// Warningf writes a styled warning line to the error stream.
func (r *Renderer) Warningf(format string, args ...any) {
	fmt.Fprintln(r.errOut, r.styles.Warning.Render("warning: ")+fmt.Sprintf(format, args...))
}

// Errorf writes a styled error line to the error stream.
func (r *Renderer) Errorf(format string, args ...any) {
	fmt.Fprintln(r.errOut, r.styles.Error.Render("error: ")+fmt.Sprintf(format, args...))
}

// JSON writes v as indented JSON to the primary stream.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
