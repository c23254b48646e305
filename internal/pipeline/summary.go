package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ahrav/go-instructgen/internal/domain"
)

// RenderSummary writes the final run summary. Colors are only emitted when
// w is a terminal.
func RenderSummary(w io.Writer, s domain.RunSummary) error {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	label := r.NewStyle().Foreground(lipgloss.Color("8")).Width(11)
	good := r.NewStyle().Foreground(lipgloss.Color("10"))
	warn := r.NewStyle().Foreground(lipgloss.Color("11"))

	produced := good
	if s.Produced < int64(s.Requested) {
		produced = warn
	}

	var b strings.Builder
	b.WriteString(title.Render("dataset generation finished"))
	b.WriteByte('\n')
	row := func(k string, v string) {
		b.WriteString(label.Render(k))
		b.WriteString(v)
		b.WriteByte('\n')
	}
	row("requested", fmt.Sprint(s.Requested))
	row("produced", produced.Render(fmt.Sprint(s.Produced)))
	if s.Dropped > 0 {
		row("dropped", warn.Render(fmt.Sprint(s.Dropped)))
	}
	if s.Cancelled {
		row("status", warn.Render("cancelled"))
	}
	row("output", s.OutputPath)
	row("duration", s.Duration.Round(time.Millisecond).String())

	_, err := io.WriteString(w, b.String())
	return err
}
