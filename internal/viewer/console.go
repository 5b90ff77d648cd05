package viewer

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/arsalan924/trajlens/internal/trajectory"
)

// WriteText writes a rendered trajectory as plain text. Display records are
// HTML-escaped; a console surface wants the original characters back, so
// text is unescaped on the way out.
func WriteText(w io.Writer, name string, rt *trajectory.RenderedTrajectory) error {
	if len(rt.Steps) == 0 {
		_, err := fmt.Fprintf(w, "%s: no trajectory content\n", name)
		return err
	}

	for i, step := range rt.Steps {
		if _, err := fmt.Fprintf(w, "=== Step %d ===\n", i+1); err != nil {
			return err
		}

		writeSection(w, "RESPONSE", step.Response)
		writeSection(w, "ACTION", step.Action)
		writeSection(w, "OBSERVATION", step.Observation)

		if len(step.Images) > 0 {
			fmt.Fprintln(w, "IMAGES:")
			for j, img := range step.Images {
				fmt.Fprintf(w, "  [%d] %s (%s)\n", j+1, html.UnescapeString(img.AltText), img.Format)
			}
		}

		if step.HasExecutionTime {
			fmt.Fprintf(w, "EXECUTION TIME: %s\n", step.ExecutionLabel)
		}

		if len(step.Messages) > 0 {
			fmt.Fprintln(w, "MESSAGES:")
			for _, msg := range step.Messages {
				fmt.Fprintf(w, "  [%s] %s\n", html.UnescapeString(msg.Role), indentRest(html.UnescapeString(msg.Content), "  "))
				for _, call := range msg.ToolCalls {
					fmt.Fprintln(w, indentAll(html.UnescapeString(call), "    "))
				}
			}
		}

		fmt.Fprintln(w)
	}

	if rt.Info != nil && rt.Info.ExitStatus != "" {
		fmt.Fprintf(w, "Exit status: %s\n", rt.Info.ExitStatus)
	}
	return nil
}

func writeSection(w io.Writer, title, escaped string) {
	text := html.UnescapeString(escaped)
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Fprintf(w, "%s:\n%s\n", title, indentAll(text, "  "))
}

func indentAll(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// indentRest indents every line but the first, for text placed after an
// inline header.
func indentRest(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
