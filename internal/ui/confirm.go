package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirmation describes a destructive operation to confirm.
type Confirmation struct {
	Title    string
	Warnings []string

	// Answer is what the user must type to proceed, compared without
	// regard to case. Empty means "y".
	Answer string

	Width int // zero uses the terminal width
}

// Confirm prints a warning box to out and reads one line from in. It returns
// true only if the line matches c.Answer.
func Confirm(in io.Reader, out io.Writer, c Confirmation) bool {
	width := c.Width
	if width == 0 {
		width = GetTerminalWidth()
	}
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	answer := c.Answer
	if answer == "" {
		answer = "y"
	}

	lines := []string{"", WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, c.Title)), ""}
	bullet := lipgloss.NewStyle().Foreground(TextColor)
	for _, warning := range c.Warnings {
		lines = append(lines, bullet.Render("   • "+warning))
	}
	lines = append(lines, "")

	fmt.Fprintln(out, boxStyle(WarningColor, width).Render(strings.Join(lines, "\n")))
	fmt.Fprintln(out)
	fmt.Fprint(out, WarningTitleStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", answer)))

	input, err := bufio.NewReader(in).ReadString('\n')
	fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}

	if strings.EqualFold(strings.TrimSpace(input), answer) {
		return true
	}

	fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	return false
}
