// Package console is the output sink shared by the command loop and the
// reminder goroutines.
//
// Every message is rendered into one buffer and handed to a mutex-guarded
// writer in a single Write call, so concurrent writers never tear a line.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Prompt is printed before each read, without a trailing newline.
const Prompt = " >>> "

type Console struct {
	w io.Writer
}

func New(w io.Writer) *Console {
	return &Console{w: zerolog.SyncWriter(w)}
}

func (c *Console) write(s string) {
	_, _ = io.WriteString(c.w, s)
}

// Println writes one line.
func (c *Console) Println(line string) {
	c.write(line + "\n")
}

// Printf writes one formatted line; a newline is appended.
func (c *Console) Printf(format string, args ...any) {
	c.write(fmt.Sprintf(format, args...) + "\n")
}

// Lines writes a block of lines as one unit.
func (c *Console) Lines(lines []string) {
	if len(lines) == 0 {
		return
	}
	c.write(strings.Join(lines, "\n") + "\n")
}

// Prompt shows the input marker.
func (c *Console) Prompt() {
	c.write(Prompt)
}

// Reminder breaks out of the pending prompt line, prints the reminder and
// re-renders the prompt, because the loop's own prompt is already on screen.
func (c *Console) Reminder(title string) {
	c.write("\n[REMINDER]: " + title + "\n" + Prompt)
}
