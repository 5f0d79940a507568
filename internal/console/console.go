// Package console prints build progress and warnings for a person watching
// the terminal. Structured diagnostics go to the slog logger instead.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"
)

// Console writes coloured progress lines. It is safe for concurrent use and
// implements directive.Reporter.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// New creates a Console writing to w. With useColor false the output is
// plain text.
func New(w io.Writer, useColor bool) *Console {
	return &Console{w: w, color: useColor}
}

func (c *Console) paint(col color.Color, s string) string {
	if !c.color {
		return s
	}
	return col.Sprint(s)
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, s)
}

// Step announces a build step such as "Finding files".
func (c *Console) Step(text string) {
	c.println(c.paint(color.Cyan, "›") + " " + text)
}

// Done announces a finished step.
func (c *Console) Done(text string) {
	c.println(c.paint(color.Green, "✔") + " " + text)
}

// Warn prints a warning about file.
func (c *Console) Warn(file, message string) {
	line := c.paint(color.Yellow, "‼") + " " + c.paint(color.Gray, "Warning:") + " " + message
	if file != "" {
		line += " " + c.paint(color.Gray, "("+file+")")
	}
	c.println(line)
}

// Fail prints an error that stopped file from being rendered.
func (c *Console) Fail(file string, err error) {
	c.println(c.paint(color.Red, "✖") + " " + file + ": " + err.Error())
}
