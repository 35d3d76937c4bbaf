// Package output provides the result reporters and the metrics surface.
//
// Reporters implement ports.Reporter:
//   - ConsoleReporter: styled, human-readable lines
//   - JSONReporter: buffered JSON lines to a file or stdout
//   - MemoryReporter: bounded ring buffer of recent results
//
// All reporters are safe for concurrent use.
package output

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/xoelrdgz/polystream/internal/domain"
	"github.com/xoelrdgz/polystream/internal/ports"
	"github.com/xoelrdgz/polystream/pkg/sanitize"
)

var (
	_ ports.Reporter = (*ConsoleReporter)(nil)
	_ ports.Reporter = (*JSONReporter)(nil)
	_ ports.Reporter = (*MemoryReporter)(nil)
)

var (
	ColorPrimary = lipgloss.Color("#00ff41")
	ColorAmber   = lipgloss.Color("#ffb000")
	ColorRed     = lipgloss.Color("#ff3333")
	ColorText    = lipgloss.Color("#e5e5e5")
	ColorMuted   = lipgloss.Color("#707070")
)

// ConsoleReporter prints results as plain lines. Styling is applied only
// when w is a terminal.
type ConsoleReporter struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	mu       sync.Mutex
	sections int
	maxMsg   int

	header, warn, fail, muted, bold lipgloss.Style
}

func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	r := lipgloss.NewRenderer(w)
	return &ConsoleReporter{
		w:        w,
		renderer: r,
		maxMsg:   4 * sanitize.DefaultMaxMessage,
		header:   r.NewStyle().Foreground(ColorPrimary).Bold(true),
		warn:     r.NewStyle().Foreground(ColorAmber),
		fail:     r.NewStyle().Foreground(ColorRed),
		muted:    r.NewStyle().Foreground(ColorMuted),
		bold:     r.NewStyle().Foreground(ColorText).Bold(true),
	}
}

func (c *ConsoleReporter) clean(s string) string {
	return sanitize.Message(s, c.maxMsg)
}

func (c *ConsoleReporter) println(s string) {
	fmt.Fprintln(c.w, s)
}

// Section prints a "=== title ===" header, separated from the previous
// section by a blank line.
func (c *ConsoleReporter) Section(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sections > 0 {
		c.println("")
	}
	c.sections++
	c.println(c.header.Render("=== " + c.clean(title) + " ==="))
}

// Note prints a free-form line.
func (c *ConsoleReporter) Note(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.println(c.muted.Render(c.clean(fmt.Sprintf(format, args...))))
}

func (c *ConsoleReporter) ReportProcessor(_ context.Context, o domain.ProcessorOutcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !o.Valid:
		c.println(c.warn.Render(fmt.Sprintf("%s: rejected invalid data", o.Processor)))
	case o.Err != nil:
		c.println(c.fail.Render(fmt.Sprintf("%s: %s", o.Processor, c.clean(o.Err.Error()))))
	default:
		c.println(c.clean(o.Output))
	}
	return nil
}

func (c *ConsoleReporter) ReportBatch(_ context.Context, r domain.BatchResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.OK() {
		c.println(c.clean(r.Summary))
		return nil
	}
	c.println(c.fail.Render(c.clean(r.Summary)))
	return nil
}

func (c *ConsoleReporter) ReportFilter(_ context.Context, r domain.FilterResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !r.OK() {
		c.println(c.fail.Render(fmt.Sprintf("Filtering error in %s: %s", r.StreamID, c.clean(r.Err.Error()))))
		return nil
	}
	c.println(fmt.Sprintf("%s: %s filtered item(s)", r.StreamID, c.bold.Render(fmt.Sprint(len(r.Kept)))))
	return nil
}

func (c *ConsoleReporter) ReportStats(_ context.Context, stats []domain.StreamStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range stats {
		c.println(c.clean(s.String()))
	}
	return nil
}

// ReportSummary prints the run summary.
func (c *ConsoleReporter) ReportSummary(s domain.RunSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.println(c.muted.Render(fmt.Sprintf(
		"%d stream(s), %d batch(es), %d failed, %d item(s) processed, %d kept; batch size p50=%d p99=%d max=%d",
		s.Streams, s.Batches, s.FailedBatches, s.ItemsProcessed, s.ItemsKept,
		s.BatchSizeP50, s.BatchSizeP99, s.BatchSizeMax,
	)))
}

func (c *ConsoleReporter) Flush() error {
	return nil
}

func (c *ConsoleReporter) Close() error {
	return nil
}
