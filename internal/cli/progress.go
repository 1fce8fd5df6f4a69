package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/xlsql/xlsql-go/internal/importer"
)

// ProgressTracker draws one progress line per sheet while it is read and
// written.
type ProgressTracker struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
	bars    []*barState
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
}

type barState struct {
	key       string
	label     string
	phase     string
	current   int64
	total     int64
	startTime time.Time
	done      bool
	doneMsg   string
}

// NewProgressTracker creates a new progress tracker writing to out.
func NewProgressTracker(out io.Writer, enabled bool) *ProgressTracker {
	return &ProgressTracker{
		out:     out,
		enabled: enabled,
		bars:    make([]*barState, 0),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Enabled reports whether progress is drawn.
func (pt *ProgressTracker) Enabled() bool {
	return pt.enabled
}

// startRenderLoop starts the render loop if not already started.
func (pt *ProgressTracker) startRenderLoop() {
	if pt.started {
		return
	}
	pt.started = true
	go pt.renderLoop()
}

// renderLoop continuously redraws all progress bars.
func (pt *ProgressTracker) renderLoop() {
	defer close(pt.doneCh)

	// Hide cursor
	fmt.Fprint(pt.out, "\033[?25l")

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	rendered := 0
	for {
		select {
		case <-pt.stopCh:
			pt.mu.Lock()
			pt.render(rendered)
			pt.mu.Unlock()
			fmt.Fprint(pt.out, "\033[?25h") // Show cursor
			return
		case <-ticker.C:
			pt.mu.Lock()
			rendered = pt.render(rendered)
			pt.mu.Unlock()
		}
	}
}

// render draws all progress bars over the previous render of prev lines and
// returns the number of lines drawn. Callers hold pt.mu.
func (pt *ProgressTracker) render(prev int) int {
	if len(pt.bars) == 0 {
		return prev
	}

	if prev > 0 {
		fmt.Fprintf(pt.out, "\033[%dA", prev)
	}

	for _, bar := range pt.bars {
		fmt.Fprint(pt.out, "\r\033[K") // Clear line
		if bar.done {
			fmt.Fprint(pt.out, bar.doneMsg)
		} else {
			pt.drawBar(bar)
		}
		fmt.Fprintln(pt.out)
	}
	return len(pt.bars)
}

// drawBar draws a single progress bar.
func (pt *ProgressTracker) drawBar(bar *barState) {
	const width = 30

	elapsed := time.Since(bar.startTime)
	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(bar.current) / elapsed.Seconds()
	}

	labelColor := color.New(color.FgCyan)
	barColor := color.New(color.FgYellow)

	labelColor.Fprintf(pt.out, "%s %s ", bar.label, bar.phase)

	if bar.total > 0 {
		// Known total - show progress bar
		percent := float64(bar.current) / float64(bar.total) * 100
		filled := int(float64(width) * percent / 100)
		if filled > width {
			filled = width
		}

		fmt.Fprint(pt.out, "[")
		barColor.Fprint(pt.out, strings.Repeat("█", filled))
		fmt.Fprint(pt.out, strings.Repeat("░", width-filled))
		fmt.Fprint(pt.out, "] ")
		fmt.Fprintf(pt.out, "%5.1f%% %s/%s %s/s",
			percent,
			fmtNum(bar.current),
			fmtNum(bar.total),
			fmtNum(int64(rate)))
	} else {
		// Unknown total - spinner
		spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		idx := int(time.Now().UnixMilli()/100) % len(spinner)
		fmt.Fprintf(pt.out, "%s %s rows (%s/s)",
			spinner[idx],
			fmtNum(bar.current),
			fmtNum(int64(rate)))
	}
}

// Stop stops the render loop and prints final state. It is safe to call
// more than once.
func (pt *ProgressTracker) Stop() {
	pt.mu.Lock()
	if !pt.enabled || !pt.started || pt.stopped {
		pt.mu.Unlock()
		return
	}
	pt.stopped = true
	pt.mu.Unlock()

	close(pt.stopCh)
	<-pt.doneCh
}

// findBar finds a bar by sheet.
func (pt *ProgressTracker) findBar(sheet string) *barState {
	for _, bar := range pt.bars {
		if bar.key == sheet {
			return bar
		}
	}
	return nil
}

// StartSheet starts tracking a sheet.
func (pt *ProgressTracker) StartSheet(sheet, tableName string) {
	if !pt.enabled {
		return
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.startRenderLoop()

	pt.bars = append(pt.bars, &barState{
		key:       sheet,
		label:     sheet + " → " + tableName,
		phase:     "reading",
		startTime: time.Now(),
	})
}

// UpdateRead updates the number of rows read from a sheet.
func (pt *ProgressTracker) UpdateRead(sheet string, rows int64) {
	if !pt.enabled {
		return
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()

	if bar := pt.findBar(sheet); bar != nil {
		bar.current = rows
		bar.total = rows
	}
}

// UpdateWrite updates the number of rows written from a sheet. Once the
// sheet has been read completely the bar shows the written share of it.
func (pt *ProgressTracker) UpdateWrite(sheet string, rows int64) {
	if !pt.enabled {
		return
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()

	if bar := pt.findBar(sheet); bar != nil {
		if bar.phase != "writing" {
			bar.phase = "writing"
			bar.startTime = time.Now()
		}
		if rows > bar.total {
			bar.total = 0
		}
		bar.current = rows
	}
}

// FinishSheet marks a sheet as imported.
func (pt *ProgressTracker) FinishSheet(result *importer.Result) {
	if !pt.enabled {
		return
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()

	if bar := pt.findBar(result.Sheet); bar != nil {
		bar.done = true
		msg := fmt.Sprintf("✓ Imported %s rows from '%s' into '%s' in %v",
			fmtNum(int64(result.RowCount)), result.Sheet, result.TableName, result.Duration.Round(time.Millisecond))
		if result.Indexes > 0 {
			msg += fmt.Sprintf(" (%d index(es))", result.Indexes)
		}
		bar.doneMsg = color.GreenString("%s", msg)
	}
}

// Error marks a sheet as failed.
func (pt *ProgressTracker) Error(sheet string, err error) {
	if !pt.enabled {
		return
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()

	if bar := pt.findBar(sheet); bar != nil {
		bar.done = true
		bar.doneMsg = color.YellowString("  ✗ %s failed: %v", sheet, err)
	}
}

// Helper functions

func fmtNum(n int64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
	if n >= 1000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}
