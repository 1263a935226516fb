package output

import (
	"fmt"
	"sync"
	"time"
)

// Progress represents an active spinner
type Progress struct {
	printer      *Printer
	message      string
	startTime    time.Time
	done         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	mu           sync.Mutex
	spinnerIndex int
}

// Spinner characters for animation
var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// StartProgress creates and starts a new spinner
func (p *Printer) StartProgress(message string) *Progress {
	progress := &Progress{
		printer:   p,
		message:   message,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}

	// First frame is drawn before returning
	progress.render()

	progress.wg.Add(1)
	go progress.animate()

	return progress
}

// UpdateMessage updates the spinner message, typically to the running node
func (p *Progress) UpdateMessage(message string) {
	p.mu.Lock()
	p.message = message
	p.mu.Unlock()

	p.render()
}

// Log prints a full line above the spinner
func (p *Progress) Log(line string) {
	p.printer.write(p.printer.out, clearLine+line+"\n")
	p.render()
}

// Elapsed returns the time since the spinner started
func (p *Progress) Elapsed() time.Duration {
	return time.Since(p.startTime)
}

// Stop stops the spinner and clears its line. It is safe to call more than once.
func (p *Progress) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.printer.write(p.printer.out, clearLine)
	})
}

// animate runs the spinner animation in a goroutine
func (p *Progress) animate() {
	defer p.wg.Done()

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.spinnerIndex++
			p.mu.Unlock()
			p.render()
		}
	}
}

// render displays the current spinner state
func (p *Progress) render() {
	select {
	case <-p.done:
		return
	default:
	}

	p.mu.Lock()
	message := p.message
	spinner := spinnerChars[p.spinnerIndex%len(spinnerChars)]
	p.mu.Unlock()

	elapsed := formatDuration(time.Since(p.startTime))

	var line string
	if p.printer.useColor {
		line = fmt.Sprintf("\r%s%s%s %s %s[%s]%s",
			colorBold, colorCyan, spinner, message,
			colorGray, elapsed, colorReset)
	} else {
		line = fmt.Sprintf("\r%s %s [%s]", spinner, message, elapsed)
	}

	p.printer.write(p.printer.out, line+"\033[K")
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.0fs", d.Seconds())
}
