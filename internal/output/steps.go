package output

import (
	"fmt"
	"strings"

	"github.com/Backland-Labs/outreach/internal/dify"
	"github.com/Backland-Labs/outreach/internal/progress"
)

// stepSymbol picks the marker and color for a node's state
func stepSymbol(status dify.Status) (string, string) {
	switch status {
	case dify.StatusSucceeded:
		return "✓", colorGreen
	case dify.StatusFailed:
		return "✗", colorRed
	default:
		return "⋯", colorCyan
	}
}

// StepText describes one node, with its elapsed time once finished
func StepText(ev dify.ProgressEvent) string {
	title := ev.NodeTitle
	if title == "" {
		title = ev.NodeType
	}
	if ev.ElapsedTime != nil {
		return fmt.Sprintf("%s (%.1fs)", title, *ev.ElapsedTime)
	}
	return title
}

// ProgressEvent prints one node update as it arrives. target, when set,
// prefixes the line so concurrent runs stay readable.
func (p *Printer) ProgressEvent(target string, ev dify.ProgressEvent) {
	symbol, color := stepSymbol(ev.Status)
	text := StepText(ev)
	if target != "" {
		text = "[" + target + "] " + text
	}
	p.write(p.out, p.line(color, symbol, text))
}

// Steps prints a step list, one line per node. Pass events through
// progress.Dedup first to show each node once.
func (p *Printer) Steps(events []dify.ProgressEvent) {
	var b strings.Builder
	for _, ev := range events {
		symbol, color := stepSymbol(ev.Status)
		b.WriteString("  ")
		b.WriteString(p.line(color, symbol, StepText(ev)))
	}
	p.write(p.out, b.String())
}

func stageSymbol(status progress.StageStatus) (string, string) {
	switch status {
	case progress.StagePass:
		return "✓", colorGreen
	case progress.StageWarning:
		return "⚠", colorYellow
	case progress.StageBlock:
		return "✗", colorRed
	case progress.StageRunning:
		return "⋯", colorCyan
	default:
		return "○", colorGray
	}
}

// Stages prints the review stage board
func (p *Printer) Stages(statuses []progress.StageStatus) {
	var b strings.Builder
	for i, status := range statuses {
		name := fmt.Sprintf("stage %d", i+1)
		if i < len(progress.ReviewStages) {
			name = progress.ReviewStages[i]
		}
		symbol, color := stageSymbol(status)
		b.WriteString("  ")
		b.WriteString(p.line(color, symbol, fmt.Sprintf("%s [%s]", name, status)))
	}
	p.write(p.out, b.String())
}
