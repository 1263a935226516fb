package progress

import (
	"strings"
	"sync"

	"github.com/Backland-Labs/outreach/internal/dify"
)

// StageStatus is the state of one review stage
type StageStatus string

const (
	StagePending StageStatus = "pending"
	StageRunning StageStatus = "running"
	StagePass    StageStatus = "pass"
	StageWarning StageStatus = "warning"
	StageBlock   StageStatus = "block"
)

// ReviewStages are the three levels of content review, in order
var ReviewStages = []string{"初审：格式与敏感词", "复审：内容质量", "终审：政策合规"}

// stageKeywords map node titles onto review stages
var stageKeywords = [][]string{
	{"初审", "格式", "敏感"},
	{"复审", "质量"},
	{"终审", "合规", "政策"},
}

// StageIndex returns the review stage a node title belongs to, or -1
func StageIndex(nodeTitle string) int {
	lower := strings.ToLower(nodeTitle)
	for i, keywords := range stageKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return i
			}
		}
	}
	return -1
}

// StageBoard follows a review workflow through its three stages. It is safe
// for concurrent use.
type StageBoard struct {
	mu       sync.Mutex
	statuses []StageStatus
}

// NewStageBoard creates a board with every stage pending
func NewStageBoard() *StageBoard {
	b := &StageBoard{statuses: make([]StageStatus, len(ReviewStages))}
	for i := range b.statuses {
		b.statuses[i] = StagePending
	}
	return b
}

// Start marks the first stage running, as a review begins there
func (b *StageBoard) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.statuses {
		b.statuses[i] = StagePending
	}
	b.statuses[0] = StageRunning
}

// Observe applies one progress event. Events for nodes that belong to no
// stage are ignored. A finished stage hands over to the next pending one.
func (b *StageBoard) Observe(ev dify.ProgressEvent) {
	idx := StageIndex(ev.NodeTitle)
	if idx < 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev.Event {
	case dify.EventNodeStarted:
		b.statuses[idx] = StageRunning
	case dify.EventNodeFinished:
		if ev.Status == dify.StatusSucceeded {
			b.statuses[idx] = StagePass
		} else {
			b.statuses[idx] = StageBlock
		}
		if next := idx + 1; next < len(b.statuses) && b.statuses[next] == StagePending {
			b.statuses[next] = StageRunning
		}
	}
}

// Fail marks every running stage blocked after the call itself failed
func (b *StageBoard) Fail() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.statuses {
		if s == StageRunning {
			b.statuses[i] = StageBlock
		}
	}
}

// Settle replaces the board with the final per-stage outcomes. Anything other
// than block or warning counts as a pass.
func (b *StageBoard) Settle(outcomes []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	statuses := make([]StageStatus, len(outcomes))
	for i, o := range outcomes {
		switch StageStatus(o) {
		case StageBlock:
			statuses[i] = StageBlock
		case StageWarning:
			statuses[i] = StageWarning
		default:
			statuses[i] = StagePass
		}
	}
	b.statuses = statuses
}

// Statuses returns a snapshot of the board
func (b *StageBoard) Statuses() []StageStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]StageStatus(nil), b.statuses...)
}
