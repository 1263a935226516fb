package progress

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Backland-Labs/outreach/internal/dify"
)

func started(title string) dify.ProgressEvent {
	return dify.ProgressEvent{Event: dify.EventNodeStarted, NodeTitle: title, Status: dify.StatusRunning}
}

func finished(title string, status dify.Status) dify.ProgressEvent {
	elapsed := 1.5
	return dify.ProgressEvent{Event: dify.EventNodeFinished, NodeTitle: title, Status: status, ElapsedTime: &elapsed}
}

func titles(events []dify.ProgressEvent) []string {
	var out []string
	for _, ev := range events {
		out = append(out, ev.NodeTitle)
	}
	return out
}

func TestDedup(t *testing.T) {
	events := []dify.ProgressEvent{
		started("生成文案"),
		started("审核"),
		finished("生成文案", dify.StatusSucceeded),
		finished("审核", dify.StatusFailed),
		started("审核"),
		finished("审核", dify.StatusSucceeded),
		started("润色"),
	}

	got := Dedup(events)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"生成文案", "审核", "润色"}, titles(got), "first-seen order is kept")
	assert.Equal(t, dify.StatusSucceeded, got[0].Status)
	assert.Equal(t, dify.StatusSucceeded, got[1].Status, "retried node shows its latest report")
	assert.Equal(t, dify.StatusRunning, got[2].Status)
}

func TestDedup_Idempotent(t *testing.T) {
	cases := [][]dify.ProgressEvent{
		nil,
		{started("a")},
		{started("a"), started("b"), finished("a", dify.StatusSucceeded), started("c"), finished("b", dify.StatusFailed)},
		{started("x"), started("x"), started("x")},
	}
	for i, events := range cases {
		t.Run(fmt.Sprintf("case %d", i), func(t *testing.T) {
			once := Dedup(events)
			assert.Equal(t, once, Dedup(once))
		})
	}
}

func TestDedup_DoesNotModifyInput(t *testing.T) {
	events := []dify.ProgressEvent{started("a"), finished("a", dify.StatusSucceeded)}
	_ = Dedup(events)
	assert.Equal(t, dify.StatusRunning, events[0].Status)
}

func TestFilterAndHide(t *testing.T) {
	hidden := NewHiddenSet("开始", "输出")
	events := []dify.ProgressEvent{started("开始"), started("生成文案"), started("输出")}

	assert.Equal(t, []string{"生成文案"}, titles(Filter(events, hidden)))
	assert.Len(t, Filter(events, nil), 3, "nil set hides nothing")

	var seen []dify.ProgressEvent
	cb := Hide(hidden, func(ev dify.ProgressEvent) { seen = append(seen, ev) })
	for _, ev := range events {
		cb(ev)
	}
	assert.Equal(t, []string{"生成文案"}, titles(seen))

	assert.NotPanics(t, func() { Hide(hidden, nil)(started("生成文案")) })
}

func TestTee(t *testing.T) {
	var a, b int
	cb := Tee(func(dify.ProgressEvent) { a++ }, nil, func(dify.ProgressEvent) { b++ })
	cb(started("x"))
	cb(started("y"))
	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}

func TestTracker_KeepsTargetsApart(t *testing.T) {
	tr := NewTracker()
	var updates int
	tr.OnUpdate(func(string, dify.ProgressEvent) { updates++ })

	weibo := tr.Callback("weibo")
	douyin := tr.Callback("douyin")

	weibo(started("生成文案"))
	douyin(started("生成文案"))
	weibo(finished("生成文案", dify.StatusSucceeded))

	assert.Equal(t, []string{"weibo", "douyin"}, tr.Targets())
	assert.Len(t, tr.Events("weibo"), 2)
	assert.Len(t, tr.Events("douyin"), 1)
	assert.Equal(t, dify.StatusSucceeded, tr.Steps("weibo")[0].Status)
	assert.Equal(t, dify.StatusRunning, tr.Steps("douyin")[0].Status)
	assert.Equal(t, 3, updates)

	tr.Reset()
	assert.Empty(t, tr.Targets())
	assert.Empty(t, tr.Events("weibo"))
}

func TestTracker_ConcurrentTargets(t *testing.T) {
	tr := NewTracker()
	targets := []string{"weibo", "wechat", "douyin", "toutiao"}

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(cb func(dify.ProgressEvent)) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				cb(started(fmt.Sprintf("node-%d", i)))
			}
		}(tr.Callback(target))
	}
	wg.Wait()

	for _, target := range targets {
		events := tr.Events(target)
		require.Len(t, events, 50)
		for i, ev := range events {
			assert.Equal(t, fmt.Sprintf("node-%d", i), ev.NodeTitle, "per-target order is preserved")
		}
	}
}

func TestStageIndex(t *testing.T) {
	tests := []struct {
		title string
		want  int
	}{
		{"初审", 0},
		{"敏感词检测", 0},
		{"内容质量评估", 1},
		{"复审", 1},
		{"政策合规检查", 2},
		{"开始", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StageIndex(tt.title), tt.title)
	}
}

func TestStageBoard(t *testing.T) {
	b := NewStageBoard()
	assert.Equal(t, []StageStatus{StagePending, StagePending, StagePending}, b.Statuses())

	b.Start()
	b.Observe(started("开始"))
	b.Observe(started("初审：敏感词"))
	b.Observe(finished("初审：敏感词", dify.StatusSucceeded))
	assert.Equal(t, []StageStatus{StagePass, StageRunning, StagePending}, b.Statuses())

	b.Observe(finished("复审：内容质量", dify.StatusFailed))
	assert.Equal(t, []StageStatus{StagePass, StageBlock, StageRunning}, b.Statuses())

	b.Fail()
	assert.Equal(t, []StageStatus{StagePass, StageBlock, StageBlock}, b.Statuses())

	b.Settle([]string{"pass", "warning", "block"})
	assert.Equal(t, []StageStatus{StagePass, StageWarning, StageBlock}, b.Statuses())
}
