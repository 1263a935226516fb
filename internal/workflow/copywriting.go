package workflow

import (
	"context"

	"github.com/Backland-Labs/outreach/internal/dify"
	"github.com/Backland-Labs/outreach/internal/fanout"
	"github.com/Backland-Labs/outreach/internal/progress"
)

// DefaultStyle is used when a request names no style
const DefaultStyle = "formal"

// Platforms are the publishing targets offered for copywriting
var Platforms = []string{"weibo", "wechat", "douyin", "toutiao"}

// platformMap translates dashboard platform ids to the ids the copywriting
// workflow expects
var platformMap = map[string]string{
	"weibo":   "weibo",
	"wechat":  "wechat_mp",
	"douyin":  "douyin",
	"toutiao": "toutiao",
}

// ServicePlatform returns the workflow's id for a dashboard platform id.
// Unknown ids pass through unchanged.
func ServicePlatform(id string) string {
	if mapped, ok := platformMap[id]; ok {
		return mapped
	}
	return id
}

// GenerateOptions controls a multi-platform copywriting run
type GenerateOptions struct {
	// Limit caps concurrent calls; zero means one call per platform at once
	Limit int

	// Hidden nodes are not reported to Tracker
	Hidden progress.HiddenSet

	// Tracker receives each platform's progress under the platform id
	Tracker *progress.Tracker

	User string
}

// GenerateCopywriting writes copy for every platform concurrently from the
// shared base input. Platforms that failed are absent from the outputs and
// their errors are aggregated in the result.
func GenerateCopywriting(ctx context.Context, r Runner, base CopywritingInput, platforms []string, opts GenerateOptions) fanout.Result[CopywritingOutput] {
	if base.Style == "" {
		base.Style = DefaultStyle
	}
	wf := Copywriting(r)

	return fanout.Run(ctx, platforms, opts.Limit, func(ctx context.Context, platform string) (CopywritingOutput, error) {
		in := base
		in.Platform = platform

		var onProgress func(dify.ProgressEvent)
		if opts.Tracker != nil {
			onProgress = progress.Hide(opts.Hidden, opts.Tracker.Callback(platform))
		}
		return wf.RunStreaming(ctx, in, dify.StreamOptions{OnProgress: onProgress}, opts.User)
	})
}
