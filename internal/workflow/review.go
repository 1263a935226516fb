package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Backland-Labs/outreach/internal/dify"
	"github.com/Backland-Labs/outreach/internal/progress"
)

// maxTopics is how many recommended topics are kept
const maxTopics = 6

// ReviewStage is the verdict of one review level
type ReviewStage struct {
	Stage     string `json:"stage"`
	StageName string `json:"stageName"`
	Result    string `json:"result"`
	Issues    []any  `json:"issues"`
}

// ReviewReport is the parsed outcome of a review
type ReviewReport struct {
	FinalStatus string        `json:"final_status"`
	Stages      []ReviewStage `json:"stages"`
	Summary     string        `json:"summary"`
	IssueCount  int           `json:"issue_count"`
}

// Outcomes lists each stage's result in order
func (r ReviewReport) Outcomes() []string {
	out := make([]string, len(r.Stages))
	for i, s := range r.Stages {
		out[i] = s.Result
	}
	return out
}

// ParseReviewReport reads review_json, which holds either {stages, summary}
// or a bare stage array. When it is not JSON, or its stages do not decode, a
// report is synthesised from the final status with the result text as summary.
func ParseReviewReport(out ReviewOutput) ReviewReport {
	report := ReviewReport{FinalStatus: out.FinalStatus, IssueCount: out.IssueCount}

	raw := bytes.TrimSpace([]byte(out.ReviewJSON))
	if !json.Valid(raw) {
		return synthesizeReport(report, out)
	}

	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &report.Stages); err != nil {
			return synthesizeReport(report, out)
		}
	case '{':
		var doc struct {
			Stages  json.RawMessage `json:"stages"`
			Summary any             `json:"summary"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return synthesizeReport(report, out)
		}
		if stages := bytes.TrimSpace(doc.Stages); len(stages) > 0 && stages[0] == '[' {
			if err := json.Unmarshal(stages, &report.Stages); err != nil {
				return synthesizeReport(report, out)
			}
		}
		if s, ok := doc.Summary.(string); ok {
			report.Summary = s
		}
	}
	return report
}

// synthesizeReport fills every review level with one verdict derived from
// the final status
func synthesizeReport(report ReviewReport, out ReviewOutput) ReviewReport {
	result := progress.StageWarning
	if out.FinalStatus == ReviewApproved {
		result = progress.StagePass
	}
	report.Stages = make([]ReviewStage, 0, len(progress.ReviewStages))
	for i, name := range progress.ReviewStages {
		report.Stages = append(report.Stages, ReviewStage{
			Stage:     fmt.Sprintf("stage_%d", i),
			StageName: name,
			Result:    string(result),
			Issues:    []any{},
		})
	}
	report.Summary = out.Result
	return report
}

// RunReview streams a review and keeps board in step with it. On success the
// board is settled from the parsed report; on failure running stages are
// marked blocked.
func RunReview(ctx context.Context, r Runner, in ReviewInput, board *progress.StageBoard, onProgress func(dify.ProgressEvent), user string) (ReviewReport, error) {
	board.Start()

	out, err := Review(r).RunStreaming(ctx, in, dify.StreamOptions{
		OnProgress: progress.Tee(board.Observe, onProgress),
	}, user)
	if err != nil {
		board.Fail()
		return ReviewReport{}, err
	}

	report := ParseReviewReport(out)
	board.Settle(report.Outcomes())
	return report, nil
}

// Topic is one recommended campaign topic
type Topic struct {
	Title    string `json:"title"`
	Reason   string `json:"reason"`
	Audience string `json:"audience"`
	Urgency  string `json:"urgency"`
}

// ErrTopicsUnparsable is returned when topics_json holds no topic list
var ErrTopicsUnparsable = errors.New("推荐结果解析失败，请查看原始输出")

// ParseTopics reads topics_json, either {topics: [...]} or a bare array, and
// keeps at most six topics
func ParseTopics(out TopicRecommenderOutput) ([]Topic, error) {
	raw := bytes.TrimSpace([]byte(out.TopicsJSON))

	var topics []Topic
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &topics); err != nil {
			return nil, ErrTopicsUnparsable
		}
	} else {
		var doc struct {
			Topics []Topic `json:"topics"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil || doc.Topics == nil {
			return nil, ErrTopicsUnparsable
		}
		topics = doc.Topics
	}

	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	return topics, nil
}
