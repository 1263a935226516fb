package workflow

import (
	"fmt"
	"strings"
)

// Kind names one workflow application. It is also the endpoint name the
// client resolves.
type Kind string

const (
	KindCopywriting      Kind = "copywriting"
	KindPoster           Kind = "poster"
	KindVideoScript      Kind = "video_script"
	KindReview           Kind = "review"
	KindMediaSearch      Kind = "media_search"
	KindPlanner          Kind = "planner"
	KindAnalytics        Kind = "analytics"
	KindTopicRecommender Kind = "topic_recommender"
	KindPrecision        Kind = "precision"
	KindCourseware       Kind = "courseware"
	KindPublicOpinion    Kind = "public_opinion"
	KindImageGen         Kind = "image_gen"
)

// KindInfo describes a workflow kind for listings
type KindInfo struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var registry = []KindInfo{
	{KindCopywriting, "宣传文案", "Social copy for one platform, with an audit verdict"},
	{KindPoster, "海报方案", "Poster layout plans"},
	{KindVideoScript, "短视频脚本", "Short video script broken into scenes"},
	{KindReview, "三级审核", "Format, quality and policy review of a draft"},
	{KindMediaSearch, "素材检索", "Search of the materials library"},
	{KindPlanner, "宣传策划", "Campaign plan for a goal and audience"},
	{KindAnalytics, "数据分析", "Monthly analysis of platform metrics"},
	{KindTopicRecommender, "选题推荐", "Topic suggestions from accident statistics"},
	{KindPrecision, "精准宣传", "Content targeted at one road, area or group"},
	{KindCourseware, "课件生成", "Safety education courseware"},
	{KindPublicOpinion, "舆情应对", "Analysis of and response to a public-opinion event"},
	{KindImageGen, "AI 配图", "Prompts for AI image generation"},
}

// Kinds lists every known kind
func Kinds() []KindInfo {
	return append([]KindInfo(nil), registry...)
}

// Info returns the description of k
func (k Kind) Info() (KindInfo, bool) {
	for _, info := range registry {
		if info.Kind == k {
			return info, true
		}
	}
	return KindInfo{}, false
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	_, ok := k.Info()
	return ok
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind accepts a kind name, also in the dashed form used on the command line
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !k.Valid() {
		return "", fmt.Errorf("unknown workflow kind: %s", s)
	}
	return k, nil
}
