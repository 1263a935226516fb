package workflow

// Audit verdicts of the copywriting workflow
const (
	AuditPassed        = "passed"
	AuditNeedsRevision = "needs_revision"
)

// Final verdicts of the review workflow
const (
	ReviewApproved         = "approved"
	ReviewRevisionRequired = "revision_required"
	ReviewRejected         = "rejected"
)

// CopywritingInput asks for copy on one platform
type CopywritingInput struct {
	Topic       string `mapstructure:"topic" json:"topic"`
	Description string `mapstructure:"description" json:"description"`
	Style       string `mapstructure:"style" json:"style"`
	Platform    string `mapstructure:"platform" json:"platform"`
	Reference   string `mapstructure:"reference" json:"reference"`
}

// CopywritingOutput is the copy and its audit
type CopywritingOutput struct {
	Result      string `mapstructure:"result" json:"result"`
	AuditStatus string `mapstructure:"audit_status" json:"audit_status"`
	AuditReport string `mapstructure:"audit_report" json:"audit_report"`
}

// NeedsRevision reports whether the audit asked for changes
func (o CopywritingOutput) NeedsRevision() bool {
	return o.AuditStatus == AuditNeedsRevision
}

type PosterInput struct {
	Topic       string `mapstructure:"topic" json:"topic"`
	Description string `mapstructure:"description" json:"description"`
	Style       string `mapstructure:"style" json:"style"`
	NumPlans    int    `mapstructure:"num_plans" json:"num_plans"`
}

type PosterOutput struct {
	Result    string `mapstructure:"result" json:"result"`
	PlansJSON string `mapstructure:"plans_json" json:"plans_json"`
}

type VideoScriptInput struct {
	Topic       string `mapstructure:"topic" json:"topic"`
	Description string `mapstructure:"description" json:"description"`
	Style       string `mapstructure:"style" json:"style"`
	Duration    string `mapstructure:"duration" json:"duration"`
	Platform    string `mapstructure:"platform" json:"platform"`
}

type VideoScriptOutput struct {
	Result        string `mapstructure:"result" json:"result"`
	TotalDuration string `mapstructure:"total_duration" json:"total_duration"`
	SceneCount    int    `mapstructure:"scene_count" json:"scene_count"`
}

type ImageGenInput struct {
	Topic            string `mapstructure:"topic" json:"topic"`
	Style            string `mapstructure:"style" json:"style"`
	SceneDescription string `mapstructure:"scene_description" json:"scene_description"`
	AspectRatio      string `mapstructure:"aspect_ratio" json:"aspect_ratio"`
}

type ImageGenOutput struct {
	Result     string `mapstructure:"result" json:"result"`
	PromptJSON string `mapstructure:"prompt_json" json:"prompt_json"`
}

// ReviewInput submits a draft for review. Platform is optional.
type ReviewInput struct {
	Content  string `mapstructure:"content" json:"content"`
	Platform string `mapstructure:"platform,omitempty" json:"platform,omitempty"`
}

type ReviewOutput struct {
	Result      string `mapstructure:"result" json:"result"`
	ReviewJSON  string `mapstructure:"review_json" json:"review_json"`
	FinalStatus string `mapstructure:"final_status" json:"final_status"`
	IssueCount  int    `mapstructure:"issue_count" json:"issue_count"`
}

type MediaSearchInput struct {
	Query     string `mapstructure:"query" json:"query"`
	MediaType string `mapstructure:"media_type,omitempty" json:"media_type,omitempty"`
}

type MediaSearchOutput struct {
	Result        string `mapstructure:"result" json:"result"`
	MaterialsJSON string `mapstructure:"materials_json" json:"materials_json"`
}

type PlannerInput struct {
	Goal         string `mapstructure:"goal" json:"goal"`
	Audience     string `mapstructure:"audience" json:"audience"`
	Platforms    string `mapstructure:"platforms" json:"platforms"`
	TimeRange    string `mapstructure:"time_range" json:"time_range"`
	Background   string `mapstructure:"background" json:"background"`
	AccidentData string `mapstructure:"accident_data,omitempty" json:"accident_data,omitempty"`
}

type PlannerOutput struct {
	Result string `mapstructure:"result" json:"result"`
}

type AnalyticsInput struct {
	WechatData    string `mapstructure:"wechat_data" json:"wechat_data"`
	WeiboData     string `mapstructure:"weibo_data" json:"weibo_data"`
	DouyinData    string `mapstructure:"douyin_data" json:"douyin_data"`
	AnalysisMonth string `mapstructure:"analysis_month" json:"analysis_month"`
	FocusArea     string `mapstructure:"focus_area" json:"focus_area"`
}

type AnalyticsOutput struct {
	Result string `mapstructure:"result" json:"result"`
}

type TopicRecommenderInput struct {
	CurrentMonth string `mapstructure:"current_month" json:"current_month"`
	AccidentData string `mapstructure:"accident_data" json:"accident_data"`
}

type TopicRecommenderOutput struct {
	Result     string `mapstructure:"result" json:"result"`
	TopicsJSON string `mapstructure:"topics_json" json:"topics_json"`
}

type PrecisionInput struct {
	AccidentData string `mapstructure:"accident_data" json:"accident_data"`
	TargetType   string `mapstructure:"target_type" json:"target_type"`
	TargetName   string `mapstructure:"target_name" json:"target_name"`
	OutputFormat string `mapstructure:"output_format" json:"output_format"`
}

type PrecisionOutput struct {
	Result string `mapstructure:"result" json:"result"`
}

type CoursewareInput struct {
	Topic    string `mapstructure:"topic" json:"topic"`
	Audience string `mapstructure:"audience" json:"audience"`
	Duration string `mapstructure:"duration,omitempty" json:"duration,omitempty"`
}

type CoursewareOutput struct {
	Result string `mapstructure:"result" json:"result"`
}

type PublicOpinionInput struct {
	EventDescription string `mapstructure:"event_description" json:"event_description"`
	EventType        string `mapstructure:"event_type" json:"event_type"`
	UrgencyLevel     string `mapstructure:"urgency_level" json:"urgency_level"`
	ExistingResponse string `mapstructure:"existing_response,omitempty" json:"existing_response,omitempty"`
}

type PublicOpinionOutput struct {
	Result   string `mapstructure:"result" json:"result"`
	Analysis string `mapstructure:"analysis" json:"analysis"`
}

// Constructors for every kind

func Copywriting(r Runner) *Workflow[CopywritingInput, CopywritingOutput] {
	w := New[CopywritingInput, CopywritingOutput](r, KindCopywriting)
	w.prepare = func(in CopywritingInput) CopywritingInput {
		in.Platform = ServicePlatform(in.Platform)
		return in
	}
	return w
}

func Poster(r Runner) *Workflow[PosterInput, PosterOutput] {
	return New[PosterInput, PosterOutput](r, KindPoster)
}

func VideoScript(r Runner) *Workflow[VideoScriptInput, VideoScriptOutput] {
	return New[VideoScriptInput, VideoScriptOutput](r, KindVideoScript)
}

func ImageGen(r Runner) *Workflow[ImageGenInput, ImageGenOutput] {
	return New[ImageGenInput, ImageGenOutput](r, KindImageGen)
}

func Review(r Runner) *Workflow[ReviewInput, ReviewOutput] {
	return New[ReviewInput, ReviewOutput](r, KindReview)
}

func MediaSearch(r Runner) *Workflow[MediaSearchInput, MediaSearchOutput] {
	return New[MediaSearchInput, MediaSearchOutput](r, KindMediaSearch)
}

func Planner(r Runner) *Workflow[PlannerInput, PlannerOutput] {
	return New[PlannerInput, PlannerOutput](r, KindPlanner)
}

func Analytics(r Runner) *Workflow[AnalyticsInput, AnalyticsOutput] {
	return New[AnalyticsInput, AnalyticsOutput](r, KindAnalytics)
}

func TopicRecommender(r Runner) *Workflow[TopicRecommenderInput, TopicRecommenderOutput] {
	return New[TopicRecommenderInput, TopicRecommenderOutput](r, KindTopicRecommender)
}

func Precision(r Runner) *Workflow[PrecisionInput, PrecisionOutput] {
	return New[PrecisionInput, PrecisionOutput](r, KindPrecision)
}

func Courseware(r Runner) *Workflow[CoursewareInput, CoursewareOutput] {
	return New[CoursewareInput, CoursewareOutput](r, KindCourseware)
}

func PublicOpinion(r Runner) *Workflow[PublicOpinionInput, PublicOpinionOutput] {
	return New[PublicOpinionInput, PublicOpinionOutput](r, KindPublicOpinion)
}
