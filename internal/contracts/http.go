package contracts

import "time"

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

type WorkflowRunResponse struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Planned    int       `json:"planned"`
	Produced   int       `json:"produced"`
	Failed     int       `json:"failed"`
	Published  int       `json:"published"`
	Analyzed   int       `json:"analyzed"`
}

type JobResponse struct {
	JobID        string     `json:"job_id"`
	ChannelID    string     `json:"channel_id"`
	Kind         string     `json:"kind"`
	Title        string     `json:"title"`
	Priority     float64    `json:"priority"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	QualityScore float64    `json:"quality_score,omitempty"`
	ExternalURL  string     `json:"external_url,omitempty"`
	ScheduledFor string     `json:"scheduled_for"`
	FailureCode  string     `json:"failure_reason,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

type VariantDTO struct {
	VariantID   string  `json:"variant_id"`
	Payload     string  `json:"payload"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
}

type ABTestResponse struct {
	TestID     string       `json:"test_id"`
	JobID      string       `json:"job_id"`
	Kind       string       `json:"kind"`
	Status     string       `json:"status"`
	Confidence float64      `json:"confidence"`
	WinnerID   string       `json:"winner_id,omitempty"`
	Outcome    string       `json:"outcome,omitempty"`
	Variants   []VariantDTO `json:"variants"`
	StartedAt  time.Time    `json:"started_at"`
	EndedAt    *time.Time   `json:"ended_at,omitempty"`
}

type CounterRequest struct {
	VariantID string `json:"variant_id"`
	Delta     int64  `json:"delta"`
}

type DropPointDTO struct {
	OffsetSeconds int     `json:"offset_seconds"`
	Severity      string  `json:"severity"`
	Magnitude     float64 `json:"magnitude"`
}

type AnalysisResponse struct {
	JobID             string         `json:"job_id"`
	OptimizationScore float64        `json:"optimization_score"`
	Grade             string         `json:"grade"`
	DropPoints        []DropPointDTO `json:"drop_points"`
	Insights          []string       `json:"insights"`
	Recommendations   []string       `json:"recommendations"`
	AnalyzedAt        time.Time      `json:"analyzed_at"`
}

type ReportResponse struct {
	Date        string    `json:"date"`
	RunsStarted int       `json:"runs_started"`
	Planned     int       `json:"planned"`
	Produced    int       `json:"produced"`
	Failed      int       `json:"failed"`
	Published   int       `json:"published"`
	Analyzed    int       `json:"analyzed"`
	TestsOpened int       `json:"tests_opened"`
	TestsClosed int       `json:"tests_closed"`
	Alerts      []string  `json:"alerts,omitempty"`
	Failures    []string  `json:"failures,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
