package contracts

import "time"

// Event types emitted by the workflow.
const (
	EventContentPublished = "content.published"
	EventWorkflowFailed   = "workflow.failed"
	EventThresholdBreach  = "alert.threshold_breach"
	EventABTestCompleted  = "abtest.completed"
	EventDailyReport      = "report.daily"
	EventJobFailed        = "job.failed"
)

type EventEnvelope struct {
	EventID       string      `json:"event_id"`
	EventType     string      `json:"event_type"`
	OccurredAt    time.Time   `json:"occurred_at"`
	PartitionKey  string      `json:"partition_key"`
	SourceService string      `json:"source_service"`
	SchemaVersion string      `json:"schema_version"`
	Data          interface{} `json:"data"`
}

type ContentPublishedData struct {
	JobID       string `json:"job_id"`
	ChannelID   string `json:"channel_id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	ExternalURL string `json:"external_url"`
}

type JobFailedData struct {
	JobID     string `json:"job_id"`
	ChannelID string `json:"channel_id"`
	Reason    string `json:"reason"`
	Attempts  int    `json:"attempts"`
}

type ThresholdBreachData struct {
	JobID     string  `json:"job_id"`
	ChannelID string  `json:"channel_id"`
	Metric    string  `json:"metric"`
	Observed  float64 `json:"observed"`
	Target    float64 `json:"target"`
}

type ABTestCompletedData struct {
	TestID     string  `json:"test_id"`
	JobID      string  `json:"job_id"`
	Kind       string  `json:"kind"`
	WinnerID   string  `json:"winner_id,omitempty"`
	Outcome    string  `json:"outcome"`
	Confidence float64 `json:"confidence"`
}

type WorkflowFailedData struct {
	Phase  string `json:"phase"`
	Reason string `json:"reason"`
}

type DailyReportData struct {
	Date      string `json:"date"`
	Planned   int    `json:"planned"`
	Produced  int    `json:"produced"`
	Failed    int    `json:"failed"`
	Published int    `json:"published"`
	Analyzed  int    `json:"analyzed"`
}
