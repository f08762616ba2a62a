package domain

import "time"

type ContentKind string

const (
	KindLongForm  ContentKind = "long_form"
	KindShortForm ContentKind = "short_form"
)

type JobStatus string

const (
	JobStatusPlanned    JobStatus = "planned"
	JobStatusProducing  JobStatus = "producing"
	JobStatusProduced   JobStatus = "produced"
	JobStatusOptimizing JobStatus = "optimizing"
	JobStatusPublished  JobStatus = "published"
	JobStatusAnalyzed   JobStatus = "analyzed"
	JobStatusFailed     JobStatus = "failed"
)

// validNext encodes the job lifecycle. Failed is reachable from any active
// state; analyzed and failed are terminal.
var validNext = map[JobStatus][]JobStatus{
	JobStatusPlanned:    {JobStatusProducing, JobStatusFailed},
	JobStatusProducing:  {JobStatusProduced, JobStatusFailed},
	JobStatusProduced:   {JobStatusOptimizing, JobStatusFailed},
	JobStatusOptimizing: {JobStatusPublished, JobStatusFailed},
	JobStatusPublished:  {JobStatusAnalyzed},
	JobStatusAnalyzed:   {},
	JobStatusFailed:     {},
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to JobStatus) bool {
	for _, next := range validNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Artifact references produced media. Paths are collaborator-owned storage
// locations; TempPaths are registered for cleanup once the job terminates.
type Artifact struct {
	Script         string
	MediaPath      string
	ThumbnailPaths []string
	Description    string
	TempPaths      []string
}

// ContentJob is one unit of planned work moving through the workflow phases.
// Exactly one phase owns a job at a time; records are persisted read-modify-write.
type ContentJob struct {
	JobID         string
	ChannelID     string
	Kind          ContentKind
	Title         string
	Keywords      []string
	Priority      float64
	Status        JobStatus
	Attempts      int
	QualityScore  float64
	FailureReason string
	Artifact      Artifact
	ExternalURL   string
	ScheduledFor  string // 2006-01-02, the day the seed was planned for
	PublishAfter  time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PublishedAt   *time.Time
}

// TransitionTo validates and applies a status change, stamping UpdatedAt.
func (j *ContentJob) TransitionTo(status JobStatus, now time.Time) error {
	if !CanTransition(j.Status, status) {
		return ErrInvalidTransition
	}
	j.Status = status
	j.UpdatedAt = now
	if status == JobStatusPublished {
		at := now
		j.PublishedAt = &at
	}
	return nil
}

// Terminal reports whether the job has left the workflow for good.
func (j ContentJob) Terminal() bool {
	return j.Status == JobStatusAnalyzed || j.Status == JobStatusFailed
}

// GeneratedContent is what a generation collaborator returns for one attempt.
type GeneratedContent struct {
	Script        string
	MediaPath     string
	ThumbnailPath string
	Description   string
	QualityScore  float64
	TempPaths     []string
}
