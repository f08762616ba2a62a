package domain

import "time"

// AudienceTier buckets channels by monetization maturity. The tier feeds
// priority tie-breaking and alert thresholds, not cadence.
type AudienceTier string

const (
	TierEmerging    AudienceTier = "emerging"
	TierEstablished AudienceTier = "established"
	TierPremium     AudienceTier = "premium"
)

// CadenceRules describes when a channel is due for new content.
// An empty LongFormDays set means the channel never plans long-form items.
type CadenceRules struct {
	LongFormDays []time.Weekday
	ShortsPerDay int
	ShortsMinGap time.Duration
}

// OptimizationTargets are per-channel floors used by threshold-breach alerting.
type OptimizationTargets struct {
	MinRetention float64
	MinCTR       float64
	MinLikeRatio float64
}

// Strategy is the only mutable part of a channel. It is written exclusively
// by the Learning phase and consumed by the next Planning pass.
type Strategy struct {
	PriorityBoost float64
	PreferredKind ContentKind
	AvgScore      float64
	RunsObserved  int
	Notes         []string
	LastUpdated   time.Time
}

// Channel is immutable configuration loaded at startup, except for Strategy.
type Channel struct {
	ChannelID    string
	Name         string
	Niche        string
	AudienceTier AudienceTier
	Voice        string
	Cadence      CadenceRules
	TargetRPM    float64
	Targets      OptimizationTargets
	Strategy     Strategy
}

// PostsLongFormOn reports whether the channel's cadence includes the given weekday.
func (c Channel) PostsLongFormOn(day time.Weekday) bool {
	for _, d := range c.Cadence.LongFormDays {
		if d == day {
			return true
		}
	}
	return false
}
