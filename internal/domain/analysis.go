package domain

import (
	"fmt"
	"time"
)

// RetentionPoint is one sample of the retention curve: the fraction of
// viewers remaining at a given offset into the video. Curves are ordered by
// ascending offset and immutable once fetched.
type RetentionPoint struct {
	OffsetSeconds int
	Retention     float64
}

type DropSeverity string

const (
	DropLow    DropSeverity = "low"
	DropMedium DropSeverity = "medium"
	DropHigh   DropSeverity = "high"
)

// Drop severity thresholds. Severity is monotonic in the drop magnitude.
const (
	dropThresholdLow    = 0.05
	dropThresholdMedium = 0.07
	dropThresholdHigh   = 0.10
)

// DropPoint marks a sharp retention fall between two consecutive curve samples.
type DropPoint struct {
	OffsetSeconds int
	Severity      DropSeverity
	Magnitude     float64
}

// DetectDropPoints walks the retention curve pairwise and records every drop
// exceeding the low threshold. Recomputed on each refresh, never persisted
// apart from its analysis.
func DetectDropPoints(curve []RetentionPoint) []DropPoint {
	var drops []DropPoint
	for i := 1; i < len(curve); i++ {
		magnitude := curve[i-1].Retention - curve[i].Retention
		if magnitude < dropThresholdLow {
			continue
		}
		severity := DropLow
		switch {
		case magnitude > dropThresholdHigh:
			severity = DropHigh
		case magnitude >= dropThresholdMedium:
			severity = DropMedium
		}
		drops = append(drops, DropPoint{
			OffsetSeconds: curve[i].OffsetSeconds,
			Severity:      severity,
			Magnitude:     magnitude,
		})
	}
	return drops
}

// VideoMetrics are raw engagement numbers for one published item. Analytics
// may arrive partial early after publishing; zero fields are tolerated.
type VideoMetrics struct {
	Views          int64
	AvgRetention   float64
	WatchTimeHours float64
	LikeRatio      float64
	CommentRatio   float64
	RPM            float64
	Revenue        float64
	CTR            float64
	Impressions    int64
}

// Sub-score weights and normalization baselines for the optimization score.
const (
	retentionWeight   = 40.0
	retentionBaseline = 0.70
	likeWeight        = 15.0
	likeBaseline      = 0.04
	commentWeight     = 10.0
	commentBaseline   = 0.01
	rpmWeight         = 20.0
	rpmBaseline       = 15.0
	ctrWeight         = 15.0
	ctrBaseline       = 0.08
)

// OptimizationScore computes the 0-100 weighted score. Each sub-score is
// capped at its weight before summing, and the sum is clamped to [0,100].
func OptimizationScore(m VideoMetrics) float64 {
	score := cappedShare(m.AvgRetention, retentionBaseline, retentionWeight) +
		cappedShare(m.LikeRatio, likeBaseline, likeWeight) +
		cappedShare(m.CommentRatio, commentBaseline, commentWeight) +
		cappedShare(m.RPM, rpmBaseline, rpmWeight) +
		cappedShare(m.CTR, ctrBaseline, ctrWeight)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func cappedShare(value, baseline, weight float64) float64 {
	if value <= 0 {
		return 0
	}
	share := value / baseline * weight
	if share > weight {
		return weight
	}
	return share
}

// GradeFor maps a score to its letter grade. Boundaries are inclusive on the
// lower bound: 95 is A+, 94.99 is A.
func GradeFor(score float64) string {
	switch {
	case score >= 95:
		return "A+"
	case score >= 90:
		return "A"
	case score >= 85:
		return "B+"
	case score >= 80:
		return "B"
	case score >= 75:
		return "C+"
	case score >= 70:
		return "C"
	default:
		return "D"
	}
}

// VideoAnalysis is the full derived record for one published job. It is
// computed fully or not stored at all, and cached with a multi-hour TTL.
type VideoAnalysis struct {
	JobID             string
	Metrics           VideoMetrics
	DropPoints        []DropPoint
	OptimizationScore float64
	Grade             string
	Insights          []string
	Recommendations   []string
	AnalyzedAt        time.Time
}

// BuildInsights is the deterministic rule engine mapping metric thresholds to
// operator-readable strings. It is a pure function of the computed metrics.
func BuildInsights(m VideoMetrics, drops []DropPoint) (insights, recommendations []string) {
	switch {
	case m.AvgRetention >= retentionBaseline:
		insights = append(insights, fmt.Sprintf("retention %.0f%% meets the %.0f%% target", m.AvgRetention*100, retentionBaseline*100))
	case m.AvgRetention >= 0.50:
		insights = append(insights, fmt.Sprintf("retention %.0f%% is below the %.0f%% target", m.AvgRetention*100, retentionBaseline*100))
		recommendations = append(recommendations, "tighten pacing in the middle third to lift retention")
	case m.AvgRetention > 0:
		insights = append(insights, fmt.Sprintf("retention %.0f%% is critically low", m.AvgRetention*100))
		recommendations = append(recommendations, "rework the hook: most viewers leave before the midpoint")
	}

	high := 0
	for _, d := range drops {
		if d.Severity == DropHigh {
			high++
		}
	}
	if high > 0 {
		insights = append(insights, fmt.Sprintf("%d severe retention drop(s) detected", high))
		recommendations = append(recommendations, fmt.Sprintf("review content at the %d flagged timestamp(s) for abrupt topic shifts", high))
	} else if len(drops) > 0 {
		insights = append(insights, fmt.Sprintf("%d minor retention drop(s) detected", len(drops)))
	}

	if m.LikeRatio > 0 && m.LikeRatio < likeBaseline {
		recommendations = append(recommendations, "add an explicit like prompt near the strongest moment")
	}
	if m.CommentRatio > 0 && m.CommentRatio < commentBaseline {
		recommendations = append(recommendations, "end with a direct question to drive comments")
	}
	if m.RPM > 0 && m.RPM < rpmBaseline/2 {
		insights = append(insights, fmt.Sprintf("RPM $%.2f is well below the $%.0f baseline", m.RPM, rpmBaseline))
		recommendations = append(recommendations, "target higher-value topics or adjust mid-roll placement")
	}
	if m.CTR > 0 && m.CTR < ctrBaseline/2 {
		insights = append(insights, fmt.Sprintf("CTR %.1f%% is underperforming the %.0f%% baseline", m.CTR*100, ctrBaseline*100))
		recommendations = append(recommendations, "run a thumbnail test with a higher-contrast composition")
	}
	return insights, recommendations
}

// DailyReport aggregates one workflow run per calendar date. Stored with a
// ~30 day TTL; the operator-visible failure surface lives here and in events.
type DailyReport struct {
	Date        string
	RunsStarted int
	Planned     int
	Produced    int
	Failed      int
	Published   int
	Analyzed    int
	TestsOpened int
	TestsClosed int
	Alerts      []string
	Failures    []string
	GeneratedAt time.Time
}
