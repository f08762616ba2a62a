package domain

import "testing"

func TestOptimizationScoreCapsAndClamps(t *testing.T) {
	perfect := VideoMetrics{
		AvgRetention: 0.95,
		LikeRatio:    0.10,
		CommentRatio: 0.05,
		RPM:          40,
		CTR:          0.20,
	}
	if got := OptimizationScore(perfect); got != 100 {
		t.Fatalf("expected overshooting metrics to cap at 100, got %.2f", got)
	}

	if got := OptimizationScore(VideoMetrics{}); got != 0 {
		t.Fatalf("expected zero metrics to score 0, got %.2f", got)
	}

	half := VideoMetrics{AvgRetention: 0.35}
	if got := OptimizationScore(half); got != 20 {
		t.Fatalf("expected half-baseline retention to contribute 20, got %.2f", got)
	}
}

func TestOptimizationScoreMonotonicInRetention(t *testing.T) {
	base := VideoMetrics{AvgRetention: 0.40, LikeRatio: 0.02, RPM: 5, CTR: 0.03}
	better := base
	better.AvgRetention = 0.55
	if OptimizationScore(better) <= OptimizationScore(base) {
		t.Fatalf("higher retention must never lower the score")
	}
}

func TestGradeBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{95, "A+"},
		{94.99, "A"},
		{90, "A"},
		{85, "B+"},
		{80, "B"},
		{75, "C+"},
		{70, "C"},
		{69.99, "D"},
		{0, "D"},
	}
	for _, tc := range cases {
		if got := GradeFor(tc.score); got != tc.want {
			t.Fatalf("GradeFor(%.2f) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestDetectDropPointsSeverity(t *testing.T) {
	curve := []RetentionPoint{
		{OffsetSeconds: 0, Retention: 0.95},
		{OffsetSeconds: 30, Retention: 0.83},  // 0.12 drop, high
		{OffsetSeconds: 60, Retention: 0.80},  // 0.03, below threshold
		{OffsetSeconds: 90, Retention: 0.72},  // 0.08, medium
		{OffsetSeconds: 120, Retention: 0.66}, // 0.06, low
	}
	drops := DetectDropPoints(curve)
	if len(drops) != 3 {
		t.Fatalf("expected 3 drops, got %d: %+v", len(drops), drops)
	}
	if drops[0].Severity != DropHigh || drops[0].OffsetSeconds != 30 {
		t.Fatalf("expected high drop at 30s, got %+v", drops[0])
	}
	if drops[1].Severity != DropMedium {
		t.Fatalf("a 0.08 drop should be medium, got %s", drops[1].Severity)
	}
	if drops[2].Severity != DropLow {
		t.Fatalf("a 0.06 drop should be low, got %s", drops[2].Severity)
	}
}

func TestDetectDropPointsQuietCurve(t *testing.T) {
	curve := []RetentionPoint{
		{OffsetSeconds: 0, Retention: 0.90},
		{OffsetSeconds: 30, Retention: 0.88},
		{OffsetSeconds: 60, Retention: 0.86},
	}
	if drops := DetectDropPoints(curve); len(drops) != 0 {
		t.Fatalf("gentle decay must not flag drops, got %+v", drops)
	}
}

func TestBuildInsightsRecommendsHookRework(t *testing.T) {
	m := VideoMetrics{AvgRetention: 0.30, LikeRatio: 0.02, CommentRatio: 0.005, RPM: 3, CTR: 0.02}
	insights, recs := BuildInsights(m, nil)
	if len(insights) == 0 {
		t.Fatalf("expected insights for a weak video")
	}
	found := false
	for _, r := range recs {
		if r == "rework the hook: most viewers leave before the midpoint" {
			found = true
		}
	}
	if !found {
		t.Fatalf("critically low retention should recommend a hook rework, got %v", recs)
	}
}
