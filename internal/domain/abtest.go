package domain

import "time"

type TestKind string

const (
	TestKindThumbnail TestKind = "thumbnail"
	TestKindTitle     TestKind = "title"
)

type TestStatus string

const (
	TestStatusRunning   TestStatus = "running"
	TestStatusCompleted TestStatus = "completed"
)

type TestOutcome string

const (
	OutcomeWon          TestOutcome = "won"
	OutcomeInconclusive TestOutcome = "inconclusive"
)

const (
	// MinConfidenceSample is the total-impression floor below which the
	// confidence estimate is always zero, regardless of CTR spread.
	MinConfidenceSample int64 = 1000
	// ConfidenceThreshold is the level at which a running test resolves.
	ConfidenceThreshold = 0.95
)

// Variant is one candidate thumbnail or title competing in a test.
type Variant struct {
	VariantID   string
	Payload     string
	Impressions int64
	Clicks      int64
	CTR         float64
}

// ABTest compares variants of one kind for one job. A job holds at most one
// running test per kind at a time.
type ABTest struct {
	TestID     string
	JobID      string
	Kind       TestKind
	Variants   []Variant
	Status     TestStatus
	Confidence float64
	WinnerID   string
	Outcome    TestOutcome
	StartedAt  time.Time
	EndedAt    *time.Time
}

// Recompute refreshes per-variant CTR and the test confidence from raw counters.
func (t *ABTest) Recompute() {
	for i := range t.Variants {
		v := &t.Variants[i]
		if v.Impressions > 0 {
			v.CTR = float64(v.Clicks) / float64(v.Impressions)
		} else {
			v.CTR = 0
		}
	}
	t.Confidence = Confidence(t.Variants)
}

// Leader returns the highest-CTR variant. Among equals the earlier variant wins,
// keeping resolution deterministic.
func (t ABTest) Leader() (Variant, bool) {
	if len(t.Variants) == 0 {
		return Variant{}, false
	}
	best := t.Variants[0]
	for _, v := range t.Variants[1:] {
		if v.CTR > best.CTR {
			best = v
		}
	}
	return best, true
}

// Confidence is a deterministic heuristic, not a statistical test: it grows
// with total impressions and with the CTR gap between the best and worst
// variant, and is exactly zero below MinConfidenceSample. A two-proportion
// z-test can replace this behind the same signature.
func Confidence(variants []Variant) float64 {
	var total int64
	for _, v := range variants {
		total += v.Impressions
	}
	if total < MinConfidenceSample {
		return 0
	}

	best, worst := -1.0, 2.0
	for _, v := range variants {
		ctr := 0.0
		if v.Impressions > 0 {
			ctr = float64(v.Clicks) / float64(v.Impressions)
		}
		if ctr > best {
			best = ctr
		}
		if ctr < worst {
			worst = ctr
		}
	}
	gap := best - worst
	if gap < 0 {
		gap = 0
	}

	sample := float64(total) / (float64(total) + 2000)
	spread := 0.5 + gap*25
	if spread > 1 {
		spread = 1
	}
	conf := sample * spread
	if conf > 0.99 {
		conf = 0.99
	}
	return conf
}
