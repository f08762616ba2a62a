package application

import (
	"context"
	"testing"
	"time"

	"github.com/viralforge/autopilot/internal/domain"
)

func TestPlanChannelMondaySchedule(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()

	seeds, err := h.service.PlanChannel(ctx, testChannel(), monday)
	if err != nil {
		t.Fatalf("plan channel: %v", err)
	}

	longForm, shorts := 0, 0
	for _, seed := range seeds {
		switch seed.Kind {
		case domain.KindLongForm:
			longForm++
		case domain.KindShortForm:
			shorts++
		}
		if seed.Status != domain.JobStatusPlanned {
			t.Fatalf("seed %s not planned: %s", seed.JobID, seed.Status)
		}
		if seed.ScheduledFor != "2025-06-02" {
			t.Fatalf("seed scheduled for %s, want 2025-06-02", seed.ScheduledFor)
		}
	}
	if longForm != 1 {
		t.Fatalf("monday is a long-form day, want 1 seed, got %d", longForm)
	}
	if shorts != 2 {
		t.Fatalf("cadence wants 2 shorts per day, got %d", shorts)
	}
}

func TestPlanChannelSkipsLongFormOffDays(t *testing.T) {
	h := newHarness(nil)
	tuesday := monday.Add(24 * time.Hour)

	seeds, err := h.service.PlanChannel(context.Background(), testChannel(), tuesday)
	if err != nil {
		t.Fatalf("plan channel: %v", err)
	}
	for _, seed := range seeds {
		if seed.Kind == domain.KindLongForm {
			t.Fatalf("tuesday must not plan long-form content")
		}
	}
	if len(seeds) != 2 {
		t.Fatalf("expected only the 2 shorts, got %d", len(seeds))
	}
}

func TestPlanChannelIdempotentSameDay(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()
	ch := testChannel()

	first, err := h.service.PlanChannel(ctx, ch, monday)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("first pass should seed 3 jobs, got %d", len(first))
	}

	second, err := h.service.PlanChannel(ctx, ch, monday.Add(time.Hour))
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("re-planning the same day must not duplicate work, got %d seeds", len(second))
	}
}

func TestPlanChannelStaggersShorts(t *testing.T) {
	h := newHarness(nil)
	seeds, err := h.service.PlanChannel(context.Background(), testChannel(), monday)
	if err != nil {
		t.Fatalf("plan channel: %v", err)
	}

	var shorts []domain.ContentJob
	for _, seed := range seeds {
		if seed.Kind == domain.KindShortForm {
			shorts = append(shorts, seed)
		}
	}
	if len(shorts) != 2 {
		t.Fatalf("want 2 shorts, got %d", len(shorts))
	}
	gap := shorts[1].PublishAfter.Sub(shorts[0].PublishAfter)
	if gap != 4*time.Hour {
		t.Fatalf("shorts must be spaced by the cadence gap, got %s", gap)
	}
}

func TestPlanChannelNeutralPriorityWhenTrendsDown(t *testing.T) {
	h := newHarness(func(deps *Dependencies) {
		deps.Trends = trendFunc(func(context.Context, domain.Channel, domain.ContentKind) (float64, error) {
			return 0, context.DeadlineExceeded
		})
	})
	seeds, err := h.service.PlanChannel(context.Background(), testChannel(), monday)
	if err != nil {
		t.Fatalf("plan channel: %v", err)
	}
	for _, seed := range seeds {
		if seed.Priority != 0.5 {
			t.Fatalf("trend outage must fall back to neutral priority, got %.2f", seed.Priority)
		}
	}
}

func TestOrderJobsPriorityThenTargetRPM(t *testing.T) {
	rich := testChannel()
	rich.ChannelID = "ch-rich"
	rich.TargetRPM = 12
	h := newHarness(func(deps *Dependencies) {
		deps.Channels = []domain.Channel{testChannel(), rich}
	})

	jobs := []domain.ContentJob{
		{JobID: "low", ChannelID: "ch-1", Priority: 0.3},
		{JobID: "tie-poor", ChannelID: "ch-1", Priority: 0.8},
		{JobID: "tie-rich", ChannelID: "ch-rich", Priority: 0.8},
		{JobID: "high", ChannelID: "ch-1", Priority: 0.9},
	}
	h.service.orderJobs(jobs)

	want := []string{"high", "tie-rich", "tie-poor", "low"}
	for i, id := range want {
		if jobs[i].JobID != id {
			t.Fatalf("position %d: got %s, want %s (order %+v)", i, jobs[i].JobID, id, jobs)
		}
	}
}
