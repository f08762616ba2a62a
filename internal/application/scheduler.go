package application

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/autopilot/internal/domain"
)

const dateLayout = "2006-01-02"

// PlanChannel computes the job seeds due for one channel at the given instant
// and persists them as planned jobs. The due-check is idempotent against jobs
// already created for the same (channel, date, kind): re-running after a crash
// or clock skew never duplicates same-day work.
func (s *Service) PlanChannel(ctx context.Context, ch domain.Channel, now time.Time) ([]domain.ContentJob, error) {
	date := now.Format(dateLayout)
	existing, err := s.jobs.ListByChannelAndDate(ctx, ch.ChannelID, date)
	if err != nil {
		return nil, err
	}

	longFormToday := 0
	shortsToday := 0
	lastShortAfter := time.Time{}
	for _, job := range existing {
		switch job.Kind {
		case domain.KindLongForm:
			longFormToday++
		case domain.KindShortForm:
			shortsToday++
			if job.PublishAfter.After(lastShortAfter) {
				lastShortAfter = job.PublishAfter
			}
		}
	}

	var seeds []domain.ContentJob

	if longFormToday == 0 && ch.PostsLongFormOn(now.Weekday()) {
		seeds = append(seeds, s.newSeed(ctx, ch, domain.KindLongForm, date, now, now))
	}

	if ch.Cadence.ShortsPerDay > 0 {
		gap := ch.Cadence.ShortsMinGap
		next := now
		if !lastShortAfter.IsZero() && lastShortAfter.Add(gap).After(next) {
			next = lastShortAfter.Add(gap)
		}
		for i := shortsToday; i < ch.Cadence.ShortsPerDay; i++ {
			seeds = append(seeds, s.newSeed(ctx, ch, domain.KindShortForm, date, now, next))
			next = next.Add(gap)
		}
	}

	for i := range seeds {
		if err := s.jobs.Save(ctx, seeds[i]); err != nil {
			return seeds[:i], err
		}
	}
	return seeds, nil
}

func (s *Service) newSeed(ctx context.Context, ch domain.Channel, kind domain.ContentKind, date string, now, publishAfter time.Time) domain.ContentJob {
	priority := s.trendScore(ctx, ch, kind) + ch.Strategy.PriorityBoost
	if ch.Strategy.PreferredKind == kind {
		priority += 0.1
	}
	return domain.ContentJob{
		JobID:        uuid.NewString(),
		ChannelID:    ch.ChannelID,
		Kind:         kind,
		Title:        seedTitle(ch, kind),
		Keywords:     []string{ch.Niche, string(kind)},
		Priority:     priority,
		Status:       domain.JobStatusPlanned,
		ScheduledFor: date,
		PublishAfter: publishAfter,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *Service) trendScore(ctx context.Context, ch domain.Channel, kind domain.ContentKind) float64 {
	if s.trends == nil {
		return 0.5
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
	defer cancel()
	score, err := s.trends.Score(callCtx, ch, kind)
	if err != nil {
		s.logger.WarnContext(ctx, "trend source unavailable, using neutral priority",
			"channel_id", ch.ChannelID, "error", err)
		return 0.5
	}
	return score
}

func seedTitle(ch domain.Channel, kind domain.ContentKind) string {
	if kind == domain.KindShortForm {
		return ch.Niche + " short"
	}
	return ch.Niche + " feature"
}

// orderJobs sorts seeds by priority descending; ties break by the owning
// channel's monetization target, descending.
func (s *Service) orderJobs(jobs []domain.ContentJob) {
	rpm := make(map[string]float64, len(s.channels))
	for _, ch := range s.channels {
		rpm[ch.ChannelID] = ch.TargetRPM
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].Priority != jobs[j].Priority {
			return jobs[i].Priority > jobs[j].Priority
		}
		return rpm[jobs[i].ChannelID] > rpm[jobs[j].ChannelID]
	})
}
