// Package studio provides the default collaborator clients. The real
// generation, publishing, and analytics vendors live outside this core; these
// clients simulate their contracts deterministically, the way sibling-service
// clients are stubbed until the owning integration lands.
package studio

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/viralforge/autopilot/internal/domain"
	"github.com/viralforge/autopilot/internal/ports"
)

func endpointDown(endpoint string) error {
	if strings.Contains(strings.ToLower(endpoint), "fail") {
		return errors.New("studio endpoint unavailable")
	}
	return nil
}

// seedFraction maps a string deterministically into [0,1).
func seedFraction(s string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return float64(h.Sum32()%1000) / 1000
}

type generatorClient struct {
	endpoint string
}

func NewGeneratorClient(endpoint string) ports.ContentGenerator {
	return &generatorClient{endpoint: endpoint}
}

func (c *generatorClient) Generate(_ context.Context, job domain.ContentJob) (domain.GeneratedContent, error) {
	if err := endpointDown(c.endpoint); err != nil {
		return domain.GeneratedContent{}, err
	}
	// Quality is derived from the job seed so retries are reproducible.
	quality := 0.86 + seedFraction(job.JobID)*0.11
	if strings.Contains(strings.ToLower(c.endpoint), "lowquality") {
		quality = 0.50
	}
	mediaExt := "mp4"
	if job.Kind == domain.KindShortForm {
		mediaExt = "short.mp4"
	}
	return domain.GeneratedContent{
		Script:        fmt.Sprintf("script for %q in %s voice", job.Title, job.ChannelID),
		MediaPath:     fmt.Sprintf("s3://autopilot-media/%s/render.%s", job.JobID, mediaExt),
		ThumbnailPath: fmt.Sprintf("s3://autopilot-media/%s/thumb.jpg", job.JobID),
		Description:   fmt.Sprintf("%s | %s", job.Title, strings.Join(job.Keywords, ", ")),
		QualityScore:  quality,
		TempPaths:     []string{fmt.Sprintf("/tmp/autopilot/%s", job.JobID)},
	}, nil
}

type publisherClient struct {
	endpoint string
}

func NewPublisherClient(endpoint string) ports.Publisher {
	return &publisherClient{endpoint: endpoint}
}

func (c *publisherClient) Publish(_ context.Context, job domain.ContentJob) (string, error) {
	if err := endpointDown(c.endpoint); err != nil {
		return "", err
	}
	if job.Artifact.MediaPath == "" {
		return "", domain.ErrInvalidInput
	}
	return fmt.Sprintf("https://videos.viralforge.local/%s", job.JobID), nil
}

type analyticsClient struct {
	endpoint string
}

func NewAnalyticsClient(endpoint string) ports.AnalyticsSource {
	return &analyticsClient{endpoint: endpoint}
}

func (c *analyticsClient) Fetch(_ context.Context, externalURL string) (ports.AnalyticsSnapshot, error) {
	if err := endpointDown(c.endpoint); err != nil {
		return ports.AnalyticsSnapshot{}, err
	}
	seed := seedFraction(externalURL)
	retention := 0.45 + seed*0.4
	curve := make([]domain.RetentionPoint, 0, 10)
	level := 1.0
	for i := 0; i < 10; i++ {
		curve = append(curve, domain.RetentionPoint{OffsetSeconds: i * 30, Retention: level})
		step := 0.02 + seed*0.04
		if i == 4 && seed > 0.8 {
			step = 0.12
		}
		level -= step
	}
	views := int64(1000 + seed*50000)
	return ports.AnalyticsSnapshot{
		Metrics: domain.VideoMetrics{
			Views:          views,
			AvgRetention:   retention,
			WatchTimeHours: float64(views) * retention * 8 / 3600,
			LikeRatio:      0.02 + seed*0.04,
			CommentRatio:   0.005 + seed*0.01,
			RPM:            4 + seed*18,
			Revenue:        float64(views) / 1000 * (4 + seed*18),
			CTR:            0.03 + seed*0.07,
			Impressions:    views * 12,
		},
		RetentionCurve: curve,
	}, nil
}

type complianceClient struct {
	endpoint string
}

func NewComplianceClient(endpoint string) ports.ComplianceChecker {
	return &complianceClient{endpoint: endpoint}
}

func (c *complianceClient) Review(_ context.Context, job domain.ContentJob) error {
	if err := endpointDown(c.endpoint); err != nil {
		return err
	}
	if strings.Contains(strings.ToLower(job.Title), "banned") {
		return fmt.Errorf("%w: flagged title", domain.ErrCompliance)
	}
	return nil
}

type trendClient struct {
	endpoint string
}

func NewTrendClient(endpoint string) ports.TrendSource {
	return &trendClient{endpoint: endpoint}
}

func (c *trendClient) Score(_ context.Context, channel domain.Channel, kind domain.ContentKind) (float64, error) {
	if err := endpointDown(c.endpoint); err != nil {
		return 0, err
	}
	return 0.3 + seedFraction(channel.Niche+string(kind))*0.7, nil
}
