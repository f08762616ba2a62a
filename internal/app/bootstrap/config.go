package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/viralforge/autopilot/internal/domain"
)

type Config struct {
	ServiceID string
	HTTPPort  int

	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string

	GeneratorEndpoint  string
	PublisherEndpoint  string
	AnalyticsEndpoint  string
	ComplianceEndpoint string
	TrendsEndpoint     string

	CronSpec     string
	RunOnStart   bool
	QualityGate  float64
	MaxAttempts  int
	MaxParallel  int
	Confidence   float64
	TestMaxAge   time.Duration
	AnalysisTTL  time.Duration
	ArchiveTTL   time.Duration
	ReportTTL    time.Duration
	CallTimeout  time.Duration
	LimitBudget  int64
	LimitWindow  time.Duration
	LimitRetries int
	LimitBackoff time.Duration

	Channels []domain.Channel
}

type channelFile struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Niche        string   `yaml:"niche"`
	AudienceTier string   `yaml:"audience_tier"`
	Voice        string   `yaml:"voice"`
	LongFormDays []string `yaml:"long_form_days"`
	ShortsPerDay int      `yaml:"shorts_per_day"`
	ShortsGapMin int      `yaml:"shorts_min_gap_minutes"`
	TargetRPM    float64  `yaml:"target_rpm"`
	MinRetention float64  `yaml:"min_retention"`
	MinCTR       float64  `yaml:"min_ctr"`
	MinLikeRatio float64  `yaml:"min_like_ratio"`
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		RedisURL           string   `yaml:"redis_url"`
		KafkaBrokers       []string `yaml:"kafka_brokers"`
		KafkaTopic         string   `yaml:"kafka_topic"`
		GeneratorEndpoint  string   `yaml:"generator_endpoint"`
		PublisherEndpoint  string   `yaml:"publisher_endpoint"`
		AnalyticsEndpoint  string   `yaml:"analytics_endpoint"`
		ComplianceEndpoint string   `yaml:"compliance_endpoint"`
		TrendsEndpoint     string   `yaml:"trends_endpoint"`
	} `yaml:"dependencies"`
	Workflow struct {
		CronSpec           string  `yaml:"cron"`
		RunOnStart         bool    `yaml:"run_on_start"`
		QualityGate        float64 `yaml:"quality_threshold"`
		MaxAttempts        int     `yaml:"max_production_attempts"`
		MaxParallel        int     `yaml:"max_concurrent_generations"`
		Confidence         float64 `yaml:"confidence_threshold"`
		TestMaxAgeHours    int     `yaml:"test_max_age_hours"`
		AnalysisTTLHours   int     `yaml:"analysis_ttl_hours"`
		ArchiveTTLDays     int     `yaml:"archive_ttl_days"`
		ReportTTLDays      int     `yaml:"report_ttl_days"`
		CallTimeoutSeconds int     `yaml:"collaborator_timeout_seconds"`
		LimitBudget        int64   `yaml:"rate_limit_budget"`
		LimitWindowSeconds int     `yaml:"rate_limit_window_seconds"`
		LimitRetries       int     `yaml:"rate_limit_retries"`
		LimitBackoffMillis int     `yaml:"rate_limit_backoff_ms"`
	} `yaml:"workflow"`
	Channels []channelFile `yaml:"channels"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:    "content-autopilot",
		HTTPPort:     8080,
		KafkaTopic:   "autopilot.events",
		CronSpec:     "0 * * * *",
		QualityGate:  0.85,
		MaxAttempts:  3,
		MaxParallel:  3,
		Confidence:   0.95,
		TestMaxAge:   7 * 24 * time.Hour,
		AnalysisTTL:  6 * time.Hour,
		ArchiveTTL:   30 * 24 * time.Hour,
		ReportTTL:    30 * 24 * time.Hour,
		CallTimeout:  30 * time.Second,
		LimitBudget:  60,
		LimitWindow:  time.Minute,
		LimitRetries: 3,
		LimitBackoff: 200 * time.Millisecond,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		cfg.RedisURL = f.Dependencies.RedisURL
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaTopic != "" {
			cfg.KafkaTopic = f.Dependencies.KafkaTopic
		}
		cfg.GeneratorEndpoint = f.Dependencies.GeneratorEndpoint
		cfg.PublisherEndpoint = f.Dependencies.PublisherEndpoint
		cfg.AnalyticsEndpoint = f.Dependencies.AnalyticsEndpoint
		cfg.ComplianceEndpoint = f.Dependencies.ComplianceEndpoint
		cfg.TrendsEndpoint = f.Dependencies.TrendsEndpoint
		if f.Workflow.CronSpec != "" {
			cfg.CronSpec = f.Workflow.CronSpec
		}
		cfg.RunOnStart = f.Workflow.RunOnStart
		if f.Workflow.QualityGate > 0 {
			cfg.QualityGate = f.Workflow.QualityGate
		}
		if f.Workflow.MaxAttempts > 0 {
			cfg.MaxAttempts = f.Workflow.MaxAttempts
		}
		if f.Workflow.MaxParallel > 0 {
			cfg.MaxParallel = f.Workflow.MaxParallel
		}
		if f.Workflow.Confidence > 0 {
			cfg.Confidence = f.Workflow.Confidence
		}
		if f.Workflow.TestMaxAgeHours > 0 {
			cfg.TestMaxAge = time.Duration(f.Workflow.TestMaxAgeHours) * time.Hour
		}
		if f.Workflow.AnalysisTTLHours > 0 {
			cfg.AnalysisTTL = time.Duration(f.Workflow.AnalysisTTLHours) * time.Hour
		}
		if f.Workflow.ArchiveTTLDays > 0 {
			cfg.ArchiveTTL = time.Duration(f.Workflow.ArchiveTTLDays) * 24 * time.Hour
		}
		if f.Workflow.ReportTTLDays > 0 {
			cfg.ReportTTL = time.Duration(f.Workflow.ReportTTLDays) * 24 * time.Hour
		}
		if f.Workflow.CallTimeoutSeconds > 0 {
			cfg.CallTimeout = time.Duration(f.Workflow.CallTimeoutSeconds) * time.Second
		}
		if f.Workflow.LimitBudget > 0 {
			cfg.LimitBudget = f.Workflow.LimitBudget
		}
		if f.Workflow.LimitWindowSeconds > 0 {
			cfg.LimitWindow = time.Duration(f.Workflow.LimitWindowSeconds) * time.Second
		}
		if f.Workflow.LimitRetries > 0 {
			cfg.LimitRetries = f.Workflow.LimitRetries
		}
		if f.Workflow.LimitBackoffMillis > 0 {
			cfg.LimitBackoff = time.Duration(f.Workflow.LimitBackoffMillis) * time.Millisecond
		}
		channels, err := parseChannels(f.Channels)
		if err != nil {
			return Config{}, err
		}
		cfg.Channels = channels
	}

	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envOrDefault("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.CronSpec = envOrDefault("WORKFLOW_CRON", cfg.CronSpec)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.MaxParallel = envInt("MAX_CONCURRENT_GENERATIONS", cfg.MaxParallel)
	cfg.MaxAttempts = envInt("MAX_PRODUCTION_ATTEMPTS", cfg.MaxAttempts)
	cfg.RunOnStart = envBool("RUN_ON_START", cfg.RunOnStart)

	if len(cfg.Channels) == 0 {
		cfg.Channels = DefaultChannels()
	}
	return cfg, nil
}

func parseChannels(rows []channelFile) ([]domain.Channel, error) {
	channels := make([]domain.Channel, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.ID) == "" {
			return nil, fmt.Errorf("channel with empty id in config")
		}
		days, err := parseWeekdays(row.LongFormDays)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", row.ID, err)
		}
		tier := domain.AudienceTier(strings.ToLower(strings.TrimSpace(row.AudienceTier)))
		if tier == "" {
			tier = domain.TierEmerging
		}
		channels = append(channels, domain.Channel{
			ChannelID:    row.ID,
			Name:         row.Name,
			Niche:        row.Niche,
			AudienceTier: tier,
			Voice:        row.Voice,
			Cadence: domain.CadenceRules{
				LongFormDays: days,
				ShortsPerDay: row.ShortsPerDay,
				ShortsMinGap: time.Duration(row.ShortsGapMin) * time.Minute,
			},
			TargetRPM: row.TargetRPM,
			Targets: domain.OptimizationTargets{
				MinRetention: row.MinRetention,
				MinCTR:       row.MinCTR,
				MinLikeRatio: row.MinLikeRatio,
			},
		})
	}
	return channels, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, name := range names {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		days = append(days, day)
	}
	return days, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
