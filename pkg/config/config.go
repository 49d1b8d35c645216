package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		// Ingest routing for case events: "kafka" or "clickhouse".
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers           []string `yaml:"brokers"`
		CasesTopic        string   `yaml:"cases_topic"`
		NotificationTopic string   `yaml:"notification_topic"`
		RequiredAcks      int      `yaml:"required_acks"`
		Compression       string   `yaml:"compression"`
		Producer          struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	CaseFeed struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		Regions        []string      `yaml:"regions"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"casefeed"`
	Predictor Predictor      `yaml:"predictor"`
	Risk      RiskThresholds `yaml:"risk"`
	Schedule  Schedule       `yaml:"schedule"`
}

// Predictor tunes the prediction pipeline.
type Predictor struct {
	LookbackDays    int `yaml:"lookback_days"`
	HorizonDays     int `yaml:"horizon_days"`
	MinHistoryDays  int `yaml:"min_history_days"`
	MinTrainingRows int `yaml:"min_training_rows"`
	// WarmStart consults the persisted model store before training a
	// fresh model for a pair. When false, models are process-local and
	// rebuilt on first use after every restart.
	WarmStart bool          `yaml:"warm_start"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// Schedule holds recurring job times in the server's local time.
type Schedule struct {
	Enabled         bool `yaml:"enabled"`
	DailyHour       int  `yaml:"daily_hour"`
	DailyMinute     int  `yaml:"daily_minute"`
	WeeklyDay       int  `yaml:"weekly_day"` // 0 = Sunday
	WeeklyHour      int  `yaml:"weekly_hour"`
	WeeklyMinute    int  `yaml:"weekly_minute"`
	MinCasesPredict int  `yaml:"min_cases_predict"`
	MinCasesTrain   int  `yaml:"min_cases_train"`
}

// RiskThresholds holds every numeric cutoff of the risk and confidence
// classification. They default to the calibration the surveillance team has
// run with historically; per-disease tuning happens here, not in code.
type RiskThresholds struct {
	CriticalSigma float64 `yaml:"critical_sigma"` // forecast > mean + k*std
	HighSigma     float64 `yaml:"high_sigma"`
	CriticalZ     float64 `yaml:"critical_z"`
	HighZ         float64 `yaml:"high_z"`
	MediumZ       float64 `yaml:"medium_z"`

	ConfidenceLowPoints    int     `yaml:"confidence_low_points"`
	ConfidenceMediumPoints int     `yaml:"confidence_medium_points"`
	StabilityStd           float64 `yaml:"stability_std"`

	TrendingPct float64 `yaml:"trending_pct"` // % increase flagged by /trending
}

// DefaultRiskThresholds returns the stock calibration.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{
		CriticalSigma:          2.0,
		HighSigma:              1.0,
		CriticalZ:              2.0,
		HighZ:                  1.0,
		MediumZ:                0.5,
		ConfidenceLowPoints:    30,
		ConfidenceMediumPoints: 60,
		StabilityStd:           10.0,
		TrendingPct:            20.0,
	}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CASEFEED_API_KEY"); v != "" {
		c.CaseFeed.APIKey = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Predictor.LookbackDays == 0 {
		c.Predictor.LookbackDays = 90
	}
	if c.Predictor.HorizonDays == 0 {
		c.Predictor.HorizonDays = 7
	}
	if c.Predictor.MinHistoryDays == 0 {
		c.Predictor.MinHistoryDays = 30
	}
	if c.Predictor.MinTrainingRows == 0 {
		c.Predictor.MinTrainingRows = 20
	}
	if c.Predictor.CacheTTL == 0 {
		c.Predictor.CacheTTL = 5 * time.Minute
	}
	if c.Schedule.MinCasesPredict == 0 {
		c.Schedule.MinCasesPredict = 10
	}
	if c.Schedule.MinCasesTrain == 0 {
		c.Schedule.MinCasesTrain = 30
	}

	def := DefaultRiskThresholds()
	if c.Risk.CriticalSigma == 0 {
		c.Risk.CriticalSigma = def.CriticalSigma
	}
	if c.Risk.HighSigma == 0 {
		c.Risk.HighSigma = def.HighSigma
	}
	if c.Risk.CriticalZ == 0 {
		c.Risk.CriticalZ = def.CriticalZ
	}
	if c.Risk.HighZ == 0 {
		c.Risk.HighZ = def.HighZ
	}
	if c.Risk.MediumZ == 0 {
		c.Risk.MediumZ = def.MediumZ
	}
	if c.Risk.ConfidenceLowPoints == 0 {
		c.Risk.ConfidenceLowPoints = def.ConfidenceLowPoints
	}
	if c.Risk.ConfidenceMediumPoints == 0 {
		c.Risk.ConfidenceMediumPoints = def.ConfidenceMediumPoints
	}
	if c.Risk.StabilityStd == 0 {
		c.Risk.StabilityStd = def.StabilityStd
	}
	if c.Risk.TrendingPct == 0 {
		c.Risk.TrendingPct = def.TrendingPct
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Predictor.MinHistoryDays > c.Predictor.LookbackDays {
		return fmt.Errorf("predictor.min_history_days exceeds lookback window")
	}
	if c.Schedule.DailyHour < 0 || c.Schedule.DailyHour > 23 {
		return fmt.Errorf("schedule.daily_hour out of range")
	}
	if c.Schedule.WeeklyDay < 0 || c.Schedule.WeeklyDay > 6 {
		return fmt.Errorf("schedule.weekly_day out of range")
	}
	return nil
}
