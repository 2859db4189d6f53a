package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/andresmejia3/maskwatch/internal/gate"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all maskwatch configuration.
type Config struct {
	Capture    CaptureConfig    `yaml:"capture"`
	Location   LocationConfig   `yaml:"location"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Screen     ScreenConfig     `yaml:"screen"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	API        APIConfig        `yaml:"api"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CaptureConfig controls the camera duty cycle.
type CaptureConfig struct {
	Device         string `yaml:"device" validate:"required"`
	InputFormat    string `yaml:"input_format"` // ffmpeg -f, e.g. v4l2, avfoundation
	TotalCapture   int    `yaml:"total_capture" validate:"min=1"`
	// Only the trailing TotalProcessed frames are classified; earlier ones let exposure settle.
	TotalProcessed int    `yaml:"total_processed" validate:"min=1,ltefield=TotalCapture"`
	Interval       string `yaml:"interval" validate:"required"`
}

// LocationConfig controls safe-zone evaluation.
type LocationConfig struct {
	SafeZoneRadius  int     `yaml:"safe_zone_radius" validate:"min=0"` // meters
	MinDisplacement float64 `yaml:"min_displacement" validate:"gte=0"` // meters
}

// ClassifierConfig configures the Python classifier bridge.
type ClassifierConfig struct {
	Python              string  `yaml:"python" validate:"required"`
	Script              string  `yaml:"script" validate:"required"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" validate:"gte=0,lte=1"`
	Timeout             string  `yaml:"timeout"`
}

// ScheduleConfig is the optional daily monitoring window. Both ends or neither.
type ScheduleConfig struct {
	Begin string `yaml:"begin" validate:"required_with=End"`
	End   string `yaml:"end" validate:"required_with=Begin"`
}

// ScreenConfig selects how screen interactivity is probed.
type ScreenConfig struct {
	Mode    string   `yaml:"mode" validate:"oneof=static command manual"`
	Command []string `yaml:"command" validate:"required_if=Mode command"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Address     string `yaml:"address" validate:"required_if=Enabled true"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db" validate:"min=0"`
	ReminderTTL string `yaml:"reminder_ttl"`
}

type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn error"`
}

// DefaultConfig mirrors the constants the monitoring service has always shipped with.
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			Device:         "/dev/video0",
			InputFormat:    "v4l2",
			TotalCapture:   7,
			TotalProcessed: 2,
			Interval:       "15s",
		},
		Location: LocationConfig{
			SafeZoneRadius:  50,
			MinDisplacement: 20,
		},
		Classifier: ClassifierConfig{
			Python:              "python3",
			Script:              "python/worker.py",
			ConfidenceThreshold: 0.8,
			Timeout:             "30s",
		},
		Screen: ScreenConfig{
			Mode: "static",
		},
		Redis: RedisConfig{
			Address:     "localhost:6379",
			ReminderTTL: "10m",
		},
		API: APIConfig{
			Enabled: true,
			Listen:  ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies .env and
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MASKWATCH_CAMERA_DEVICE"); v != "" {
		c.Capture.Device = v
	}
	if v := os.Getenv("MASKWATCH_API_LISTEN"); v != "" {
		c.API.Listen = v
	}
	if v := os.Getenv("MASKWATCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	} else if c.Database.URL == "" {
		if host := os.Getenv("POSTGRES_HOST"); host != "" {
			user := os.Getenv("POSTGRES_USER")
			pass := os.Getenv("POSTGRES_PASSWORD")
			name := os.Getenv("POSTGRES_DB")
			port := os.Getenv("POSTGRES_PORT")
			if port == "" {
				port = "5432"
			}
			c.Database.URL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
		} else {
			// Fallback to local default if no env vars are present
			c.Database.URL = "postgres://localhost:5432/maskwatch"
		}
	}

	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		c.Redis.Address = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
}

// Validate checks struct constraints and that every duration and clock string parses.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name, d := range map[string]string{
		"capture.interval":   c.Capture.Interval,
		"classifier.timeout": c.Classifier.Timeout,
		"redis.reminder_ttl": c.Redis.ReminderTTL,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	if c.CaptureInterval() <= 0 {
		return fmt.Errorf("invalid config: capture.interval must be positive, got %q", c.Capture.Interval)
	}
	if _, err := c.Schedule.Parse(); err != nil {
		return fmt.Errorf("invalid config: schedule: %w", err)
	}
	return nil
}

// CaptureInterval returns the duty-cycle period.
func (c *Config) CaptureInterval() time.Duration {
	d, _ := time.ParseDuration(c.Capture.Interval)
	return d
}

// ClassifierTimeout returns the per-frame read timeout, or 0 for none.
func (c *Config) ClassifierTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Classifier.Timeout)
	return d
}

// ReminderTTL returns how long a raised reminder stays visible.
func (c *Config) ReminderTTL() time.Duration {
	d, _ := time.ParseDuration(c.Redis.ReminderTTL)
	return d
}

// Parse returns nil when no window is configured.
func (s ScheduleConfig) Parse() (*gate.Schedule, error) {
	if s.Begin == "" && s.End == "" {
		return nil, nil
	}
	return gate.ParseSchedule(s.Begin, s.End)
}
