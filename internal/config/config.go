// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/palaro-app/courtbook/internal/civil"
)

const (
	DefaultNoShowGraceMinutes = 15
	DefaultSweepCron          = "* * * * *"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

// BookingConfig holds the tunable booking-engine policy values. The grace
// period and auto-confirm flag are operational choices, so they stay
// overridable rather than baked in.
type BookingConfig struct {
	Timezone           string `yaml:"timezone"`
	NoShowGraceMinutes int    `yaml:"no_show_grace_minutes"`
	SweepCron          string `yaml:"sweep_cron"`
	AutoConfirm        bool   `yaml:"auto_confirm"`
}

type EventsConfig struct {
	AMQPURL  string `yaml:"-"` // Loaded from environment
	Exchange string `yaml:"exchange"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Booking  BookingConfig  `yaml:"booking"`
	Events   EventsConfig   `yaml:"events"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.Events.AMQPURL = os.Getenv("AMQP_URL")

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = civil.DefaultZone
	}
	if c.Booking.NoShowGraceMinutes == 0 {
		c.Booking.NoShowGraceMinutes = DefaultNoShowGraceMinutes
	}
	if c.Booking.SweepCron == "" {
		c.Booking.SweepCron = DefaultSweepCron
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Filename == "" {
		return fmt.Errorf("database filename is required for sqlite")
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("invalid booking timezone %q: %w", c.Booking.Timezone, err)
	}
	if c.Booking.NoShowGraceMinutes < 0 {
		return fmt.Errorf("no-show grace minutes cannot be negative")
	}
	if _, err := cron.ParseStandard(c.Booking.SweepCron); err != nil {
		return fmt.Errorf("invalid sweep cron %q: %w", c.Booking.SweepCron, err)
	}
	return nil
}

// Location resolves the configured booking timezone. Validate has already
// confirmed it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NoShowGrace returns the grace window as a duration.
func (c *Config) NoShowGrace() time.Duration {
	return time.Duration(c.Booking.NoShowGraceMinutes) * time.Minute
}
