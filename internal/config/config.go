package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/config"
)

type Config struct {
	Service     ServiceConfig     `yaml:"service"`
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Feasibility FeasibilityConfig `yaml:"feasibility"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	TodayTTL     time.Duration `yaml:"today_ttl"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

type SchedulerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	ReminderInterval time.Duration `yaml:"reminder_interval"`
	AuditInterval    time.Duration `yaml:"audit_interval"`
	SweepBatchSize   int32         `yaml:"sweep_batch_size"`
}

// FeasibilityConfig holds the admission-heuristic thresholds. Zero values are
// replaced with the defaults below so a partial YAML block stays safe.
type FeasibilityConfig struct {
	MaxDailyMinutes    int32   `yaml:"max_daily_minutes"`
	MaxWeeklyMinutes   int32   `yaml:"max_weekly_minutes"`
	MaxDailyHabits     int     `yaml:"max_daily_habits"`
	MaxWeeklyHabits    int32   `yaml:"max_weekly_habits"`
	MinCompletionRate  float64 `yaml:"min_completion_rate"`
	HighCompletionRate float64 `yaml:"high_completion_rate"`
	MinStreakDays      float64 `yaml:"min_streak_days"`
	OptimalStreakDays  float64 `yaml:"optimal_streak_days"`
	ConflictWindowMin  int     `yaml:"conflict_window_minutes"`
	DefaultMinutes     int32   `yaml:"default_minutes"`
	MinHabitAgeDays    int     `yaml:"min_habit_age_days"`
	RateWindowDays     int     `yaml:"rate_window_days"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	configPath := getEnv("CONFIG_PATH", "./config/base.yaml")

	provider, err := config.NewYAML(
		config.File(configPath),
		config.Expand(os.LookupEnv),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create config provider: %w", err)
	}

	var cfg Config
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("failed to populate config: %w", err)
	}

	cfg.overrideFromEnv()
	cfg.Feasibility.applyDefaults()

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables if present
func (c *Config) overrideFromEnv() {
	if val := os.Getenv("SERVICE_NAME"); val != "" {
		c.Service.Name = val
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.HTTP.Port)
	}
	if val := os.Getenv("DATABASE_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DATABASE_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DATABASE_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DATABASE_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DATABASE_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DATABASE_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("KAFKA_BROKER"); val != "" {
		c.Kafka.Brokers = []string{val}
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.SMTP.Port)
	}
	if val := os.Getenv("SMTP_USERNAME"); val != "" {
		c.SMTP.Username = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.SMTP.Password = val
	}
	if val := os.Getenv("SMTP_FROM_EMAIL"); val != "" {
		c.SMTP.FromEmail = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
}

func (f *FeasibilityConfig) applyDefaults() {
	if f.MaxDailyMinutes == 0 {
		f.MaxDailyMinutes = 180
	}
	if f.MaxWeeklyMinutes == 0 {
		f.MaxWeeklyMinutes = 720
	}
	if f.MaxDailyHabits == 0 {
		f.MaxDailyHabits = 8
	}
	if f.MaxWeeklyHabits == 0 {
		f.MaxWeeklyHabits = 15
	}
	if f.MinCompletionRate == 0 {
		f.MinCompletionRate = 0.7
	}
	if f.HighCompletionRate == 0 {
		f.HighCompletionRate = 0.85
	}
	if f.MinStreakDays == 0 {
		f.MinStreakDays = 7
	}
	if f.OptimalStreakDays == 0 {
		f.OptimalStreakDays = 21
	}
	if f.ConflictWindowMin == 0 {
		f.ConflictWindowMin = 30
	}
	if f.DefaultMinutes == 0 {
		f.DefaultMinutes = 15
	}
	if f.MinHabitAgeDays == 0 {
		f.MinHabitAgeDays = 7
	}
	if f.RateWindowDays == 0 {
		f.RateWindowDays = 30
	}
}

// GetDSN returns PostgreSQL connection string in URL format for pgx/v5
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
