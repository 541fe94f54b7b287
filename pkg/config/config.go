package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StateStoreNone     = "none"
	StateStorePostgres = "postgres"
	StateStoreRedis    = "redis"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Redis      RedisConfig
	Prometheus PrometheusConfig
	State      StateConfig
	Analytics  AnalyticsConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig enables bearer auth on the api routes when SecretKey is set.
type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type PrometheusConfig struct {
	URL          string
	QueryTimeout time.Duration
}

type StateConfig struct {
	Store string
	TTL   time.Duration
}

// AnalyticsConfig holds the process-wide defaults for the decision core.
// Requests may override them through advanced_parameters.
type AnalyticsConfig struct {
	PosteriorSampleSize   int
	CredibleIntervalLevel float64
	WinnerConfidence      float64
	VarianceBoostFactor   float64
	BaselinePseudoReward  float64
	CandidatePseudoReward float64
	PosteriorFloor        float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	queryTimeout, err := getDuration("METRICS_QUERY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	stateTTL, err := getDuration("STATE_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	analytics, err := loadAnalytics()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "canary-analytics"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "canary_analytics"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
		},
		Prometheus: PrometheusConfig{
			URL:          getEnv("PROMETHEUS_URL", "http://localhost:9090"),
			QueryTimeout: queryTimeout,
		},
		State: StateConfig{
			Store: getEnv("STATE_STORE", StateStoreNone),
			TTL:   stateTTL,
		},
		Analytics: analytics,
	}

	switch cfg.State.Store {
	case StateStoreNone:
	case StateStorePostgres:
		if cfg.Database.Password == "" {
			return nil, errors.New("missing database password")
		}
	case StateStoreRedis:
		redisDB, err := strconv.Atoi(os.Getenv("REDIS_DB"))
		if err != nil {
			return nil, errors.New("missing redis database")
		}
		cfg.Redis.RedisDB = redisDB
	default:
		return nil, fmt.Errorf("unknown state store %q", cfg.State.Store)
	}

	return cfg, nil
}

func loadAnalytics() (AnalyticsConfig, error) {
	var (
		a   AnalyticsConfig
		err error
	)
	if a.PosteriorSampleSize, err = getInt("POSTERIOR_SAMPLE_SIZE", 10000); err != nil {
		return a, err
	}
	if a.CredibleIntervalLevel, err = getFloat("CREDIBLE_INTERVAL_LEVEL", 0.95); err != nil {
		return a, err
	}
	if a.WinnerConfidence, err = getFloat("WINNER_CONFIDENCE", 0.99); err != nil {
		return a, err
	}
	if a.VarianceBoostFactor, err = getFloat("VARIANCE_BOOST_FACTOR", 1.0); err != nil {
		return a, err
	}
	if a.BaselinePseudoReward, err = getFloat("BASELINE_PSEUDO_REWARD", 1.0); err != nil {
		return a, err
	}
	if a.CandidatePseudoReward, err = getFloat("CANDIDATE_PSEUDO_REWARD", 2.0); err != nil {
		return a, err
	}
	if a.PosteriorFloor, err = getFloat("POSTERIOR_FLOOR", 0.0); err != nil {
		return a, err
	}
	return a, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
