package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"energy_finance/internal/domain"
	"energy_finance/internal/finance"
	"energy_finance/pkg/logger"
)

// Config holds application configuration
type Config struct {
	// Server
	ServerPort int

	// Storage
	DBType        string // "memory" or "mongo"
	ScheduleStore string // "" or "influx"

	// MongoDB
	MongoURI               string
	MongoDB                string
	MongoProjectCollection string
	MongoResultCollection  string

	// InfluxDB
	InfluxURL      string
	InfluxToken    string
	InfluxDatabase string

	// Processing
	BatchSize     int
	FlushInterval int // milliseconds
	WorkerCount   int
	CacheTTL      time.Duration

	// Engine
	CapacityFactor          float64
	HoursPerYear            float64
	DefaultPerformanceRatio float64
	IRRLow                  float64
	IRRHigh                 float64
	IRRTolerance            float64
	IRRMaxIterations        int

	// Default assumptions
	DefaultDiscountRate  float64
	DefaultInflationRate float64
	DefaultDebtRatio     float64
	DefaultInterestRate  float64

	// Logging
	LogLevel      string
	LogDir        string
	LogMaxAgeDays int
	LogToFile     bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	engine := finance.DefaultConfig()

	cfg := &Config{
		ServerPort:    getEnvInt("SERVER_PORT", 8080),
		DBType:        getEnv("DB_TYPE", "memory"),
		ScheduleStore: os.Getenv("SCHEDULE_STORE"),

		// MongoDB
		MongoURI:               getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:                getEnv("MONGO_DATABASE", "energy_finance"),
		MongoProjectCollection: getEnv("MONGO_PROJECT_COLLECTION", "projects"),
		MongoResultCollection:  getEnv("MONGO_RESULT_COLLECTION", "analysis_results"),

		// InfluxDB
		InfluxURL:      getEnv("INFLUXDB_URL", "http://localhost:8086"),
		InfluxToken:    getEnv("INFLUXDB_TOKEN", ""),
		InfluxDatabase: getEnv("INFLUXDB_DATABASE", "energy_finance"),

		// Processing
		BatchSize:     getEnvInt("BATCH_SIZE", 100),
		FlushInterval: getEnvInt("FLUSH_INTERVAL", 200),
		WorkerCount:   getEnvInt("WORKER_COUNT", 4),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL", 300)) * time.Second,

		// Engine
		CapacityFactor:          getEnvFloat("CAPACITY_FACTOR", engine.CapacityFactor),
		HoursPerYear:            getEnvFloat("HOURS_PER_YEAR", engine.HoursPerYear),
		DefaultPerformanceRatio: getEnvFloat("DEFAULT_PERFORMANCE_RATIO", engine.DefaultPerformanceRatio),
		IRRLow:                  getEnvFloat("IRR_LOW", engine.Solver.Low),
		IRRHigh:                 getEnvFloat("IRR_HIGH", engine.Solver.High),
		IRRTolerance:            getEnvFloat("IRR_TOLERANCE", engine.Solver.Tolerance),
		IRRMaxIterations:        getEnvInt("IRR_MAX_ITERATIONS", engine.Solver.MaxIterations),

		// Default assumptions
		DefaultDiscountRate:  getEnvFloat("DEFAULT_DISCOUNT_RATE", 0.08),
		DefaultInflationRate: getEnvFloat("DEFAULT_INFLATION_RATE", 0.025),
		DefaultDebtRatio:     getEnvFloat("DEFAULT_DEBT_RATIO", 0.7),
		DefaultInterestRate:  getEnvFloat("DEFAULT_INTEREST_RATE", 0.05),

		// Logging
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogDir:        getEnv("LOG_DIRECTORY", "./logs"),
		LogMaxAgeDays: getEnvInt("LOG_FILE_MAX_AGE", 2),
		LogToFile:     getEnvBool("LOG_TO_FILE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.DBType != "memory" && c.DBType != "mongo" {
		return fmt.Errorf("invalid DB_TYPE: %s (use 'memory' or 'mongo')", c.DBType)
	}

	if c.ScheduleStore != "" && c.ScheduleStore != "influx" {
		return fmt.Errorf("invalid SCHEDULE_STORE: %s (leave empty or use 'influx')", c.ScheduleStore)
	}

	if c.BatchSize < 1 || c.BatchSize > 10000 {
		return fmt.Errorf("invalid BATCH_SIZE: %d (must be 1-10000)", c.BatchSize)
	}

	if c.FlushInterval < 50 || c.FlushInterval > 5000 {
		return fmt.Errorf("invalid FLUSH_INTERVAL: %d (must be 50-5000ms)", c.FlushInterval)
	}

	if c.WorkerCount < 1 || c.WorkerCount > 256 {
		return fmt.Errorf("invalid WORKER_COUNT: %d (must be 1-256)", c.WorkerCount)
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid CACHE_TTL: %s (must not be negative)", c.CacheTTL)
	}

	if c.DefaultDebtRatio < 0 || c.DefaultDebtRatio > 1 {
		return fmt.Errorf("invalid DEFAULT_DEBT_RATIO: %v (must be 0-1)", c.DefaultDebtRatio)
	}

	if c.DefaultDiscountRate <= -1 {
		return fmt.Errorf("invalid DEFAULT_DISCOUNT_RATE: %v (must be greater than -1)", c.DefaultDiscountRate)
	}

	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("invalid engine settings: %w", err)
	}

	return nil
}

// EngineConfig returns the finance engine constants
func (c *Config) EngineConfig() finance.Config {
	engine := finance.DefaultConfig()
	engine.CapacityFactor = c.CapacityFactor
	engine.HoursPerYear = c.HoursPerYear
	engine.DefaultPerformanceRatio = c.DefaultPerformanceRatio
	engine.Solver.Low = c.IRRLow
	engine.Solver.High = c.IRRHigh
	engine.Solver.Tolerance = c.IRRTolerance
	engine.Solver.MaxIterations = c.IRRMaxIterations
	return engine
}

// DefaultAssumptions is the base every analysis request is merged onto
func (c *Config) DefaultAssumptions() domain.AssumptionSet {
	return domain.AssumptionSet{
		DiscountRate:  c.DefaultDiscountRate,
		InflationRate: c.DefaultInflationRate,
		DebtRatio:     c.DefaultDebtRatio,
		InterestRate:  c.DefaultInterestRate,
	}
}

// LoggerOptions returns the logging settings
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.LogLevel,
		Directory:  c.LogDir,
		MaxAgeDays: c.LogMaxAgeDays,
		ToFile:     c.LogToFile,
	}
}

// FlushEvery is FlushInterval as a duration
func (c *Config) FlushEvery() time.Duration {
	return time.Duration(c.FlushInterval) * time.Millisecond
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
