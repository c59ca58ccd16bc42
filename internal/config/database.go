package config

import (
	"context"
	"fmt"
	"time"

	"energy_finance/pkg/logger"

	influxdb3 "github.com/InfluxCommunity/influxdb3-go/v2/influxdb3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Database interface for operations
type Database interface {
	Close() error
	GetType() string
}

// MemoryDatabase marks in-process storage; there is nothing to connect
type MemoryDatabase struct{}

func (MemoryDatabase) Close() error    { return nil }
func (MemoryDatabase) GetType() string { return "memory" }

// MongoDatabase wraps MongoDB client
type MongoDatabase struct {
	Client   *mongo.Client
	Database *mongo.Database
	Projects *mongo.Collection
	Results  *mongo.Collection
}

// InfluxDatabase wraps InfluxDB v3 client
type InfluxDatabase struct {
	Client   *influxdb3.Client
	Database string
}

// InitDatabase creates the project and result store selected by DB_TYPE
func InitDatabase(cfg *Config) (Database, error) {
	switch cfg.DBType {
	case "memory":
		logger.Info("Using in-memory project store")
		return MemoryDatabase{}, nil
	case "mongo":
		return initMongo(cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
}

// InitScheduleStore connects the cash-flow time series store selected by
// SCHEDULE_STORE. It returns nil when none is configured.
func InitScheduleStore(cfg *Config) (*InfluxDatabase, error) {
	switch cfg.ScheduleStore {
	case "":
		return nil, nil
	case "influx":
		return initInflux(cfg)
	default:
		return nil, fmt.Errorf("unsupported schedule store: %s", cfg.ScheduleStore)
	}
}

func initMongo(cfg *Config) (*MongoDatabase, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(50).
		SetMinPoolSize(5)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	database := client.Database(cfg.MongoDB)
	projects := database.Collection(cfg.MongoProjectCollection)
	results := database.Collection(cfg.MongoResultCollection)

	if err := createMongoIndexes(ctx, projects, results); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Infof("MongoDB connected: %s (%s, %s)", cfg.MongoDB, cfg.MongoProjectCollection, cfg.MongoResultCollection)

	return &MongoDatabase{
		Client:   client,
		Database: database,
		Projects: projects,
		Results:  results,
	}, nil
}

func createMongoIndexes(ctx context.Context, projects, results *mongo.Collection) error {
	_, err := projects.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "project_type", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = results.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "calculated_at", Value: -1}},
	})
	return err
}

func (m *MongoDatabase) Close() error {
	if m.Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.Client.Disconnect(ctx)
	}
	return nil
}

func (m *MongoDatabase) GetType() string {
	return "mongo"
}

func initInflux(cfg *Config) (*InfluxDatabase, error) {
	logger.Infof("Initializing InfluxDB v3 connection: url=%s database=%s token=%s",
		cfg.InfluxURL, cfg.InfluxDatabase, maskToken(cfg.InfluxToken))

	if cfg.InfluxURL == "" {
		return nil, fmt.Errorf("INFLUXDB_URL is required")
	}
	if cfg.InfluxDatabase == "" {
		return nil, fmt.Errorf("INFLUXDB_DATABASE is required")
	}

	clientConfig := influxdb3.ClientConfig{
		Host:     cfg.InfluxURL,
		Database: cfg.InfluxDatabase,
		WriteOptions: &influxdb3.WriteOptions{
			DefaultTags: map[string]string{
				"source": "energy_finance",
			},
		},
	}

	// InfluxDB v3 Core runs without a token
	if cfg.InfluxToken != "" {
		clientConfig.Token = cfg.InfluxToken
	}

	client, err := influxdb3.New(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("influx client creation failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	iterator, err := client.Query(ctx, "SHOW TABLES")
	if err != nil {
		logger.Warnf("InfluxDB test query failed (empty database?): %v", err)
	} else {
		count := 0
		for iterator.Next() {
			count++
		}
		logger.Debugf("InfluxDB has %d tables", count)
	}

	logger.Infof("InfluxDB connected: %s", cfg.InfluxDatabase)

	return &InfluxDatabase{
		Client:   client,
		Database: cfg.InfluxDatabase,
	}, nil
}

func (i *InfluxDatabase) Close() error {
	if i.Client != nil {
		return i.Client.Close()
	}
	return nil
}

func (i *InfluxDatabase) GetType() string {
	return "influx"
}

// Helper to mask token in logs
func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
