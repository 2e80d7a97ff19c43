package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Messaging   MessagingConfig   `yaml:"messaging"`
	Partners    PartnersConfig    `yaml:"partners"`
	Fulfillment FulfillmentConfig `yaml:"fulfillment"`
	Jobs        JobsConfig        `yaml:"jobs"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MessagingConfig struct {
	Kafka             KafkaConfig   `yaml:"kafka"`
	EventsTopic       string        `yaml:"events_topic"`
	ServiceName       string        `yaml:"service_name"`
	RingCapacity      int           `yaml:"ring_capacity"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

type PartnersConfig struct {
	CMS PartnerEndpoint `yaml:"cms"`
	WMS PartnerEndpoint `yaml:"wms"`
	ROS PartnerEndpoint `yaml:"ros"`
}

type PartnerEndpoint struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type FulfillmentConfig struct {
	MaxAttempts        int           `yaml:"max_attempts"`
	RetryDelay         time.Duration `yaml:"retry_delay"`
	RetryDrainInterval time.Duration `yaml:"retry_drain_interval"`
	BulkBatchSize      int           `yaml:"bulk_batch_size"`
	BulkBatchPause     time.Duration `yaml:"bulk_batch_pause"`
}

type JobsConfig struct {
	StaleAfter    time.Duration `yaml:"stale_after"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "lastmile.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "lastmile",
				User:     "lastmile",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
		},
		Messaging: MessagingConfig{
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "order-service",
			},
			EventsTopic:       "lastmile.events",
			ServiceName:       "order-service",
			RingCapacity:      1000,
			ReconnectInterval: 10 * time.Second,
		},
		Partners: PartnersConfig{
			CMS: PartnerEndpoint{BaseURL: "http://localhost:8091", Timeout: 10 * time.Second},
			WMS: PartnerEndpoint{BaseURL: "http://localhost:8092", Timeout: 10 * time.Second},
			ROS: PartnerEndpoint{BaseURL: "http://localhost:8093", Timeout: 15 * time.Second},
		},
		Fulfillment: FulfillmentConfig{
			MaxAttempts:        3,
			RetryDelay:         5 * time.Second,
			RetryDrainInterval: time.Second,
			BulkBatchSize:      10,
			BulkBatchPause:     time.Second,
		},
		Jobs: JobsConfig{
			StaleAfter:    10 * time.Minute,
			SweepSchedule: "@every 1m",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
