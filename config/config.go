package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	ServicePort   string
	MetricsPort   string
	GRPCPort      string
	Environment   string
	MongoDBConfig MongoDBConfig
	KafkaConfig   KafkaConfig
	JWTSecret     string
	TracingConfig TracingConfig
	OrderConfig   OrderConfig
	EventConfig   EventConfig
	PaymentConfig PaymentConfig
	SMTPConfig    SMTPConfig
}

type MongoDBConfig struct {
	URI    string
	DBHost string
	DBPort string
	DBName string
}

type KafkaConfig struct {
	BrokerAddress   string
	BrokerTopic     string
	BrokerPartition int
}

type TracingConfig struct {
	CollectorHost string
	SampleRatio   float64
}

type OrderConfig struct {
	Timeout time.Duration
}

type EventConfig struct {
	PublishTimeout time.Duration
	QueueSize      int
	RelayInterval  time.Duration
}

type PaymentConfig struct {
	SimulateFailure bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

// ConnectionURI returns DB_URI when set, otherwise builds one from DB_HOST and DB_PORT.
func (c MongoDBConfig) ConnectionURI() string {
	if c.URI != "" {
		return c.URI
	}

	return fmt.Sprintf("mongodb://%s:%s", c.DBHost, c.DBPort)
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Sender != ""
}

func CreateNewConfig() *Config {
	godotenv.Load(".env")

	conf := Config{
		ServicePort: os.Getenv("SERVICE_PORT"),
		MetricsPort: os.Getenv("METRICS_PORT"),
		GRPCPort:    os.Getenv("GRPC_PORT"),
		Environment: os.Getenv("ENVIRONMENT"),
		MongoDBConfig: MongoDBConfig{
			URI:    os.Getenv("DB_URI"),
			DBHost: os.Getenv("DB_HOST"),
			DBPort: os.Getenv("DB_PORT"),
			DBName: getEnvOrDefault("DB_NAME", "eshop"),
		},
		JWTSecret: os.Getenv("JWT_SECRET"),
		KafkaConfig: KafkaConfig{
			BrokerAddress:   os.Getenv("BROKER_ADDRESS"),
			BrokerTopic:     getEnvOrDefault("BROKER_TOPIC", "orders"),
			BrokerPartition: getEnvInt("BROKER_PARTITION", 0),
		},
		TracingConfig: TracingConfig{
			CollectorHost: os.Getenv("COLLECTOR_HOST"),
			SampleRatio:   getEnvFloat("TRACE_SAMPLE_RATIO", 1),
		},
		OrderConfig: OrderConfig{
			Timeout: getEnvDuration("ORDER_TIMEOUT", 15*time.Second),
		},
		EventConfig: EventConfig{
			PublishTimeout: getEnvDuration("EVENT_PUBLISH_TIMEOUT", 5*time.Second),
			QueueSize:      getEnvInt("EVENT_QUEUE_SIZE", 256),
			RelayInterval:  getEnvDuration("EVENT_RELAY_INTERVAL", 30*time.Second),
		},
		PaymentConfig: PaymentConfig{
			SimulateFailure: getEnvBool("PAYMENT_SIMULATE_FAILURE", false),
		},
		SMTPConfig: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Sender:   os.Getenv("SMTP_SENDER"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
	}

	return &conf
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Err(err).Str("component", "CreateNewConfig").Str("key", key).Msg("invalid integer, using default")
		return fallback
	}

	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn().Err(err).Str("component", "CreateNewConfig").Str("key", key).Msg("invalid number, using default")
		return fallback
	}

	return v
}

func getEnvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warn().Err(err).Str("component", "CreateNewConfig").Str("key", key).Msg("invalid boolean, using default")
		return fallback
	}

	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Err(err).Str("component", "CreateNewConfig").Str("key", key).Msg("invalid duration, using default")
		return fallback
	}

	return v
}
