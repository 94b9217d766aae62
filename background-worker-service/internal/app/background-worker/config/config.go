package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит все настройки Background Worker Service
// Воркер пересчитывает сводки рейтинга товаров по событиям отзывов
type Config struct {
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	MongoDB      MongoDBConfig
	CronSchedule CronScheduleConfig
	Health       HealthConfig
	Log          LogConfig
}

// DatabaseConfig - настройки подключения к PostgreSQL Catalog Service
// Воркер только читает таблицу reviews
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string // Имя базы данных (catalog_service)
	SSLMode  string
}

// RedisConfig - настройки Redis для сводок рейтинга
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration // TTL сводки рейтинга
}

// KafkaConfig - настройки подписки на топик review_events
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string // ID группы потребителей
	MinBytes int
	MaxBytes int
}

// MongoDBConfig - журнал обработанных событий
type MongoDBConfig struct {
	URI      string
	Database string
}

type CronScheduleConfig struct {
	RecalculateRatings string // Полный пересчет, формат с секундами: "0 */30 * * * *"
}

type HealthConfig struct {
	Port string
}

type LogConfig struct {
	Level        string
	LogstashAddr string
}

// Load загружает конфигурацию из переменных окружения
// Возвращает ошибку, если не удалось распарсить значения
func Load() (*Config, error) {
	ttlMinutes, err := getEnvInt("RATING_SUMMARY_TTL_MINUTES", 120)
	if err != nil {
		return nil, err
	}
	if ttlMinutes <= 0 {
		return nil, fmt.Errorf("invalid RATING_SUMMARY_TTL_MINUTES value: must be positive")
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	minBytes, err := getEnvInt("KAFKA_MIN_BYTES", 1)
	if err != nil {
		return nil, err
	}

	maxBytes, err := getEnvInt("KAFKA_MAX_BYTES", 10e6)
	if err != nil {
		return nil, err
	}
	if minBytes > maxBytes {
		return nil, fmt.Errorf("invalid KAFKA_MIN_BYTES value: greater than KAFKA_MAX_BYTES")
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "catalog_service"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			TTL:      time.Duration(ttlMinutes) * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:  splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:    getEnv("KAFKA_TOPIC", "review_events"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "rating-worker-group"),
			MinBytes: minBytes,
			MaxBytes: maxBytes,
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "review_journal"),
		},
		CronSchedule: CronScheduleConfig{
			RecalculateRatings: getEnv("CRON_RECALCULATE_RATINGS", "0 */30 * * * *"),
		},
		Health: HealthConfig{
			Port: getEnv("HEALTH_PORT", "8080"),
		},
		Log: LogConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
		},
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *HealthConfig) Address() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return parsed, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
