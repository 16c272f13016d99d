// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"USERS_API_ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	JWTToken                `yaml:"jwttoken"`
	SubscriptionProvider    `yaml:"subscription_provider"`
	RabbitMQ                `yaml:"rabbitmq"`
	PasswordPolicy          `yaml:"password_policy"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP     string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP     time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает кэширование.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"10m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// SubscriptionProvider структура для настройки клиента сервиса подписок.
// Если BaseURL пуст, всем новым пользователям назначается StaticStatus.
// DeadlineSubscription ограничивает запрос вместе с повторами и должен быть меньше таймаута HTTP-сервера.
type SubscriptionProvider struct {
	BaseURL              string        `yaml:"base_url" env:"SUBSCRIPTION_PROVIDER_URL"`
	TimeoutSubscription  time.Duration `yaml:"timeout" env-default:"2s"`
	RetriesSubscription  uint64        `yaml:"max_retries" env-default:"2"`
	DeadlineSubscription time.Duration `yaml:"deadline" env-default:"4s"`
	StaticStatus         string        `yaml:"static_status" env-default:"active"`
}

// RabbitMQ структура для публикации событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URLRabbitMQ     string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange        string        `yaml:"exchange" env-default:"users"`
	ConnectRetries  int           `yaml:"connect_retries" env-default:"5"`
	ConnectInterval time.Duration `yaml:"connect_interval" env-default:"2s"`
}

// PasswordPolicy структура для правил паролей
type PasswordPolicy struct {
	MinLength  int `yaml:"min_length" env-default:"8"`
	BcryptCost int `yaml:"bcrypt_cost" env-default:"10"`
}

// MustLoad функция для загрузки конфига из файла, указанного в CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает конфиг из файла, переменные окружения имеют приоритет
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: cannot read config: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// validate проверяет согласованность таймаутов: ответ об отказе сервиса подписок
// должен успеть уйти клиенту до истечения WriteTimeout сервера.
func (c *Config) validate() error {
	if c.BaseURL == "" {
		return nil
	}
	if c.DeadlineSubscription <= 0 {
		return fmt.Errorf("subscription_provider.deadline must be positive")
	}
	if c.TimeoutHTTP > 0 && c.DeadlineSubscription >= c.TimeoutHTTP {
		return fmt.Errorf("subscription_provider.deadline (%s) must be less than http_server.timeouthttp (%s)",
			c.DeadlineSubscription, c.TimeoutHTTP)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  CacheTTL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"SubscriptionProvider:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"  Deadline: %s\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n"+
			"PasswordPolicy:\n"+
			"  MinLength: %d\n",
		c.Env,
		c.MigrationsPath,
		c.AddressRedis,
		c.DB,
		c.CacheTTL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.BaseURL,
		c.TimeoutSubscription,
		c.DeadlineSubscription,
		c.Exchange,
		c.MinLength,
	)
}
