package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v2"

	"volunteer_backend/internal/logger"
)

type Config struct {
	Server struct {
		Host  string `yaml:"host"`
		Port  int    `yaml:"port"`
		Env   string `yaml:"env"`
		Debug bool   `yaml:"debug"`
	} `yaml:"server"`

	Database struct {
		DSN          string        `yaml:"url"`
		MaxOpenConns int           `yaml:"max_open_conns"`
		MaxIdleConns int           `yaml:"max_idle_conns"`
		QueryTimeout time.Duration `yaml:"query_timeout"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // минуты
	} `yaml:"jwt"`

	Messaging struct {
		Driver         string        `yaml:"driver"` // amqp, kafka, log
		URL            string        `yaml:"url"`
		Exchange       string        `yaml:"exchange"`
		KafkaBrokers   []string      `yaml:"kafka_brokers"`
		KafkaTopic     string        `yaml:"kafka_topic"`
		PublishTimeout time.Duration `yaml:"publish_timeout"`
		MaxParallel    int           `yaml:"max_parallel"`
	} `yaml:"messaging"`

	Redis struct {
		URL       string        `yaml:"url"` // пусто - кэш выключен
		PoolSize  int           `yaml:"pool_size"`
		RecentTTL time.Duration `yaml:"recent_ttl"`
	} `yaml:"redis"`

	Matching struct {
		DefaultRadiusKm float64 `yaml:"default_radius_km"`
		MaxPageSize     int     `yaml:"max_page_size"`
	} `yaml:"matching"`

	Workers struct {
		CompletionInterval time.Duration `yaml:"completion_interval"`
	} `yaml:"workers"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

const (
	MessagingDriverAMQP  = "amqp"
	MessagingDriverKafka = "kafka"
	MessagingDriverLog   = "log"
)

var AppConfig *Config

// LoadConfig: .env (необязательный), затем либо YAML (нет DATABASE_URL), либо переменные окружения
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("Не удалось прочитать .env", "error", err)
	}

	var cfg Config

	if os.Getenv("DATABASE_URL") == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}
		logger.Info("Загрузка конфигурации из файла", "path", configPath)

		if err := loadYAML(configPath, &cfg); err != nil {
			return nil, err
		}
	} else {
		logger.Info("Загрузка конфигурации из переменных окружения")
		loadEnv(&cfg)
	}

	cfg.applyDefaults()
	AppConfig = &cfg
	return &cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "open config file %s", path)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return eris.Wrapf(err, "parse config file %s", path)
	}
	return nil
}

func loadEnv(cfg *Config) {
	cfg.Database.DSN = os.Getenv("DATABASE_URL")
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.Server.Debug, _ = strconv.ParseBool(os.Getenv("SERVER_DEBUG"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL, _ = strconv.Atoi(os.Getenv("JWT_TTL"))

	cfg.Messaging.Driver = os.Getenv("MESSAGING_DRIVER")
	cfg.Messaging.URL = os.Getenv("RABBITMQ_URL")
	cfg.Messaging.Exchange = os.Getenv("RABBITMQ_EXCHANGE_NAME")
	cfg.Messaging.KafkaTopic = os.Getenv("KAFKA_TOPIC")
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Messaging.KafkaBrokers = append(cfg.Messaging.KafkaBrokers, b)
			}
		}
	}

	cfg.Redis.URL = os.Getenv("REDIS_URL")
	cfg.Metrics.Enabled = os.Getenv("METRICS_ENABLED") != "false"
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.QueryTimeout == 0 {
		c.Database.QueryTimeout = 5 * time.Second
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 60
	}

	if c.Messaging.Driver == "" {
		c.Messaging.Driver = MessagingDriverAMQP
	}
	if c.Messaging.URL == "" {
		c.Messaging.URL = "amqp://localhost:5672"
	}
	if c.Messaging.Exchange == "" {
		c.Messaging.Exchange = "notification_exchange"
	}
	if c.Messaging.KafkaTopic == "" {
		c.Messaging.KafkaTopic = "notifications"
	}
	if c.Messaging.PublishTimeout == 0 {
		c.Messaging.PublishTimeout = 3 * time.Second
	}
	if c.Messaging.MaxParallel == 0 {
		c.Messaging.MaxParallel = 8
	}

	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.RecentTTL == 0 {
		c.Redis.RecentTTL = 30 * time.Second
	}

	if c.Matching.DefaultRadiusKm <= 0 {
		c.Matching.DefaultRadiusKm = 20
	}
	if c.Matching.MaxPageSize <= 0 {
		c.Matching.MaxPageSize = 100
	}

	if c.Workers.CompletionInterval == 0 {
		c.Workers.CompletionInterval = time.Hour
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// IsProduction - скрывать ли детали внутренних ошибок
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func GetConfig() *Config {
	if AppConfig == nil {
		cfg, err := LoadConfig()
		if err != nil {
			logger.Fatal("Не удалось загрузить конфигурацию", "error", err)
		}
		return cfg
	}
	return AppConfig
}
