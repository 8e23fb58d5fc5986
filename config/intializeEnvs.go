package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	godotenv "github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// OCR holds the Muhimbi client settings and the default document options.
type OCR struct {
	APIKey             string
	BaseURL            string
	Timeout            time.Duration
	SkipCertValidation bool
	PollInterval       time.Duration
	Language           string
	Performance        string
	CharactersOption   string
	Paginate           bool
	FailOnError        bool
}

// Worker holds the queue worker settings.
type Worker struct {
	RabbitMqURL         string
	RabbitMqQueue       string
	RabbitMqStatusQueue string
	WorkerCount         int
	AwsBucketName       string
	AwsRegion           string
	MetricsAddr         string
}

type Config struct {
	OCR    OCR
	Worker Worker

	LogLevel  string
	LogFormat string
}

// InitializeEnvs loads the .env file matching APP_ENV into the process
// environment and reads the configuration from it.
func InitializeEnvs() (*Config, error) {
	loadEnvFiles()
	return Load()
}

func loadEnvFiles() {
	switch env := os.Getenv("APP_ENV"); env {
	case "docker":
		if err := godotenv.Overload(".env.docker"); err == nil {
			log.Debug().Msg("Loaded .env.docker")
		} else {
			log.Debug().Msg(".env.docker not found, using existing environment")
		}
	case "dev", "":
		if err := godotenv.Overload(".env.dev"); err == nil {
			log.Debug().Msg("Loaded .env.dev")
		} else if err := godotenv.Overload(".env"); err == nil {
			log.Debug().Msg("Loaded .env")
		} else {
			log.Debug().Msg("No .env.dev or .env found, using system environment variables")
		}
	default:
		fname := ".env." + env
		if err := godotenv.Overload(fname); err == nil {
			log.Debug().Msgf("Loaded %s", fname)
		} else if err := godotenv.Overload(".env"); err == nil {
			log.Debug().Msg("Loaded .env")
		} else {
			log.Debug().Msgf("No %s or .env found, using system environment variables", fname)
		}
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("MUHIMBI_BASE_URL", "https://api.muhimbi.com/api/")
	v.SetDefault("MUHIMBI_TIMEOUT_MINUTES", 15)
	v.SetDefault("MUHIMBI_SKIP_CERT_VALIDATION", false)
	v.SetDefault("MUHIMBI_POLL_INTERVAL_SECONDS", 5)
	v.SetDefault("OCR_LANGUAGE", "English")
	v.SetDefault("OCR_PERFORMANCE", "Slow but accurate")
	v.SetDefault("OCR_CHARACTERS_OPTION", "All")
	v.SetDefault("OCR_PAGINATE", false)
	v.SetDefault("OCR_FAIL_ON_ERROR", true)

	v.SetDefault("RABBITMQ_QUEUE", "ocr_queue")
	v.SetDefault("RABBITMQ_STATUS_QUEUE", "status_queue")
	v.SetDefault("WORKER_COUNT", 1)
	v.SetDefault("METRICS_ADDR", ":2112")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	return v
}

// Load reads the configuration from the environment without touching .env files.
func Load() (*Config, error) {
	v := newViper()

	cfg := &Config{
		OCR: OCR{
			APIKey:             strings.TrimSpace(v.GetString("MUHIMBI_API_KEY")),
			BaseURL:            v.GetString("MUHIMBI_BASE_URL"),
			Timeout:            time.Duration(v.GetInt("MUHIMBI_TIMEOUT_MINUTES")) * time.Minute,
			SkipCertValidation: v.GetBool("MUHIMBI_SKIP_CERT_VALIDATION"),
			PollInterval:       time.Duration(v.GetInt("MUHIMBI_POLL_INTERVAL_SECONDS")) * time.Second,
			Language:           v.GetString("OCR_LANGUAGE"),
			Performance:        v.GetString("OCR_PERFORMANCE"),
			CharactersOption:   v.GetString("OCR_CHARACTERS_OPTION"),
			Paginate:           v.GetBool("OCR_PAGINATE"),
			FailOnError:        v.GetBool("OCR_FAIL_ON_ERROR"),
		},
		Worker: Worker{
			RabbitMqURL:         v.GetString("RABBITMQ_URL"),
			RabbitMqQueue:       strings.TrimSpace(v.GetString("RABBITMQ_QUEUE")),
			RabbitMqStatusQueue: strings.TrimSpace(v.GetString("RABBITMQ_STATUS_QUEUE")),
			WorkerCount:         v.GetInt("WORKER_COUNT"),
			AwsBucketName:       v.GetString("AWS_BUCKET_NAME"),
			AwsRegion:           v.GetString("AWS_REGION"),
			MetricsAddr:         v.GetString("METRICS_ADDR"),
		},
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	if cfg.OCR.Timeout <= 0 {
		return nil, fmt.Errorf("MUHIMBI_TIMEOUT_MINUTES must be positive")
	}
	if cfg.OCR.PollInterval <= 0 {
		return nil, fmt.Errorf("MUHIMBI_POLL_INTERVAL_SECONDS must be positive")
	}
	if cfg.Worker.WorkerCount < 1 {
		cfg.Worker.WorkerCount = 1
	}
	return cfg, nil
}

// ValidateOCR checks what every command needs.
func (c *Config) ValidateOCR() error {
	if c.OCR.APIKey == "" {
		return fmt.Errorf("MUHIMBI_API_KEY is missing")
	}
	return nil
}

// ValidateWorker checks what the queue worker needs on top of ValidateOCR.
func (c *Config) ValidateWorker() error {
	if err := c.ValidateOCR(); err != nil {
		return err
	}
	w := c.Worker
	if w.RabbitMqURL == "" || w.RabbitMqQueue == "" || w.RabbitMqStatusQueue == "" || w.AwsBucketName == "" || w.AwsRegion == "" {
		return fmt.Errorf("RABBITMQ_URL or RABBITMQ_QUEUE or RABBITMQ_STATUS_QUEUE or AWS_BUCKET_NAME or AWS_REGION is missing")
	}
	if w.RabbitMqQueue == w.RabbitMqStatusQueue {
		return fmt.Errorf("RABBITMQ_QUEUE and RABBITMQ_STATUS_QUEUE must differ")
	}
	return nil
}
