// Управление конфигурацией приложения из переменных окружения.
// Содержит структуру Config для хранения параметров и функцию ReadConfig для их загрузки из переменных окружения.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения с использованием тегов struct.
//   - Валидация обязательных переменных (WEB_URL, базовый адрес CDN).
//   - Маскировка секретных значений в логах.
//   - Значения по умолчанию для пулов воркеров и времени жизни подписанных ссылок.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"
)

type Config struct {
	SecretKey string `env:"SECRET_KEY"`

	AWSAccessKey  string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey  string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSEndpoint   string `env:"AWS_S3_ENDPOINT_URL"`
	AWSBucketName string `env:"AWS_S3_BUCKET_NAME"`
	AWSUseSSL     bool   `env:"AWS_S3_USE_SSL"`

	DatabaseDSN string `env:"DATABASE_URL"`

	WebURLRaw string `env:"WEB_URL"`
	WebURL    *url.URL

	// Если задан, воспроизведение видео идет через CDN вместо подписанных ссылок хранилища
	MediaCDNURLRaw string `env:"MEDIA_CDN_URL"`
	MediaCDNURL    *url.URL

	UploadURLTTLMinutes   int `env:"UPLOAD_URL_TTL_MINUTES"`
	PlaybackURLTTLMinutes int `env:"PLAYBACK_URL_TTL_MINUTES"`

	MediaDeleteWorkers int `env:"MEDIA_DELETE_WORKERS"`
	MediaDeleteQueue   int `env:"MEDIA_DELETE_QUEUE"`
	ReconcileWorkers   int `env:"RECONCILE_WORKERS"`

	ListenAddr  string `env:"LISTEN_ADDR"`
	MetricsAddr string `env:"METRICS_ADDR"`

	SwaggerEnable bool `env:"SWAGGER"`
}

func (c *Config) UploadURLTTL() time.Duration {
	return time.Duration(c.UploadURLTTLMinutes) * time.Minute
}

func (c *Config) PlaybackURLTTL() time.Duration {
	return time.Duration(c.PlaybackURLTTLMinutes) * time.Minute
}

// ReadConfig загружает конфигурацию из переменных окружения. При ошибке валидации приложение завершает работу.
func ReadConfig() *Config {
	config, err := Load()
	if err != nil {
		slog.Error("Read config", "err", err)
		os.Exit(1)
	}
	return config
}

// Load загружает и проверяет конфигурацию, подставляя значения по умолчанию.
func Load() (*Config, error) {
	config := &Config{}

	if err := envConfig("env", config); err != nil {
		return nil, err
	}

	if config.WebURLRaw == "" {
		return nil, errors.New("WEB_URL is required")
	}
	var err error
	config.WebURL, err = url.Parse(config.WebURLRaw)
	if err != nil {
		return nil, fmt.Errorf("WEB_URL incorrect: %w", err)
	}

	if config.MediaCDNURLRaw != "" {
		config.MediaCDNURL, err = url.Parse(config.MediaCDNURLRaw)
		if err != nil || !config.MediaCDNURL.IsAbs() {
			return nil, fmt.Errorf("MEDIA_CDN_URL incorrect: %q", config.MediaCDNURLRaw)
		}
	}

	if config.UploadURLTTLMinutes <= 0 {
		config.UploadURLTTLMinutes = 15
	}
	if config.PlaybackURLTTLMinutes <= 0 {
		config.PlaybackURLTTLMinutes = 60
	}
	if config.MediaDeleteWorkers <= 0 {
		config.MediaDeleteWorkers = 4
	}
	if config.MediaDeleteQueue <= 0 {
		config.MediaDeleteQueue = 256
	}
	if config.ReconcileWorkers <= 0 {
		config.ReconcileWorkers = 8
	}
	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.MetricsAddr == "" {
		config.MetricsAddr = ":2112"
	}

	return config, nil
}

// Присваивает полям в переданной структуре значения переменных. Название переменной для каждого поля лежит в теге этого поля.
func envConfig(key string, s interface{}) error {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)
		if fEnvTag == "" {
			continue
		}

		value, ok := lookupEnv(fEnvTag)
		if !ok {
			continue
		}
		if err := setField(v.Field(i), fEnvTag, value); err != nil {
			return err
		}

		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", logValue(fName, value)),
			slog.String("source", "ENVIRONMENT"),
		)
	}
	return nil
}

// logValue маскирует секреты, оставляя первый и последний символы.
func logValue(field, value string) string {
	name := strings.ToLower(field)
	if !strings.Contains(name, "pass") && !strings.Contains(name, "secret") && !strings.Contains(name, "token") && !strings.Contains(name, "dsn") {
		return value
	}
	runes := []rune(value)
	if len(runes) <= 2 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}
