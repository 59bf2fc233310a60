package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

// Stage selects which settings are mandatory.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageTranslate Stage = "translate"
	StagePersist   Stage = "persist"
	StageTrigger   Stage = "trigger"
)

const (
	TransportSQS      = "sqs"
	TransportRabbitMQ = "rabbitmq"

	StorageS3    = "s3"
	StorageMinIO = "minio"

	// ConfigPathEnv points at an optional TOML file read before the environment.
	ConfigPathEnv = "PIPELINE_CONFIG"
)

type Config struct {
	ProjectID      string
	TranslateTopic string
	ResultTopic    string
	TargetLangs    []string
	ResultBucket   string
	UploadQueue    string

	Transport   string
	RabbitMQURL string

	StorageBackend    string
	MinIOEndpoint     string
	MinIORootUser     string
	MinIORootPassword string
	MinIOUseSSL       bool

	AWSRegion      string
	AWSEndpointURL string

	StatusTable         string
	DatabaseURL         string
	RedisHost           string
	RedisPort           string
	TranslationCacheTTL time.Duration
	OpenSearchURL       string
	OpenSearchIndex     string

	LogLevel  string
	LogFormat string
}

// Load reads the configuration for stage. Values come from the TOML file at
// path (or $PIPELINE_CONFIG when path is empty) and are overridden by
// environment variables of the same name.
func Load(stage Stage, path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	file, err := readFile(path)
	if err != nil {
		return nil, err
	}
	get := func(key string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return strings.TrimSpace(v)
		}
		return file[key]
	}

	cfg := &Config{
		ProjectID:         get("PROJECT_ID"),
		TranslateTopic:    get("TRANSLATE_TOPIC"),
		ResultTopic:       get("RESULT_TOPIC"),
		ResultBucket:      get("RESULT_BUCKET"),
		UploadQueue:       get("UPLOAD_QUEUE"),
		Transport:         strings.ToLower(get("TRANSPORT")),
		RabbitMQURL:       get("RABBITMQ_URL"),
		StorageBackend:    strings.ToLower(get("STORAGE_BACKEND")),
		MinIOEndpoint:     get("MINIO_ENDPOINT"),
		MinIORootUser:     get("MINIO_ROOT_USER"),
		MinIORootPassword: get("MINIO_ROOT_PASSWORD"),
		AWSRegion:         get("AWS_REGION"),
		AWSEndpointURL:    get("AWS_ENDPOINT_URL"),
		StatusTable:       get("STATUS_TABLE"),
		DatabaseURL:       get("DATABASE_URL"),
		RedisHost:         get("REDIS_HOST"),
		RedisPort:         get("REDIS_PORT"),
		OpenSearchURL:     get("OPENSEARCH_URL"),
		OpenSearchIndex:   get("OPENSEARCH_INDEX"),
		LogLevel:          get("LOG_LEVEL"),
		LogFormat:         get("LOG_FORMAT"),
	}

	if cfg.Transport == "" {
		cfg.Transport = TransportSQS
	}
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = StorageS3
	}
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "us-east-1"
	}
	if cfg.RedisPort == "" {
		cfg.RedisPort = "6379"
	}
	if cfg.OpenSearchIndex == "" {
		cfg.OpenSearchIndex = "translations"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	if v := get("MINIO_USE_SSL"); v != "" {
		cfg.MinIOUseSSL, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("MINIO_USE_SSL must be a boolean: %w", err)
		}
	}
	cfg.TranslationCacheTTL = 24 * time.Hour
	if v := get("TRANSLATION_CACHE_TTL"); v != "" {
		cfg.TranslationCacheTTL, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("TRANSLATION_CACHE_TTL must be a duration: %w", err)
		}
	}

	switch cfg.Transport {
	case TransportSQS:
	case TransportRabbitMQ:
		if cfg.RabbitMQURL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL is required")
		}
	default:
		return nil, fmt.Errorf("unknown TRANSPORT %q", cfg.Transport)
	}

	switch cfg.StorageBackend {
	case StorageS3:
	case StorageMinIO:
		if cfg.MinIOEndpoint == "" && (stage == StageExtract || stage == StagePersist) {
			return nil, fmt.Errorf("MINIO_ENDPOINT is required")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	if err := cfg.require(stage, get("TARGET_LANG")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) require(stage Stage, targetLang string) error {
	switch stage {
	case StageExtract:
		if c.UploadQueue == "" {
			return fmt.Errorf("UPLOAD_QUEUE is required")
		}
		if c.ProjectID == "" {
			return fmt.Errorf("PROJECT_ID is required")
		}
		if c.TranslateTopic == "" {
			return fmt.Errorf("TRANSLATE_TOPIC is required")
		}
		if c.ResultTopic == "" {
			return fmt.Errorf("RESULT_TOPIC is required")
		}
		if targetLang == "" {
			return fmt.Errorf("TARGET_LANG is required")
		}
		langs, err := ParseTargetLangs(targetLang)
		if err != nil {
			return err
		}
		c.TargetLangs = langs
	case StageTranslate:
		if c.ProjectID == "" {
			return fmt.Errorf("PROJECT_ID is required")
		}
		if c.TranslateTopic == "" {
			return fmt.Errorf("TRANSLATE_TOPIC is required")
		}
		if c.ResultTopic == "" {
			return fmt.Errorf("RESULT_TOPIC is required")
		}
	case StagePersist:
		if c.ResultTopic == "" {
			return fmt.Errorf("RESULT_TOPIC is required")
		}
		if c.ResultBucket == "" {
			return fmt.Errorf("RESULT_BUCKET is required")
		}
	case StageTrigger:
		if c.UploadQueue == "" {
			return fmt.Errorf("UPLOAD_QUEUE is required")
		}
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
	return nil
}

// ParseTargetLangs turns a comma-separated TARGET_LANG value into an
// ordered list of language codes without duplicates. Codes are validated
// but kept as written, since the detection and translation services use
// legacy codes such as "tl" that canonicalization would rewrite.
func ParseTargetLangs(raw string) ([]string, error) {
	var langs []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tag, err := language.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("TARGET_LANG contains invalid language %q: %w", part, err)
		}
		if tag == language.Und {
			return nil, fmt.Errorf("TARGET_LANG cannot contain %q", part)
		}
		key := strings.ToLower(part)
		if seen[key] {
			continue
		}
		seen[key] = true
		langs = append(langs, part)
	}
	if len(langs) == 0 {
		return nil, fmt.Errorf("TARGET_LANG must name at least one language")
	}
	return langs, nil
}

func readFile(path string) (map[string]string, error) {
	values := make(map[string]string)
	if path == "" {
		return values, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	for k, v := range raw {
		values[strings.ToUpper(k)] = stringify(v)
	}
	return values, nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
