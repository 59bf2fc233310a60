package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/opensearch-project/opensearch-go/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"translation-pipeline/config"
	"translation-pipeline/domain"
	"translation-pipeline/logging"
	"translation-pipeline/repositories"
	"translation-pipeline/services"
)

// transport is what every stage needs from the message broker.
type transport interface {
	services.Publisher
	services.Subscriber
	SendEvent(ctx context.Context, queue string, ev domain.StorageEvent) error
}

// objectStore reads OCR input and writes results.
type objectStore interface {
	services.ObjectWriter
	repositories.ObjectReader
}

type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	aws     aws.Config
	closers []func() error
}

func newApp(ctx context.Context, stage config.Stage, configPath string) (*app, error) {
	cfg, err := config.Load(stage, configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	if cfg.AWSEndpointURL != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
	}

	return &app{cfg: cfg, logger: logger.With("stage", string(stage)), aws: awsCfg}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", "error", err)
		}
	}
}

func (a *app) transport() (transport, error) {
	switch a.cfg.Transport {
	case config.TransportRabbitMQ:
		client, err := repositories.DialRabbitMQ(a.cfg.RabbitMQURL, a.cfg.ProjectID, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return client, nil
	default:
		return repositories.NewSQSClient(sqs.NewFromConfig(a.aws), a.cfg.ProjectID), nil
	}
}

func (a *app) objectStore() (objectStore, error) {
	switch a.cfg.StorageBackend {
	case config.StorageMinIO:
		client, err := repositories.InitMinIOClient(a.cfg.MinIOEndpoint, a.cfg.MinIORootUser, a.cfg.MinIORootPassword, a.cfg.MinIOUseSSL)
		if err != nil {
			return nil, err
		}
		return repositories.NewMinIORepository(client), nil
	default:
		return repositories.NewS3Repository(a.aws), nil
	}
}

// options assembles the optional collaborators enabled by configuration.
func (a *app) options(stage config.Stage) ([]services.Option, error) {
	opts := []services.Option{
		services.WithLogger(a.logger),
		services.WithStatusRecorder(repositories.NewDynamoDBClient(dynamodb.NewFromConfig(a.aws), a.cfg.StatusTable)),
	}

	if stage == config.StageTranslate && a.cfg.RedisHost != "" {
		cache := repositories.NewRedisCache(a.cfg.RedisHost, a.cfg.RedisPort, a.cfg.TranslationCacheTTL)
		a.closers = append(a.closers, cache.Close)
		opts = append(opts, services.WithTranslationCache(cache))
	}

	if stage == config.StagePersist && a.cfg.DatabaseURL != "" {
		db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to db: %w", err)
		}
		repo := repositories.NewDBRepository(db)
		if err := repo.Migrate(); err != nil {
			return nil, err
		}
		opts = append(opts, services.WithResultRecorder(repo))
	}

	if stage == config.StagePersist && a.cfg.OpenSearchURL != "" {
		client, err := opensearch.NewClient(opensearch.Config{Addresses: []string{a.cfg.OpenSearchURL}})
		if err != nil {
			return nil, fmt.Errorf("failed to create opensearch client: %w", err)
		}
		opts = append(opts, services.WithResultIndexer(repositories.NewOpenSearchRepository(client, a.cfg.OpenSearchIndex)))
	}

	return opts, nil
}
