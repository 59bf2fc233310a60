package services

import (
	"context"
	"log/slog"
	"time"

	"translation-pipeline/domain"
)

// Consumer-side interfaces shared by the stages
type Publisher interface {
	Publish(ctx context.Context, topic string, msg interface{}) (string, error)
}

type StatusRecorder interface {
	UpdateJobStatus(ctx context.Context, filename string, status string) error
}

type ResultRecorder interface {
	RecordResult(ctx context.Context, rec domain.ResultRecord) error
}

type ResultIndexer interface {
	IndexResult(ctx context.Context, rec domain.ResultRecord) error
}

type TranslationCache interface {
	Get(ctx context.Context, source, target, text string) (string, bool, error)
	Set(ctx context.Context, source, target, text, translated string) error
}

// Functional Options Pattern. Every stage accepts the same options and
// ignores the ones it has no use for.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	status     StatusRecorder
	cache      TranslationCache
	recorder   ResultRecorder
	indexer    ResultIndexer
	retryDelay time.Duration
	now        func() time.Time
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithStatusRecorder(r StatusRecorder) Option {
	return func(o *options) { o.status = r }
}

func WithTranslationCache(c TranslationCache) Option {
	return func(o *options) { o.cache = c }
}

func WithResultRecorder(r ResultRecorder) Option {
	return func(o *options) { o.recorder = r }
}

func WithResultIndexer(i ResultIndexer) Option {
	return func(o *options) { o.indexer = i }
}

// WithRetryDelay sets how long a worker waits after a failed receive.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) { o.retryDelay = d }
}

func newOptions(opts []Option) options {
	o := options{
		logger:     slog.Default(),
		retryDelay: 2 * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// recordStatus syncs the job status when a recorder is configured. The
// status is informational, so failures are only logged.
func (o options) recordStatus(ctx context.Context, filename, status string) {
	if o.status == nil {
		return
	}
	if err := o.status.UpdateJobStatus(ctx, filename, status); err != nil {
		o.logger.Warn("failed to sync job status", "filename", filename, "status", status, "error", err)
	}
}
