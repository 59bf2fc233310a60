package services

import (
	"context"

	"translation-pipeline/domain"
)

type ObjectWriter interface {
	PutObject(ctx context.Context, bucket, key string, content []byte, contentType string) error
}

// PersisterService writes the final text of each file to the result
// bucket. It is the last stage and publishes nothing.
type PersisterService struct {
	options
	writer ObjectWriter
	bucket string
}

func NewPersisterService(writer ObjectWriter, bucket string, opts ...Option) *PersisterService {
	return &PersisterService{
		options: newOptions(opts),
		writer:  writer,
		bucket:  bucket,
	}
}

func (s *PersisterService) ProcessMessage(ctx context.Context, body []byte) error {
	msg, err := domain.DecodeTranslated(body)
	if err != nil {
		return err
	}
	return s.Persist(ctx, msg)
}

// Persist writes msg.Text under the result key of msg.Filename, replacing
// any earlier result for the same file.
func (s *PersisterService) Persist(ctx context.Context, msg domain.TranslatedMessage) error {
	key := domain.ResultKey(msg.Filename)
	if err := s.writer.PutObject(ctx, s.bucket, key, []byte(msg.Text), domain.ResultContentType); err != nil {
		return err
	}
	s.logger.Info("saved translation", "filename", msg.Filename, "bucket", s.bucket, "key", key)

	rec := domain.ResultRecord{
		Filename:  msg.Filename,
		Bucket:    s.bucket,
		Key:       key,
		Text:      msg.Text,
		LineCount: domain.CountLines(msg.Text),
		SavedAt:   s.now().UTC(),
	}
	if s.recorder != nil {
		if err := s.recorder.RecordResult(ctx, rec); err != nil {
			return err
		}
	}
	if s.indexer != nil {
		if err := s.indexer.IndexResult(ctx, rec); err != nil {
			return err
		}
	}

	s.recordStatus(ctx, msg.Filename, domain.StatusCompleted)
	return nil
}
