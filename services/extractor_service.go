package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"translation-pipeline/domain"
)

type TextDetector interface {
	DetectText(ctx context.Context, ev domain.StorageEvent) ([]domain.TextAnnotation, error)
}

type LanguageDetector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// ExtractorService OCRs newly uploaded objects and routes the text either
// to translation or straight to persistence.
type ExtractorService struct {
	options
	detector       TextDetector
	languages      LanguageDetector
	publisher      Publisher
	translateTopic string
	resultTopic    string
	targetLangs    []string
}

func NewExtractorService(
	detector TextDetector,
	languages LanguageDetector,
	publisher Publisher,
	translateTopic string,
	resultTopic string,
	targetLangs []string,
	opts ...Option,
) *ExtractorService {
	return &ExtractorService{
		options:        newOptions(opts),
		detector:       detector,
		languages:      languages,
		publisher:      publisher,
		translateTopic: translateTopic,
		resultTopic:    resultTopic,
		targetLangs:    append([]string(nil), targetLangs...),
	}
}

// ProcessMessage handles one storage notification, which may reference
// several objects.
func (s *ExtractorService) ProcessMessage(ctx context.Context, body []byte) error {
	events, err := domain.DecodeStorageEvents(body)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		s.logger.Info("ignoring storage test notification")
		return nil
	}
	for _, ev := range events {
		if err := s.Extract(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// Extract OCRs a single object and publishes an ExtractedMessage for it.
// An object without text produces no message.
func (s *ExtractorService) Extract(ctx context.Context, ev domain.StorageEvent) error {
	if ev.Bucket == "" {
		return &domain.MissingFieldError{Field: domain.FieldBucket}
	}
	if ev.Name == "" {
		return &domain.MissingFieldError{Field: domain.FieldName}
	}
	s.logger.Info("looking for text in image", "object", ev.URI())

	annotations, err := s.detector.DetectText(ctx, ev)
	if err != nil {
		return err
	}
	var text string
	if len(annotations) > 0 {
		text = strings.TrimLeftFunc(annotations[0].Description, unicode.IsSpace)
	}
	if text == "" {
		s.logger.Info("no text detected", "filename", ev.Name)
		s.recordStatus(ctx, ev.Name, domain.StatusNoText)
		return nil
	}

	src, err := s.languages.DetectLanguage(ctx, text)
	if err != nil {
		return err
	}

	msg := domain.ExtractedMessage{
		Text:        text,
		Filename:    ev.Name,
		TargetLangs: s.targetLangs,
		SourceLang:  src,
	}
	topic := s.translateTopic
	if BypassesTranslation(src, s.targetLangs) {
		topic = s.resultTopic
	}

	id, err := s.publisher.Publish(ctx, topic, msg)
	if err != nil {
		return fmt.Errorf("failed to publish extracted text of %s: %w", ev.Name, err)
	}
	s.logger.Info("published extracted text",
		"filename", ev.Name, "src_lang", src, "topic", topic, "message_id", id)

	s.recordStatus(ctx, ev.Name, domain.StatusExtracted)
	return nil
}

// BypassesTranslation reports whether text in src can go straight to the
// result topic. Only a single configured target equal to the source skips
// translation; with several targets the translator skips per language, so
// the message is routed there even when every target equals the source.
// Undetermined text is never translated.
func BypassesTranslation(src string, targetLangs []string) bool {
	if src == domain.UndeterminedLanguage {
		return true
	}
	return len(targetLangs) == 1 && src == targetLangs[0]
}
