package services

import (
	"context"
	"fmt"
	"strings"

	"translation-pipeline/domain"
)

type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// TranslatorService translates extracted text into every target language
// and forwards the combined result to the result topic.
type TranslatorService struct {
	options
	translator  Translator
	publisher   Publisher
	resultTopic string
}

func NewTranslatorService(translator Translator, publisher Publisher, resultTopic string, opts ...Option) *TranslatorService {
	return &TranslatorService{
		options:     newOptions(opts),
		translator:  translator,
		publisher:   publisher,
		resultTopic: resultTopic,
	}
}

func (s *TranslatorService) ProcessMessage(ctx context.Context, body []byte) error {
	msg, err := domain.DecodeExtracted(body)
	if err != nil {
		return err
	}

	text, err := s.TranslateAll(ctx, msg)
	if err != nil {
		return err
	}

	out := domain.TranslatedMessage{Text: text, Filename: msg.Filename}
	id, err := s.publisher.Publish(ctx, s.resultTopic, out)
	if err != nil {
		return fmt.Errorf("failed to publish translation of %s: %w", msg.Filename, err)
	}
	s.logger.Info("published translation",
		"filename", msg.Filename, "topic", s.resultTopic, "message_id", id, "languages", len(msg.TargetLangs))

	s.recordStatus(ctx, msg.Filename, domain.StatusTranslated)
	return nil
}

// TranslateAll renders one "<lang>: <text>" line per target language, in
// target order, each terminated by a newline. Languages are translated one
// after the other.
func (s *TranslatorService) TranslateAll(ctx context.Context, msg domain.ExtractedMessage) (string, error) {
	var b strings.Builder
	for _, target := range msg.TargetLangs {
		result, err := s.translate(ctx, msg.Text, msg.SourceLang, target)
		if err != nil {
			return "", err
		}
		b.WriteString(target)
		b.WriteString(": ")
		b.WriteString(result)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (s *TranslatorService) translate(ctx context.Context, text, source, target string) (string, error) {
	if target == source {
		return strings.ReplaceAll(text, "\n", " "), nil
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, source, target, text)
		if err != nil {
			s.logger.Warn("translation cache lookup failed", "src_lang", source, "lang", target, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	s.logger.Debug("translating", "src_lang", source, "lang", target)
	result, err := s.translator.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, source, target, text, result); err != nil {
			s.logger.Warn("translation cache store failed", "src_lang", source, "lang", target, "error", err)
		}
	}
	return result, nil
}
