package repositories

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/translate"

	"translation-pipeline/domain"
)

// autoDetect asks Amazon Translate to detect the source language itself.
const autoDetect = "auto"

type TranslateRepository struct {
	client *translate.Client
}

func NewTranslateRepository(client *translate.Client) *TranslateRepository {
	return &TranslateRepository{client: client}
}

// Translate translates text from source to target with Amazon Translate.
// An undetermined source is left for the service to detect.
func (r *TranslateRepository) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == domain.UndeterminedLanguage {
		source = autoDetect
	}
	out, err := r.client.TranslateText(ctx, &translate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String(source),
		TargetLanguageCode: aws.String(target),
	})
	if err != nil {
		return "", fmt.Errorf("failed to translate %s to %s: %w", source, target, err)
	}
	return aws.ToString(out.TranslatedText), nil
}
