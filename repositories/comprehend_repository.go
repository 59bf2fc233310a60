package repositories

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"

	"translation-pipeline/domain"
)

// comprehendMaxBytes is the largest document DetectDominantLanguage accepts.
const comprehendMaxBytes = 100 * 1024

type ComprehendRepository struct {
	client *comprehend.Client
}

func NewComprehendRepository(client *comprehend.Client) *ComprehendRepository {
	return &ComprehendRepository{client: client}
}

// DetectLanguage returns the dominant language code of text, or "und"
// when none is reported.
func (r *ComprehendRepository) DetectLanguage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return domain.UndeterminedLanguage, nil
	}

	out, err := r.client.DetectDominantLanguage(ctx, &comprehend.DetectDominantLanguageInput{
		Text: aws.String(truncateUTF8(text, comprehendMaxBytes)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to detect language: %w", err)
	}

	best := domain.UndeterminedLanguage
	var bestScore float32 = -1
	for _, l := range out.Languages {
		if l.LanguageCode == nil || *l.LanguageCode == "" {
			continue
		}
		score := aws.ToFloat32(l.Score)
		if score > bestScore {
			best, bestScore = *l.LanguageCode, score
		}
	}
	return best, nil
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
