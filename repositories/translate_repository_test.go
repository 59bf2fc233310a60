package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateRepository_Translate(t *testing.T) {
	var input *translate.TranslateTextInput
	client := translate.NewFromConfig(testAWSConfig, func(o *translate.Options) {
		o.APIOptions = append(o.APIOptions, stubAWSMiddleware(func(params interface{}) (interface{}, error) {
			input = params.(*translate.TranslateTextInput)
			return &translate.TranslateTextOutput{TranslatedText: aws.String("Hello")}, nil
		}))
	})

	repo := NewTranslateRepository(client)
	got, err := repo.Translate(context.TODO(), "Hola", "es", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got)
	assert.Equal(t, "Hola", *input.Text)
	assert.Equal(t, "es", *input.SourceLanguageCode)
	assert.Equal(t, "en", *input.TargetLanguageCode)
}

func TestTranslateRepository_Translate_Error(t *testing.T) {
	sdkErr := errors.New("unsupported language pair")
	client := translate.NewFromConfig(testAWSConfig, func(o *translate.Options) {
		o.APIOptions = append(o.APIOptions, mockAWSMiddleware(nil, sdkErr))
	})

	_, err := NewTranslateRepository(client).Translate(context.TODO(), "Hola", "es", "xx")
	assert.ErrorContains(t, err, "failed to translate es to xx")
	assert.ErrorIs(t, err, sdkErr)
}

func TestTranslateRepository_Translate_UndeterminedSource(t *testing.T) {
	var input *translate.TranslateTextInput
	client := translate.NewFromConfig(testAWSConfig, func(o *translate.Options) {
		o.APIOptions = append(o.APIOptions, stubAWSMiddleware(func(params interface{}) (interface{}, error) {
			input = params.(*translate.TranslateTextInput)
			return &translate.TranslateTextOutput{TranslatedText: aws.String("Hello")}, nil
		}))
	})

	_, err := NewTranslateRepository(client).Translate(context.TODO(), "Hola", "und", "en")
	require.NoError(t, err)
	assert.Equal(t, "auto", *input.SourceLanguageCode)
}
