package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"translation-pipeline/domain"
)

type MockTextDetector struct {
	mock.Mock
}

func (m *MockTextDetector) DetectText(ctx context.Context, ev domain.StorageEvent) ([]domain.TextAnnotation, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TextAnnotation), args.Error(1)
}

type MockLanguageDetector struct {
	mock.Mock
}

func (m *MockLanguageDetector) DetectLanguage(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg interface{}) (string, error) {
	args := m.Called(ctx, topic, msg)
	return args.String(0), args.Error(1)
}

type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	args := m.Called(ctx, text, source, target)
	return args.String(0), args.Error(1)
}

type MockTranslationCache struct {
	mock.Mock
}

func (m *MockTranslationCache) Get(ctx context.Context, source, target, text string) (string, bool, error) {
	args := m.Called(ctx, source, target, text)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockTranslationCache) Set(ctx context.Context, source, target, text, translated string) error {
	return m.Called(ctx, source, target, text, translated).Error(0)
}

type MockObjectWriter struct {
	mock.Mock
}

func (m *MockObjectWriter) PutObject(ctx context.Context, bucket, key string, content []byte, contentType string) error {
	return m.Called(ctx, bucket, key, content, contentType).Error(0)
}

type MockStatusRecorder struct {
	mock.Mock
}

func (m *MockStatusRecorder) UpdateJobStatus(ctx context.Context, filename string, status string) error {
	return m.Called(ctx, filename, status).Error(0)
}

type MockResultRecorder struct {
	mock.Mock
}

func (m *MockResultRecorder) RecordResult(ctx context.Context, rec domain.ResultRecord) error {
	return m.Called(ctx, rec).Error(0)
}

type MockResultIndexer struct {
	mock.Mock
}

func (m *MockResultIndexer) IndexResult(ctx context.Context, rec domain.ResultRecord) error {
	return m.Called(ctx, rec).Error(0)
}

// envelope wraps payload the way the transport delivers it.
func envelope(t *testing.T, payload interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]string{"data": base64.StdEncoding.EncodeToString(raw)})
	require.NoError(t, err)
	return body
}
