package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"translation-pipeline/domain"
)

var scan = domain.StorageEvent{Bucket: "uploads", Name: "doc1"}

func newExtractor(targets []string, opts ...Option) (*ExtractorService, *MockTextDetector, *MockLanguageDetector, *MockPublisher) {
	ocr := new(MockTextDetector)
	lang := new(MockLanguageDetector)
	pub := new(MockPublisher)
	srv := NewExtractorService(ocr, lang, pub, "translate-topic", "result-topic", targets, opts...)
	return srv, ocr, lang, pub
}

func TestBypassesTranslation(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		targets []string
		want    bool
	}{
		{"single target equals source", "en", []string{"en"}, true},
		{"single target differs", "es", []string{"en"}, false},
		{"undetermined single", "und", []string{"en"}, true},
		{"undetermined multi", "und", []string{"en", "fr"}, true},
		// documented behaviour: several targets never bypass on a source match
		{"multi all equal source", "en", []string{"en", "en"}, false},
		{"multi containing source", "en", []string{"en", "fr"}, false},
		{"multi without source", "es", []string{"en", "fr"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BypassesTranslation(tt.src, tt.targets))
		})
	}
}

func TestExtract_ScenarioA_UndeterminedBypasses(t *testing.T) {
	srv, ocr, lang, pub := newExtractor([]string{"en", "fr"})

	ocr.On("DetectText", mock.Anything, scan).Return([]domain.TextAnnotation{{Description: "1234"}, {Description: "1234"}}, nil)
	lang.On("DetectLanguage", mock.Anything, "1234").Return("und", nil)
	pub.On("Publish", mock.Anything, "result-topic", domain.ExtractedMessage{
		Text:        "1234",
		Filename:    "doc1",
		TargetLangs: []string{"en", "fr"},
		SourceLang:  "und",
	}).Return("m1", nil)

	err := srv.Extract(context.Background(), scan)
	assert.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestExtract_ScenarioB_SingleTargetMatchBypasses(t *testing.T) {
	srv, ocr, lang, pub := newExtractor([]string{"en"})

	ocr.On("DetectText", mock.Anything, scan).Return([]domain.TextAnnotation{{Description: "Hello"}}, nil)
	lang.On("DetectLanguage", mock.Anything, "Hello").Return("en", nil)
	pub.On("Publish", mock.Anything, "result-topic", mock.Anything).Return("m1", nil)

	assert.NoError(t, srv.Extract(context.Background(), scan))
	pub.AssertExpectations(t)
	pub.AssertNotCalled(t, "Publish", mock.Anything, "translate-topic", mock.Anything)
}

func TestExtract_MultiTargetNeverBypassesOnSourceMatch(t *testing.T) {
	srv, ocr, lang, pub := newExtractor([]string{"en", "en"})

	ocr.On("DetectText", mock.Anything, scan).Return([]domain.TextAnnotation{{Description: "Hello"}}, nil)
	lang.On("DetectLanguage", mock.Anything, "Hello").Return("en", nil)
	pub.On("Publish", mock.Anything, "translate-topic", mock.Anything).Return("m1", nil)

	assert.NoError(t, srv.Extract(context.Background(), scan))
	pub.AssertExpectations(t)
}

func TestExtract_SingleTargetDifferentSourceTranslates(t *testing.T) {
	srv, ocr, lang, pub := newExtractor([]string{"en"})

	ocr.On("DetectText", mock.Anything, scan).Return([]domain.TextAnnotation{{Description: "Hola"}}, nil)
	lang.On("DetectLanguage", mock.Anything, "Hola").Return("es", nil)
	pub.On("Publish", mock.Anything, "translate-topic", mock.MatchedBy(func(m domain.ExtractedMessage) bool {
		return m.SourceLang == "es" && m.Filename == "doc1"
	})).Return("m1", nil)

	assert.NoError(t, srv.Extract(context.Background(), scan))
	pub.AssertExpectations(t)
}

func TestExtract_StripsLeadingWhitespace(t *testing.T) {
	srv, ocr, lang, pub := newExtractor([]string{"fr"})

	ocr.On("DetectText", mock.Anything, scan).Return([]domain.TextAnnotation{{Description: " \n\tHello\nWorld\n"}}, nil)
	lang.On("DetectLanguage", mock.Anything, "Hello\nWorld\n").Return("en", nil)
	pub.On("Publish", mock.Anything, "translate-topic", mock.MatchedBy(func(m domain.ExtractedMessage) bool {
		return m.Text == "Hello\nWorld\n"
	})).Return("m1", nil)

	assert.NoError(t, srv.Extract(context.Background(), scan))
	lang.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestExtract_ScenarioD_NoText(t *testing.T) {
	status := new(MockStatusRecorder)
	srv, ocr, lang, pub := newExtractor([]string{"en"}, WithStatusRecorder(status))

	ocr.On("DetectText", mock.Anything, scan).Return(nil, nil)
	status.On("UpdateJobStatus", mock.Anything, "doc1", domain.StatusNoText).Return(nil)

	err := srv.Extract(context.Background(), scan)
	assert.NoError(t, err)
	lang.AssertNotCalled(t, "DetectLanguage", mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	status.AssertExpectations(t)
}

func TestExtract_WhitespaceOnlyIsNoText(t *testing.T) {
	srv, ocr, lang, pub := newExtractor([]string{"en"})

	ocr.On("DetectText", mock.Anything, scan).Return([]domain.TextAnnotation{{Description: "  \n "}}, nil)

	assert.NoError(t, srv.Extract(context.Background(), scan))
	lang.AssertNotCalled(t, "DetectLanguage", mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtract_AdapterFailures(t *testing.T) {
	ocrErr := errors.New("ocr quota exceeded")
	srv, ocr, _, _ := newExtractor([]string{"en"})
	ocr.On("DetectText", mock.Anything, scan).Return(nil, ocrErr)
	assert.ErrorIs(t, srv.Extract(context.Background(), scan), ocrErr)

	langErr := errors.New("detection failed")
	srv, ocr, lang, _ := newExtractor([]string{"en"})
	ocr.On("DetectText", mock.Anything, scan).Return([]domain.TextAnnotation{{Description: "Hi"}}, nil)
	lang.On("DetectLanguage", mock.Anything, "Hi").Return("", langErr)
	assert.ErrorIs(t, srv.Extract(context.Background(), scan), langErr)
}

func TestExtract_PublishFailureIsFatal(t *testing.T) {
	status := new(MockStatusRecorder)
	srv, ocr, lang, pub := newExtractor([]string{"fr"}, WithStatusRecorder(status))

	pubErr := errors.New("transport down")
	ocr.On("DetectText", mock.Anything, scan).Return([]domain.TextAnnotation{{Description: "Hello"}}, nil)
	lang.On("DetectLanguage", mock.Anything, "Hello").Return("en", nil)
	pub.On("Publish", mock.Anything, "translate-topic", mock.Anything).Return("", pubErr)

	err := srv.Extract(context.Background(), scan)
	assert.ErrorIs(t, err, pubErr)
	status.AssertNotCalled(t, "UpdateJobStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtract_StatusFailureIsNotFatal(t *testing.T) {
	status := new(MockStatusRecorder)
	srv, ocr, lang, pub := newExtractor([]string{"fr"}, WithStatusRecorder(status))

	ocr.On("DetectText", mock.Anything, scan).Return([]domain.TextAnnotation{{Description: "Hello"}}, nil)
	lang.On("DetectLanguage", mock.Anything, "Hello").Return("en", nil)
	pub.On("Publish", mock.Anything, "translate-topic", mock.Anything).Return("m1", nil)
	status.On("UpdateJobStatus", mock.Anything, "doc1", domain.StatusExtracted).Return(errors.New("dynamo down"))

	assert.NoError(t, srv.Extract(context.Background(), scan))
	status.AssertExpectations(t)
}

func TestExtractorProcessMessage(t *testing.T) {
	srv, ocr, lang, pub := newExtractor([]string{"en"})

	a := domain.StorageEvent{Bucket: "uploads", Name: "a.png"}
	b := domain.StorageEvent{Bucket: "uploads", Name: "b.png"}
	ocr.On("DetectText", mock.Anything, a).Return([]domain.TextAnnotation{{Description: "Hello"}}, nil)
	ocr.On("DetectText", mock.Anything, b).Return(nil, nil)
	lang.On("DetectLanguage", mock.Anything, "Hello").Return("en", nil)
	pub.On("Publish", mock.Anything, "result-topic", mock.Anything).Return("m1", nil).Once()

	body := `{"Records":[
		{"s3":{"bucket":{"name":"uploads"},"object":{"key":"a.png"}}},
		{"s3":{"bucket":{"name":"uploads"},"object":{"key":"b.png"}}}
	]}`
	assert.NoError(t, srv.ProcessMessage(context.Background(), []byte(body)))
	ocr.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestExtractorProcessMessage_Validation(t *testing.T) {
	srv, ocr, _, _ := newExtractor([]string{"en"})

	err := srv.ProcessMessage(context.Background(), []byte(`{"name":"scan.png"}`))
	var missing *domain.MissingFieldError
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, "bucket", missing.Field)

	assert.NoError(t, srv.ProcessMessage(context.Background(), []byte(`{"Event":"s3:TestEvent"}`)))
	ocr.AssertNotCalled(t, "DetectText", mock.Anything, mock.Anything)
}

func TestExtract_MissingEventFields(t *testing.T) {
	srv, _, _, _ := newExtractor([]string{"en"})

	err := srv.Extract(context.Background(), domain.StorageEvent{Bucket: "uploads"})
	var missing *domain.MissingFieldError
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, "name", missing.Field)
}
