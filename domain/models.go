package domain

import (
	"fmt"
	"strings"
	"time"
)

// StorageEvent references an object that was just created in a bucket.
type StorageEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// URI returns the s3:// style location of the object, used in logs.
func (e StorageEvent) URI() string {
	return fmt.Sprintf("s3://%s/%s", e.Bucket, e.Name)
}

// TextAnnotation is one block of text found by OCR. The first annotation
// of a detection holds the whole text of the document.
type TextAnnotation struct {
	Description string
}

// ExtractedMessage is emitted by the extractor for every object that
// contains text.
type ExtractedMessage struct {
	Text        string   `json:"text"`
	Filename    string   `json:"filename"`
	TargetLangs []string `json:"lang"`
	SourceLang  string   `json:"src_lang"`
}

// TranslatedMessage is emitted by the translator and consumed by the
// persister. A bypassed ExtractedMessage decodes into the same shape.
type TranslatedMessage struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// ResultRecord describes an artifact written by the persister.
type ResultRecord struct {
	Filename  string
	Bucket    string
	Key       string
	Text      string
	LineCount int
	SavedAt   time.Time
}

// Delivery is a message handed to a worker by the transport.
type Delivery struct {
	ID            string
	Body          []byte
	ReceiptHandle string
	Tag           uint64
}

// ResultKey derives the object key under which the translated text of
// filename is stored.
func ResultKey(filename string) string {
	return filename + ResultKeySuffix
}

// CountLines returns the number of newline-terminated lines in text.
func CountLines(text string) int {
	n := strings.Count(text, "\n")
	if text != "" && !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
