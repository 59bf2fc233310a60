package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"translation-pipeline/domain"
)

// ObjectReader loads object bytes for OCR when Textract cannot read the
// bucket itself.
type ObjectReader interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// TextractRepository runs OCR through Amazon Textract.
type TextractRepository struct {
	client *textract.Client
	reader ObjectReader
}

// NewTextractRepository returns an OCR adapter. With a nil reader Textract
// reads the object from S3 directly; otherwise the bytes are sent inline.
func NewTextractRepository(client *textract.Client, reader ObjectReader) *TextractRepository {
	return &TextractRepository{client: client, reader: reader}
}

// DetectText returns the text found in the object. The first annotation
// holds every line joined by newlines, followed by one annotation per
// line. An object without text yields no annotations.
func (r *TextractRepository) DetectText(ctx context.Context, ev domain.StorageEvent) ([]domain.TextAnnotation, error) {
	doc := &types.Document{}
	if r.reader != nil {
		data, err := r.reader.GetObject(ctx, ev.Bucket, ev.Name)
		if err != nil {
			return nil, err
		}
		doc.Bytes = data
	} else {
		doc.S3Object = &types.S3Object{
			Bucket: aws.String(ev.Bucket),
			Name:   aws.String(ev.Name),
		}
	}

	out, err := r.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{Document: doc})
	if err != nil {
		return nil, fmt.Errorf("failed to detect text in %s: %w", ev.URI(), err)
	}

	var lines []string
	for _, b := range out.Blocks {
		if b.BlockType == types.BlockTypeLine && b.Text != nil {
			lines = append(lines, *b.Text)
		}
	}
	if len(lines) == 0 {
		return nil, nil
	}

	annotations := make([]domain.TextAnnotation, 0, len(lines)+1)
	annotations = append(annotations, domain.TextAnnotation{Description: strings.Join(lines, "\n")})
	for _, l := range lines {
		annotations = append(annotations, domain.TextAnnotation{Description: l})
	}
	return annotations, nil
}
