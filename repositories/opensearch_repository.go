package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"translation-pipeline/domain"
)

// OpenSearchRepository makes persisted translations searchable.
type OpenSearchRepository struct {
	client *opensearch.Client
	index  string
}

func NewOpenSearchRepository(client *opensearch.Client, index string) *OpenSearchRepository {
	return &OpenSearchRepository{client: client, index: index}
}

// IndexResult indexes rec under its filename, replacing any earlier
// document for the same file.
func (r *OpenSearchRepository) IndexResult(ctx context.Context, rec domain.ResultRecord) error {
	document := map[string]interface{}{
		"filename":   rec.Filename,
		"bucket":     rec.Bucket,
		"key":        rec.Key,
		"content":    rec.Text,
		"line_count": rec.LineCount,
		"saved_at":   rec.SavedAt.UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index:      r.index,
		DocumentID: rec.Filename,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("failed to execute index request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document %s: %s", rec.Filename, res.String())
	}

	return nil
}
