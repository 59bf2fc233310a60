package repositories

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3Repository(fn func(params interface{}) (interface{}, error)) *S3Repository {
	return &S3Repository{
		client: s3.NewFromConfig(testAWSConfig, func(o *s3.Options) {
			o.UsePathStyle = true
			o.APIOptions = append(o.APIOptions, stubAWSMiddleware(fn))
		}),
	}
}

func TestNewS3Repository(t *testing.T) {
	assert.NotNil(t, NewS3Repository(testAWSConfig))
}

func TestS3Repository_PutObject(t *testing.T) {
	var put *s3.PutObjectInput
	repo := newTestS3Repository(func(params interface{}) (interface{}, error) {
		put = params.(*s3.PutObjectInput)
		return &s3.PutObjectOutput{}, nil
	})

	err := repo.PutObject(context.TODO(), "results", "doc1_translated.txt", []byte("en: Hello\n"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "results", *put.Bucket)
	assert.Equal(t, "doc1_translated.txt", *put.Key)
	assert.Equal(t, "text/plain; charset=utf-8", *put.ContentType)
	body, err := io.ReadAll(put.Body)
	require.NoError(t, err)
	assert.Equal(t, "en: Hello\n", string(body))
}

func TestS3Repository_PutObject_Error(t *testing.T) {
	repo := newTestS3Repository(func(interface{}) (interface{}, error) {
		return nil, errors.New("access denied")
	})

	err := repo.PutObject(context.TODO(), "results", "doc1_translated.txt", []byte("x"), "text/plain")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write s3://results/doc1_translated.txt")
}

func TestS3Repository_GetObject(t *testing.T) {
	repo := newTestS3Repository(func(params interface{}) (interface{}, error) {
		in := params.(*s3.GetObjectInput)
		assert.Equal(t, "scan.png", *in.Key)
		return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("image-bytes"))}, nil
	})

	data, err := repo.GetObject(context.TODO(), "uploads", "scan.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)

	repoErr := newTestS3Repository(func(interface{}) (interface{}, error) {
		return nil, errors.New("no such key")
	})
	_, err = repoErr.GetObject(context.TODO(), "uploads", "scan.png")
	assert.ErrorContains(t, err, "no such key")
}
