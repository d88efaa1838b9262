package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// SpacesArchiver uploads archive objects under <prefix>/<name>.
type SpacesArchiver struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewSpacesArchiver creates an archiver for Digital Ocean Spaces
func NewSpacesArchiver(config SpacesConfig) (*SpacesArchiver, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("spaces bucket is required")
	}
	client, err := newS3Client(config)
	if err != nil {
		return nil, err
	}
	return NewSpacesArchiverWithClient(client, config.Bucket, config.Prefix), nil
}

// NewSpacesArchiverWithClient wraps an existing S3 client.
func NewSpacesArchiverWithClient(client s3iface.S3API, bucket, prefix string) *SpacesArchiver {
	return &SpacesArchiver{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// UploadArchive stores data as newline-delimited JSON and returns its key.
func (a *SpacesArchiver) UploadArchive(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid archive name %q", name)
	}
	key := path.Join(a.prefix, name)

	_, err := a.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/x-ndjson"),
		ACL:         aws.String("private"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive %s: %w", key, err)
	}
	return key, nil
}
