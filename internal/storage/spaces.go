// Package storage serves fixture documents from DigitalOcean Spaces so the
// backend and web builds can share one hosted fixture set, and keeps
// archives of pruned activity there.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/tidwall/gjson"

	"github.com/birbparty/birb-academy/sdk"
)

// SpacesConfig contains configuration for Digital Ocean Spaces
type SpacesConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// DefaultFixtureNames are the documents bundled with the SDK.
var DefaultFixtureNames = []string{"courses", "users", "enrollments", "conversations", "subscriptions", sdk.ErrorFixture}

// SpacesFixtureLoader implements sdk.FixtureLoader over a Spaces bucket.
// Fixture <name> is stored at <prefix>/<name>.json.
type SpacesFixtureLoader struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewSpacesFixtureLoader creates a loader for Digital Ocean Spaces
func NewSpacesFixtureLoader(config SpacesConfig) (*SpacesFixtureLoader, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("spaces bucket is required")
	}

	client, err := newS3Client(config)
	if err != nil {
		return nil, err
	}
	return NewSpacesFixtureLoaderWithClient(client, config.Bucket, config.Prefix), nil
}

func newS3Client(config SpacesConfig) (s3iface.S3API, error) {
	sess, err := session.NewSession(&aws.Config{
		Endpoint:    aws.String(config.Endpoint), // e.g., "nyc3.digitaloceanspaces.com"
		Region:      aws.String(config.Region),
		Credentials: credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s3.New(sess), nil
}

// NewSpacesFixtureLoaderWithClient wraps an existing S3 client.
func NewSpacesFixtureLoaderWithClient(client s3iface.S3API, bucket, prefix string) *SpacesFixtureLoader {
	return &SpacesFixtureLoader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (l *SpacesFixtureLoader) key(name string) string {
	return path.Join(l.prefix, name+".json")
}

// Load implements sdk.FixtureLoader.
func (l *SpacesFixtureLoader) Load(ctx context.Context, name string) ([]byte, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return nil, &sdk.FixtureError{Name: name, Err: sdk.ErrFixtureNotFound}
	}

	out, err := l.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.key(name)),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, &sdk.FixtureError{Name: name, Err: sdk.ErrFixtureNotFound}
		}
		return nil, &sdk.FixtureError{Name: name, Err: &sdk.NetworkError{Op: "spaces get " + l.key(name), Err: err}}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &sdk.FixtureError{Name: name, Err: &sdk.NetworkError{Op: "reading fixture", Err: err}}
	}
	if !gjson.ValidBytes(data) {
		return nil, &sdk.FixtureError{Name: name, Err: fmt.Errorf("%w: not a JSON document", sdk.ErrInvalidResponse)}
	}
	return data, nil
}

// Upload stores a fixture document.
func (l *SpacesFixtureLoader) Upload(ctx context.Context, name string, data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("fixture %s is not a JSON document", name)
	}

	_, err := l.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(l.bucket),
		Key:          aws.String(l.key(name)),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("no-cache"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload fixture %s: %w", name, err)
	}
	return nil
}

// List returns the fixture names stored under the prefix.
func (l *SpacesFixtureLoader) List(ctx context.Context) ([]string, error) {
	prefix := l.prefix
	if prefix != "" {
		prefix += "/"
	}

	var names []string
	err := l.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(l.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			rest := strings.TrimPrefix(aws.StringValue(obj.Key), prefix)
			if strings.Contains(rest, "/") || !strings.HasSuffix(rest, ".json") {
				continue
			}
			names = append(names, strings.TrimSuffix(rest, ".json"))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures: %w", err)
	}
	return names, nil
}

// Sync copies the named fixtures from src into the bucket.
func (l *SpacesFixtureLoader) Sync(ctx context.Context, src sdk.FixtureLoader, names ...string) error {
	for _, name := range names {
		data, err := src.Load(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to read fixture %s: %w", name, err)
		}
		if err := l.Upload(ctx, name, data); err != nil {
			return err
		}
	}
	return nil
}
