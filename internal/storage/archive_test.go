package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpacesArchiver_UploadArchive(t *testing.T) {
	fake := newFakeS3()
	archiver := NewSpacesArchiverWithClient(fake, "bucket", "/archives/")

	key, err := archiver.UploadArchive(context.Background(), "activity/2026-01-01.jsonl", []byte("{}\n{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "archives/activity/2026-01-01.jsonl", key)
	assert.Equal(t, "{}\n{}\n", string(fake.objects[key]))
	assert.Equal(t, "application/x-ndjson", fake.types[key])

	_, err = archiver.UploadArchive(context.Background(), "../escape", []byte("{}"))
	assert.Error(t, err)
}

func TestNewSpacesArchiver_RequiresBucket(t *testing.T) {
	_, err := NewSpacesArchiver(SpacesConfig{})
	assert.Error(t, err)
}
