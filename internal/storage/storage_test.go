package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescore/internal/config"
	"resumescore/internal/errors"
)

func TestObjectName(t *testing.T) {
	name := ObjectName("u1", "My Resume.PDF")
	assert.True(t, strings.HasPrefix(name, "users/u1/"))
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.NotEqual(t, name, ObjectName("u1", "My Resume.PDF"))

	assert.NotContains(t, ObjectName("u1", "noext"), ".")
}

func TestMinIORoundTrip(t *testing.T) {
	endpoint := os.Getenv("RESUMESCORE_TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping integration test: RESUMESCORE_TEST_MINIO_ENDPOINT not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewMinIO(ctx, config.StorageConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("RESUMESCORE_TEST_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("RESUMESCORE_TEST_MINIO_SECRET_KEY"),
		Bucket:    "resumescore-test",
	}, errors.Discard())
	require.NoError(t, err)

	object, err := store.PutDocument(ctx, "u1", "cv.txt", "text/plain", []byte("Skills\nGo"))
	require.NoError(t, err)

	data, err := store.GetDocument(ctx, object)
	require.NoError(t, err)
	assert.Equal(t, "Skills\nGo", string(data))
}
