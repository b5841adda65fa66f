package filestorage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/config"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorage(t *testing.T, cdn string) *MinioStorage {
	t.Helper()
	cfg := &config.Config{
		AWSAccessKey:          "access",
		AWSSecretKey:          "secret",
		AWSEndpoint:           "minio.local:9000",
		AWSBucketName:         "coursehub",
		UploadURLTTLMinutes:   15,
		PlaybackURLTTLMinutes: 60,
	}
	if cdn != "" {
		u, err := url.Parse(cdn)
		require.NoError(t, err)
		cfg.MediaCDNURL = u
	}
	s, err := newStorage(cfg)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestVideoKey(t *testing.T) {
	blockID, _ := uuid.NewV4()
	key := VideoKey(blockID)
	assert.True(t, strings.HasPrefix(key, "videos/"+blockID.String()+"/"))
	assert.NotEqual(t, key, VideoKey(blockID), "every upload gets a fresh key")

	got, ok := BlockIdFromKey(key)
	assert.True(t, ok)
	assert.Equal(t, blockID, got)

	for _, bad := range []string{"", "videos/", "videos/not-a-uuid/x", "unknown/" + blockID.String() + "/x"} {
		_, ok := BlockIdFromKey(bad)
		assert.False(t, ok, bad)
	}
}

func TestGetUploadDestination(t *testing.T) {
	s := testStorage(t, "")
	blockID, _ := uuid.NewV4()

	dest, err := s.GetUploadDestination(context.Background(), blockID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(dest.Ref, "videos/"+blockID.String()+"/"))
	assert.Equal(t, time.Date(2024, 1, 1, 12, 15, 0, 0, time.UTC), dest.ExpiresAt)

	u, err := url.Parse(dest.WriteURL)
	require.NoError(t, err)
	assert.Equal(t, "minio.local:9000", u.Host)
	assert.Equal(t, "/coursehub/"+dest.Ref, u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestResolvePlaybackURL(t *testing.T) {
	ref := "videos/5f0e3c1a-0000-4000-8000-000000000001/clip"

	t.Run("presigned", func(t *testing.T) {
		s := testStorage(t, "")
		got, err := s.ResolvePlaybackURL(context.Background(), ref)
		require.NoError(t, err)

		u, err := url.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, "/coursehub/"+ref, u.Path)
		assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	})

	t.Run("cdn", func(t *testing.T) {
		s := testStorage(t, "https://cdn.example.com/media/")
		got, err := s.ResolvePlaybackURL(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/media/"+ref, got)
	})
}

func TestMetadataMap(t *testing.T) {
	assert.Equal(t, map[string]string{"blockId": "b", "userId": "u"}, Metadata{BlockId: "b", UserId: "u"}.GetMap())
	assert.Empty(t, Metadata{}.GetMap())
}
