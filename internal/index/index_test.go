package index

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoir/internal/model"
	"memoir/internal/storage"
)

func record(id string, takenAt time.Time) model.PhotoRecord {
	return model.PhotoRecord{
		ID:            id,
		Filename:      id + ".jpg",
		OriginalBlob:  "2025-q1/originals/" + id + ".jpg",
		ThumbnailBlob: "2025-q1/thumbnails/" + id + "_thumb.jpg",
		TakenAt:       takenAt,
		UploadedAt:    takenAt.Add(time.Hour),
		Width:         4000,
		Height:        3000,
		SizeBytes:     1234,
		Hash:          "hash-" + id,
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "2025-q3/index.json", Key("2025-q3"))
}

func TestReadMissingPartition(t *testing.T) {
	s := NewBlobStore(storage.NewMemory())

	photos, err := s.Read(context.Background(), "2030-q1")
	require.NoError(t, err)
	assert.Empty(t, photos)
	assert.NotNil(t, photos)
}

func TestAppendAndRead(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	s := NewBlobStore(mem)

	base := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, "2025-q1", record("a", base)))
	require.NoError(t, s.Append(ctx, "2025-q1", record("b", base.Add(time.Minute))))

	photos, err := s.Read(ctx, "2025-q1")
	require.NoError(t, err)
	require.Len(t, photos, 2)

	// Insertion order is preserved.
	assert.Equal(t, "a", photos[0].ID)
	assert.Equal(t, "b", photos[1].ID)
	assert.True(t, photos[0].TakenAt.Equal(base))

	assert.True(t, mem.Exists("2025-q1/index.json"))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s := NewBlobStore(storage.NewMemory())

	base := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, "2025-q1", record("a", base)))
	require.NoError(t, s.Append(ctx, "2025-q1", record("b", base)))

	removed, err := s.Remove(ctx, "2025-q1", "a")
	require.NoError(t, err)
	assert.True(t, removed)

	photos, err := s.Read(ctx, "2025-q1")
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "b", photos[0].ID)

	// Absent ids report false, not an error.
	removed, err = s.Remove(ctx, "2025-q1", "a")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.Remove(ctx, "2099-q4", "nope")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPartitions(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	s := NewBlobStore(mem)

	base := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, "2025-q1", record("a", base)))
	require.NoError(t, s.Append(ctx, "2024-q4", record("b", base)))

	// Unrelated prefixes in the same bucket are not partitions.
	_, err := mem.Put(ctx, "backups/2024.tar", strings.NewReader("x"), storage.PutObjectOptions{})
	require.NoError(t, err)

	parts, err := s.Partitions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2024-q4", "2025-q1"}, parts)
}

func TestReadCorruptDocument(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	s := NewBlobStore(mem)

	_, err := mem.Put(ctx, Key("2025-q1"), strings.NewReader("{not json"), storage.PutObjectOptions{})
	require.NoError(t, err)

	_, err = s.Read(ctx, "2025-q1")
	assert.Error(t, err)
}
