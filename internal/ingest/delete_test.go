package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"memoir/internal/index"
	"memoir/internal/model"
	"memoir/internal/storage"
	storageMocks "memoir/internal/storage/mocks"
)

func seedPhoto(t *testing.T, mem *storage.Memory, idx index.Store, id string) model.PhotoRecord {
	t.Helper()
	ctx := context.Background()

	rec := model.PhotoRecord{
		ID:            id,
		Filename:      id + ".jpg",
		OriginalBlob:  "2025-q1/originals/" + id + ".jpg",
		ThumbnailBlob: "2025-q1/thumbnails/" + id + "_thumb.jpg",
		TakenAt:       time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC),
		UploadedAt:    time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC),
		SizeBytes:     3,
	}
	for _, key := range []string{rec.OriginalBlob, rec.ThumbnailBlob} {
		_, err := mem.Put(ctx, key, strings.NewReader("jpg"), storage.PutObjectOptions{})
		require.NoError(t, err)
	}
	require.NoError(t, idx.Append(ctx, "2025-q1", rec))
	return rec
}

func TestFindPhoto(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	idx := index.NewBlobStore(mem)
	rec := seedPhoto(t, mem, idx, "p1")

	part, found, err := FindPhoto(ctx, idx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "2025-q1", part)
	assert.Equal(t, rec.ID, found.ID)

	_, _, err = FindPhoto(ctx, idx, "nope")
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	idx := index.NewBlobStore(mem)
	rec := seedPhoto(t, mem, idx, "p1")
	keep := seedPhoto(t, mem, idx, "p2")

	d := NewDeleter(mem, idx, zap.NewNop())
	deleted, err := d.Delete(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, deleted.ID)

	assert.False(t, mem.Exists(rec.OriginalBlob))
	assert.False(t, mem.Exists(rec.ThumbnailBlob))

	photos, err := idx.Read(ctx, "2025-q1")
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, keep.ID, photos[0].ID)

	// Untouched photo keeps its blobs.
	assert.True(t, mem.Exists(keep.OriginalBlob))
	assert.True(t, mem.Exists(keep.ThumbnailBlob))

	_, err = d.Delete(ctx, "p1")
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

// A crash between blob deletion and index removal leaves the index
// listing an id whose payloads are gone. That partial state is reachable
// and detectable, never a dangling surprise hidden from the operator.
func TestDeletePartialFailureKeepsIndexRecord(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	idx := index.NewBlobStore(mem)
	rec := seedPhoto(t, mem, idx, "p1")

	failing := new(storageMocks.MockStorage)
	failing.On("Delete", mock.Anything, rec.OriginalBlob).
		Return(nil).
		Run(func(args mock.Arguments) { _ = mem.Delete(ctx, rec.OriginalBlob) }).
		Once()
	failing.On("Delete", mock.Anything, rec.ThumbnailBlob).
		Return(errors.New("connection reset")).Once()

	d := NewDeleter(failing, idx, zap.NewNop())
	_, err := d.Delete(ctx, "p1")
	require.Error(t, err)
	failing.AssertExpectations(t)

	// Original blob is gone, the index record survives: reads can detect
	// the breakage instead of silently losing the record.
	assert.False(t, mem.Exists(rec.OriginalBlob))
	assert.True(t, mem.Exists(rec.ThumbnailBlob))

	photos, err := idx.Read(ctx, "2025-q1")
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "p1", photos[0].ID)

	_, _, err = mem.Get(ctx, photos[0].OriginalBlob)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteOrdering(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	idx := index.NewBlobStore(mem)
	rec := seedPhoto(t, mem, idx, "p1")

	var order []string
	st := new(storageMocks.MockStorage)
	st.On("Delete", mock.Anything, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) { order = append(order, args.String(1)) })

	d := NewDeleter(st, idx, zap.NewNop())
	_, err := d.Delete(ctx, "p1")
	require.NoError(t, err)

	// Original first, thumbnail second, index record last.
	require.Equal(t, []string{rec.OriginalBlob, rec.ThumbnailBlob}, order)
	photos, err := idx.Read(ctx, "2025-q1")
	require.NoError(t, err)
	assert.Empty(t, photos)
}
