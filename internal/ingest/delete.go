package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"memoir/internal/index"
	"memoir/internal/model"
	"memoir/internal/storage"
)

// ErrPhotoNotFound is returned when no partition's index lists the id.
var ErrPhotoNotFound = errors.New("photo not found")

// FindPhoto locates a record by id, scanning every partition's index.
// Partition cardinality is low, so the scan stays cheap. Shared by the
// deleter and the show command.
func FindPhoto(ctx context.Context, idx index.Store, id string) (string, *model.PhotoRecord, error) {
	parts, err := idx.Partitions(ctx)
	if err != nil {
		return "", nil, err
	}
	for _, part := range parts {
		photos, err := idx.Read(ctx, part)
		if err != nil {
			return "", nil, err
		}
		for i := range photos {
			if photos[i].ID == id {
				return part, &photos[i], nil
			}
		}
	}
	return "", nil, fmt.Errorf("%w: %s", ErrPhotoNotFound, id)
}

// Deleter removes a photo's blobs and its index record.
type Deleter struct {
	store  storage.Storage
	idx    index.Store
	logger *zap.Logger
}

func NewDeleter(store storage.Storage, idx index.Store, logger *zap.Logger) *Deleter {
	return &Deleter{store: store, idx: idx, logger: logger}
}

// Delete removes a photo by id and returns the deleted record. The three
// steps are deliberately ordered original blob, thumbnail blob, index
// record: the sequence is not atomic, and a crash mid-way must leave at
// worst an orphaned blob (invisible garbage) rather than an index record
// pointing at missing payloads, which would break reads.
func (d *Deleter) Delete(ctx context.Context, id string) (*model.PhotoRecord, error) {
	part, rec, err := FindPhoto(ctx, d.idx, id)
	if err != nil {
		return nil, err
	}

	if err := d.store.Delete(ctx, rec.OriginalBlob); err != nil {
		return nil, fmt.Errorf("delete original blob: %w", err)
	}
	d.logger.Info("deleted original blob", zap.String("key", rec.OriginalBlob))

	if err := d.store.Delete(ctx, rec.ThumbnailBlob); err != nil {
		return nil, fmt.Errorf("delete thumbnail blob: %w", err)
	}
	d.logger.Info("deleted thumbnail blob", zap.String("key", rec.ThumbnailBlob))

	removed, err := d.idx.Remove(ctx, part, id)
	if err != nil {
		return nil, fmt.Errorf("remove index record: %w", err)
	}
	if !removed {
		// Lost a race with another remove; the blobs are gone either way.
		return nil, fmt.Errorf("%w: %s", ErrPhotoNotFound, id)
	}
	d.logger.Info("removed index record", zap.String("partition", part), zap.String("id", id))

	return rec, nil
}
