// Package index implements the authoritative per-partition photo catalog.
// Each partition owns a single index.json document next to its blobs; the
// document is the only source of truth for listing and is always
// read-modified-written whole.
//
// The store offers no coordination between concurrent writers to the same
// partition: the uploader is a single-operator sequential batch tool, and
// single-writer operation is an operational invariant of the system
// rather than something enforced with distributed locks.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"memoir/internal/model"
	"memoir/internal/partition"
	"memoir/internal/storage"
)

// indexObject is the document's key inside a partition prefix.
const indexObject = "index.json"

// Store is the index catalog contract. Records are append-only: a
// metadata correction is a Remove followed by a fresh ingestion, never an
// update in place.
type Store interface {
	// Read returns a partition's records in insertion order. A partition
	// that does not exist yet reads as an empty list, not an error.
	Read(ctx context.Context, part string) ([]model.PhotoRecord, error)
	// Append adds a record to a partition, creating the partition's
	// document on first write.
	Append(ctx context.Context, part string, rec model.PhotoRecord) error
	// Remove deletes the record with the given id. The bool reports
	// whether the id was present.
	Remove(ctx context.Context, part string, id string) (bool, error)
	// Partitions lists the existing partition keys, ignoring prefixes
	// outside the {year}-q{quarter} naming scheme.
	Partitions(ctx context.Context) ([]string, error)
}

// blobStore keeps each partition's index as a JSON document in the blob
// store itself, so the uploader and the read API share one backend.
type blobStore struct {
	store storage.Storage
}

// NewBlobStore returns a Store backed by the given blob storage.
func NewBlobStore(store storage.Storage) Store {
	return &blobStore{store: store}
}

// Key returns the object key of a partition's index document.
func Key(part string) string {
	return part + "/" + indexObject
}

func (s *blobStore) Read(ctx context.Context, part string) ([]model.PhotoRecord, error) {
	rc, _, err := s.store.Get(ctx, Key(part))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []model.PhotoRecord{}, nil
		}
		return nil, fmt.Errorf("read index %s: %w", part, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", part, err)
	}

	var idx model.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", part, err)
	}
	if idx.Photos == nil {
		idx.Photos = []model.PhotoRecord{}
	}
	return idx.Photos, nil
}

func (s *blobStore) Append(ctx context.Context, part string, rec model.PhotoRecord) error {
	photos, err := s.Read(ctx, part)
	if err != nil {
		return err
	}
	return s.write(ctx, part, append(photos, rec))
}

func (s *blobStore) Remove(ctx context.Context, part string, id string) (bool, error) {
	photos, err := s.Read(ctx, part)
	if err != nil {
		return false, err
	}
	for i, p := range photos {
		if p.ID == id {
			photos = append(photos[:i], photos[i+1:]...)
			if err := s.write(ctx, part, photos); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (s *blobStore) Partitions(ctx context.Context) ([]string, error) {
	dirs, err := s.store.ListDirs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	parts := dirs[:0]
	for _, d := range dirs {
		if _, _, ok := partition.Parse(d); ok {
			parts = append(parts, d)
		}
	}
	return parts, nil
}

// write replaces the partition's whole document. Every mutation funnels
// through here; there are no partial updates.
func (s *blobStore) write(ctx context.Context, part string, photos []model.PhotoRecord) error {
	data, err := json.MarshalIndent(model.Index{Photos: photos}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index %s: %w", part, err)
	}
	_, err = s.store.Put(ctx, Key(part), strings.NewReader(string(data)), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("write index %s: %w", part, err)
	}
	return nil
}
