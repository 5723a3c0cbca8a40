// Package ingest drives batches of local image files through the
// processing pipeline and into blob storage plus the partition indexes.
// It is a sequential, single-operator batch process: files are handled
// one at a time, which keeps the index store's read-modify-write free of
// concurrent writers within a run.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"memoir/internal/index"
	"memoir/internal/model"
	"memoir/internal/partition"
	"memoir/internal/pipeline"
	"memoir/internal/storage"
)

// blobCacheControl marks originals and thumbnails as immutable: refs are
// freshly generated per photo and the payloads never change, so clients
// may cache for a year.
const blobCacheControl = "public, max-age=31536000, immutable"

// imageExtensions is the enumeration allowlist. Actual format handling is
// signature-based; the extension only decides which files get picked up.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".heic": true,
	".heif": true,
}

// Options control one upload batch.
type Options struct {
	// DryRun runs everything up to partition resolution, including the
	// duplicate check, and reports the plan; nothing is written.
	DryRun bool
	// Recursive walks subdirectories instead of the top level only.
	Recursive bool
	// SkipDuplicates consults a global hash set built at batch start and
	// skips files whose fingerprint is already indexed, which makes
	// re-running a batch idempotent.
	SkipDuplicates bool
	// OverrideDate fills in the capture date for files that carry none.
	OverrideDate *time.Time
	// ForceDate applies OverrideDate to every file in the batch, embedded
	// metadata notwithstanding. Meaningless without OverrideDate.
	ForceDate bool
}

// Status classifies the outcome for one input file.
type Status string

const (
	StatusUploaded           Status = "uploaded"
	StatusPlanned            Status = "planned"
	StatusSkippedDuplicate   Status = "skipped-duplicate"
	StatusSkippedUnsupported Status = "skipped-unsupported"
	StatusFailed             Status = "failed"
)

// FileResult records what happened to one file.
type FileResult struct {
	Path      string
	Status    Status
	Partition string
	PhotoID   string
	Reason    string
}

// Summary accumulates a batch's outcome. Per-file failures live here and
// do not affect the command's exit code.
type Summary struct {
	Uploaded           int
	Planned            int
	SkippedDuplicate   int
	SkippedUnsupported int
	Failed             int
	Results            []FileResult
}

func (s *Summary) add(r FileResult) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case StatusUploaded:
		s.Uploaded++
	case StatusPlanned:
		s.Planned++
	case StatusSkippedDuplicate:
		s.SkippedDuplicate++
	case StatusSkippedUnsupported:
		s.SkippedUnsupported++
	case StatusFailed:
		s.Failed++
	}
}

// Ingestor runs upload batches.
type Ingestor struct {
	store  storage.Storage
	idx    index.Store
	logger *zap.Logger

	// injectable for deterministic tests
	now   func() time.Time
	newID func() string
}

// NewIngestor constructs an Ingestor. The configuration it depends on
// (storage client, index store) is passed in explicitly; there is no
// ambient global state.
func NewIngestor(store storage.Storage, idx index.Store, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		store:  store,
		idx:    idx,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// UploadFolder ingests every supported file under folder. A single
// file's failure is recorded and the batch continues; only enumeration
// and storage-connection failures abort the run.
func (g *Ingestor) UploadFolder(ctx context.Context, folder string, opts Options) (*Summary, error) {
	files, err := scan(folder, opts.Recursive)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", folder, err)
	}

	summary := &Summary{}
	if len(files) == 0 {
		return summary, nil
	}
	g.logger.Info("starting upload batch",
		zap.String("folder", folder),
		zap.Int("files", len(files)),
		zap.Bool("dry_run", opts.DryRun))

	// The fingerprint set is a read, so dry runs build it too and report
	// already-ingested files as duplicates instead of planned.
	var known map[string]bool
	if opts.SkipDuplicates {
		known, err = g.knownHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("load existing fingerprints: %w", err)
		}
	}

	for _, path := range files {
		res := g.processFile(ctx, path, opts, known)
		summary.add(res)

		switch res.Status {
		case StatusFailed:
			g.logger.Warn("file failed", zap.String("path", path), zap.String("reason", res.Reason))
		case StatusSkippedUnsupported:
			g.logger.Info("skipped unsupported file", zap.String("path", path))
		case StatusSkippedDuplicate:
			g.logger.Info("skipped duplicate", zap.String("path", path))
		default:
			g.logger.Info(string(res.Status),
				zap.String("path", path),
				zap.String("partition", res.Partition),
				zap.String("id", res.PhotoID))
		}
	}
	return summary, nil
}

// processFile runs one file through the pipeline. Every unexpected error
// is downgraded to a failed result here; nothing escapes to abort the
// batch.
func (g *Ingestor) processFile(ctx context.Context, path string, opts Options, known map[string]bool) FileResult {
	res := FileResult{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Status = StatusFailed
		res.Reason = fmt.Sprintf("read file: %v", err)
		return res
	}

	if pipeline.DetectFormat(data) == pipeline.FormatUnknown {
		res.Status = StatusSkippedUnsupported
		return res
	}

	// Extractor runs on the original bytes, before any conversion, so
	// metadata survives normalization even when re-encoding drops the
	// EXIF segment from the produced bytes.
	meta := pipeline.Extract(data)
	takenAt, err := g.resolveTakenAt(path, meta.TakenAt, opts)
	if err != nil {
		res.Status = StatusFailed
		res.Reason = err.Error()
		return res
	}

	hash := pipeline.Fingerprint(data)
	if opts.SkipDuplicates && known[hash] {
		res.Status = StatusSkippedDuplicate
		return res
	}

	norm, err := pipeline.Normalize(data)
	if err != nil {
		if err == pipeline.ErrUnsupportedFormat {
			res.Status = StatusSkippedUnsupported
		} else {
			res.Status = StatusFailed
			res.Reason = err.Error()
		}
		return res
	}

	thumb, err := pipeline.Thumbnail(norm.Image)
	if err != nil {
		res.Status = StatusFailed
		res.Reason = err.Error()
		return res
	}

	part := partition.Resolve(takenAt)
	res.Partition = part

	if opts.DryRun {
		res.Status = StatusPlanned
		return res
	}

	id := g.newID()
	res.PhotoID = id
	rec := model.PhotoRecord{
		ID:            id,
		Filename:      filepath.Base(path),
		OriginalBlob:  fmt.Sprintf("%s/originals/%s%s", part, id, norm.Ext),
		ThumbnailBlob: fmt.Sprintf("%s/thumbnails/%s_thumb.jpg", part, id),
		TakenAt:       takenAt.UTC(),
		UploadedAt:    g.now().UTC(),
		Width:         norm.Width(),
		Height:        norm.Height(),
		SizeBytes:     int64(len(norm.Data)),
		Hash:          hash,
		Exif:          meta.Exif,
	}

	// Blobs first, index record last: a crash in between leaves orphan
	// blobs (invisible garbage) instead of an index entry that reads
	// cannot serve.
	if err := g.putBlob(ctx, rec.OriginalBlob, norm.Data, norm.ContentType); err != nil {
		res.Status = StatusFailed
		res.Reason = fmt.Sprintf("upload original: %v", err)
		return res
	}
	if err := g.putBlob(ctx, rec.ThumbnailBlob, thumb, "image/jpeg"); err != nil {
		res.Status = StatusFailed
		res.Reason = fmt.Sprintf("upload thumbnail: %v", err)
		return res
	}
	if err := g.idx.Append(ctx, part, rec); err != nil {
		res.Status = StatusFailed
		res.Reason = fmt.Sprintf("update index: %v", err)
		return res
	}

	if known != nil {
		known[hash] = true
	}
	res.Status = StatusUploaded
	return res
}

// resolveTakenAt picks the record's capture timestamp. Embedded metadata
// wins by default; the batch override fills gaps, or everything when
// forced; file modification time is the last resort so a file is never
// rejected for missing metadata.
func (g *Ingestor) resolveTakenAt(path string, embedded *time.Time, opts Options) (time.Time, error) {
	if opts.OverrideDate != nil && opts.ForceDate {
		return *opts.OverrideDate, nil
	}
	if embedded != nil {
		return *embedded, nil
	}
	if opts.OverrideDate != nil {
		return *opts.OverrideDate, nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat for fallback date: %w", err)
	}
	return fi.ModTime(), nil
}

func (g *Ingestor) putBlob(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := g.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:         int64(len(data)),
		ContentType:  contentType,
		CacheControl: blobCacheControl,
	})
	return err
}

// knownHashes collects every indexed fingerprint across all partitions.
// Partition cardinality is low (one per quarter with photos), so a full
// read at batch start is cheap and keeps duplicate checks O(1) per file.
func (g *Ingestor) knownHashes(ctx context.Context) (map[string]bool, error) {
	parts, err := g.idx.Partitions(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool)
	for _, part := range parts {
		photos, err := g.idx.Read(ctx, part)
		if err != nil {
			return nil, err
		}
		for _, p := range photos {
			if p.Hash != "" {
				known[p.Hash] = true
			}
		}
	}
	return known, nil
}

// scan enumerates candidate files, sorted for stable processing order.
func scan(folder string, recursive bool) ([]string, error) {
	var files []string
	if recursive {
		err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(folder)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				files = append(files, filepath.Join(folder, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
