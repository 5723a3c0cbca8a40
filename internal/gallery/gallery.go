// Package gallery is the read side of the system: a stateless façade
// over the index store that serves the year listing, the paginated
// per-year view and single-photo lookups. It never re-derives metadata;
// everything it returns comes from index documents written at ingestion.
package gallery

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"memoir/internal/index"
	"memoir/internal/model"
	"memoir/internal/partition"
	"memoir/internal/storage"
)

// ErrNotFound is returned for unknown years and photo ids.
var ErrNotFound = errors.New("not found")

// DefaultPageSize bounds one page of the per-year listing.
const DefaultPageSize = 50

// Service answers gallery reads. Index documents are cached with a
// bounded TTL: freshly ingested photos may be invisible for up to the
// TTL window, a deliberate staleness/performance trade-off. The cache is
// never pushed-invalidated by the uploader; it simply expires.
type Service struct {
	idx           index.Store
	store         storage.Storage
	cache         *gocache.Cache
	publicBaseURL string
	presignExpiry time.Duration
}

// Config carries the service's knobs.
type Config struct {
	// CacheTTL bounds index staleness. Zero disables caching.
	CacheTTL time.Duration
	// PublicBaseURL, when set, is joined with blob keys to form photo
	// URLs (CDN or public bucket). When empty, URLs are presigned
	// through the storage adapter instead.
	PublicBaseURL string
	// PresignExpiry is the lifetime of presigned URLs.
	PresignExpiry time.Duration
}

// New constructs the gallery service.
func New(idx index.Store, store storage.Storage, cfg Config) *Service {
	var c *gocache.Cache
	if cfg.CacheTTL > 0 {
		c = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Service{
		idx:           idx,
		store:         store,
		cache:         c,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		presignExpiry: expiry,
	}
}

// Years lists the years that have at least one partition, newest first,
// with the most recent as the default selection.
func (s *Service) Years(ctx context.Context) (*model.YearsResponse, error) {
	parts, err := s.partitions(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var years []int
	for _, p := range parts {
		year, _, ok := partition.Parse(p)
		if ok && !seen[year] {
			seen[year] = true
			years = append(years, year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	resp := &model.YearsResponse{Years: years}
	if len(years) > 0 {
		resp.Default = &years[0]
	} else {
		resp.Years = []int{}
	}
	return resp, nil
}

// PhotosByYear returns one page of a year's photos grouped by quarter,
// most recent quarter first, photos newest first within each section.
// The cursor names the last photo of the previous page by takenAt and
// id; replaying a returned cursor over a static dataset produces the
// next page with no gaps and no repeats, even when capture timestamps
// collide (burst shots share a second in EXIF resolution).
func (s *Service) PhotosByYear(ctx context.Context, year int, cursor string, limit int) (*model.PhotosResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultPageSize
	}

	parts, err := s.partitions(ctx)
	if err != nil {
		return nil, err
	}

	type quarterPart struct {
		key     string
		quarter int
	}
	var yearParts []quarterPart
	for _, p := range parts {
		y, q, ok := partition.Parse(p)
		if ok && y == year {
			yearParts = append(yearParts, quarterPart{key: p, quarter: q})
		}
	}
	if len(yearParts) == 0 {
		return nil, fmt.Errorf("%w: year %d", ErrNotFound, year)
	}
	sort.Slice(yearParts, func(i, j int) bool { return yearParts[i].quarter > yearParts[j].quarter })

	cur, haveCursor := decodeCursor(cursor)

	resp := &model.PhotosResponse{Year: year, Sections: []model.QuarterSection{}}
	total := 0
	var last cursorPos

	for _, qp := range yearParts {
		photos, err := s.records(ctx, qp.key)
		if err != nil {
			return nil, err
		}
		// Equal timestamps fall back to id so page order is identical
		// across requests.
		sort.SliceStable(photos, func(i, j int) bool {
			if !photos[i].TakenAt.Equal(photos[j].TakenAt) {
				return photos[i].TakenAt.After(photos[j].TakenAt)
			}
			return photos[i].ID < photos[j].ID
		})

		var section []model.PhotoSummary
		for _, p := range photos {
			if haveCursor && !cur.precedes(p) {
				continue
			}
			if total >= limit {
				resp.HasMore = true
				break
			}
			summary, err := s.summarize(ctx, qp.key, p)
			if err != nil {
				return nil, err
			}
			section = append(section, summary)
			last = cursorPos{TakenAt: p.TakenAt, ID: p.ID}
			total++
		}

		if len(section) > 0 {
			resp.Sections = append(resp.Sections, model.QuarterSection{
				Quarter: fmt.Sprintf("Q%d", qp.quarter),
				Label:   fmt.Sprintf("%s %d", partition.Label(qp.quarter), year),
				Photos:  section,
			})
		}
		if resp.HasMore {
			break
		}
	}

	if resp.HasMore {
		c := encodeCursor(last)
		resp.NextCursor = &c
	}
	return resp, nil
}

// PhotoByID returns the lightbox view of a single photo, including the
// optional EXIF block.
func (s *Service) PhotoByID(ctx context.Context, id string) (*model.PhotoDetail, error) {
	parts, err := s.partitions(ctx)
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		photos, err := s.records(ctx, part)
		if err != nil {
			return nil, err
		}
		for _, p := range photos {
			if p.ID != id {
				continue
			}
			thumbURL, err := s.urlFor(ctx, p.ThumbnailBlob)
			if err != nil {
				return nil, err
			}
			origURL, err := s.urlFor(ctx, p.OriginalBlob)
			if err != nil {
				return nil, err
			}
			return &model.PhotoDetail{
				ID:           p.ID,
				ThumbnailURL: thumbURL,
				OriginalURL:  origURL,
				TakenAt:      p.TakenAt.UTC().Format(time.RFC3339),
				Width:        p.Width,
				Height:       p.Height,
				Exif:         p.Exif,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: photo %s", ErrNotFound, id)
}

func (s *Service) summarize(ctx context.Context, part string, p model.PhotoRecord) (model.PhotoSummary, error) {
	thumbURL, err := s.urlFor(ctx, p.ThumbnailBlob)
	if err != nil {
		return model.PhotoSummary{}, err
	}
	origURL, err := s.urlFor(ctx, p.OriginalBlob)
	if err != nil {
		return model.PhotoSummary{}, err
	}
	height := p.Height
	if height == 0 {
		height = 1
	}
	return model.PhotoSummary{
		ID:           p.ID,
		ThumbnailURL: thumbURL,
		OriginalURL:  origURL,
		TakenAt:      p.TakenAt.UTC().Format(time.RFC3339),
		Width:        p.Width,
		Height:       p.Height,
		AspectRatio:  float64(p.Width) / float64(height),
	}, nil
}

func (s *Service) urlFor(ctx context.Context, key string) (string, error) {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}
	return s.store.PresignGet(ctx, key, s.presignExpiry)
}

func (s *Service) partitions(ctx context.Context) ([]string, error) {
	const key = "partitions"
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.([]string), nil
		}
	}
	parts, err := s.idx.Partitions(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, parts, gocache.DefaultExpiration)
	}
	return parts, nil
}

// records returns a partition's index, served from cache within the TTL
// window. Callers receive a copy they may reorder freely.
func (s *Service) records(ctx context.Context, part string) ([]model.PhotoRecord, error) {
	key := "index:" + part
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return append([]model.PhotoRecord(nil), v.([]model.PhotoRecord)...), nil
		}
	}
	photos, err := s.idx.Read(ctx, part)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, photos, gocache.DefaultExpiration)
	}
	return append([]model.PhotoRecord(nil), photos...), nil
}

// cursorPos identifies the last photo of a served page. The timestamp
// alone is not enough: capture times have second resolution, so the id
// disambiguates ties at the page boundary.
type cursorPos struct {
	TakenAt time.Time
	ID      string
}

// precedes reports whether this position sorts strictly before p in the
// listing order (takenAt descending, id ascending on ties), i.e. whether
// p belongs to a later page.
func (c cursorPos) precedes(p model.PhotoRecord) bool {
	if !p.TakenAt.Equal(c.TakenAt) {
		return p.TakenAt.Before(c.TakenAt)
	}
	return p.ID > c.ID
}

// Cursor tokens are opaque to clients: base64 over the RFC3339Nano
// boundary timestamp and the boundary photo's id.
func encodeCursor(c cursorPos) string {
	raw := c.TakenAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (cursorPos, bool) {
	if s == "" {
		return cursorPos{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return cursorPos{}, false
	}
	at, id, found := strings.Cut(string(raw), "|")
	if !found {
		return cursorPos{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return cursorPos{}, false
	}
	return cursorPos{TakenAt: t, ID: id}, true
}
