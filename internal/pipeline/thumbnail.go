package pipeline

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	// ThumbnailWidth is the fixed target width for preview renditions.
	ThumbnailWidth = 400

	thumbnailQuality = 85
)

// Thumbnail produces the compressed preview rendition of a normalized
// frame: Lanczos downscale to ThumbnailWidth preserving aspect ratio,
// JPEG-encoded at a fixed quality. Sources at or below the target width
// are re-encoded at their original size; there is no upscaling.
//
// The encoder embeds no timestamps or randomness, so identical inputs
// produce byte-identical thumbnails.
func Thumbnail(src image.Image) ([]byte, error) {
	out := src
	if src.Bounds().Dx() > ThumbnailWidth {
		out = imaging.Resize(src, ThumbnailWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
