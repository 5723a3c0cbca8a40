package pipeline

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/jdeng/goheif"

	// Register decoders for the pass-through formats so image.Decode can
	// produce the shared frame used by the thumbnailer.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// jpegConvertQuality is used when re-encoding HEIC frames. High enough to
// be visually lossless for the one conversion this pipeline performs.
const jpegConvertQuality = 95

// Normalized is the canonical rendition of an input file: bytes in a
// universally-decodable encoding plus the decoded frame, which the
// thumbnailer reuses so each file is decoded exactly once.
type Normalized struct {
	Data        []byte
	Ext         string
	ContentType string
	Image       image.Image
}

// Width and Height report the decoded pixel dimensions. EXIF dimension
// tags are never consulted; they go stale under rotation.
func (n *Normalized) Width() int  { return n.Image.Bounds().Dx() }
func (n *Normalized) Height() int { return n.Image.Bounds().Dy() }

// Normalize converts the input into the baseline encoding. HEIC/HEIF is
// decoded and re-encoded as JPEG; formats browsers already decode pass
// through byte-identical, avoiding generation loss. Unsupported
// signatures return ErrUnsupportedFormat.
func Normalize(data []byte) (*Normalized, error) {
	format := DetectFormat(data)
	switch format {
	case FormatHEIC:
		return convertHEIC(data)
	case FormatJPEG, FormatPNG, FormatGIF, FormatWebP:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", format, err)
		}
		return &Normalized{
			Data:        data,
			Ext:         format.Ext(),
			ContentType: format.ContentType(),
			Image:       img,
		}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

func convertHEIC(data []byte) (*Normalized, error) {
	img, err := goheif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode heic: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegConvertQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return &Normalized{
		Data:        buf.Bytes(),
		Ext:         ".jpg",
		ContentType: "image/jpeg",
		Image:       img,
	}, nil
}
