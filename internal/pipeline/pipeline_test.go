package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testImage fills a frame with a gradient so encoded fixtures are not
// trivially compressible single-color blocks.
func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x + y) % 256), A: 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func gifBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	webpHeader := append([]byte("RIFF\x00\x00\x00\x00WEBP"), make([]byte, 8)...)
	heicHeader := append([]byte{0, 0, 0, 0x18}, []byte("ftypheic")...)
	heifHeader := append([]byte{0, 0, 0, 0x18}, []byte("ftypmif1")...)
	mp4Header := append([]byte{0, 0, 0, 0x18}, []byte("ftypisom")...)

	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"jpeg", jpegBytes(t, 16, 16), FormatJPEG},
		{"png", pngBytes(t, 16, 16), FormatPNG},
		{"gif", gifBytes(t, 16, 16), FormatGIF},
		{"webp", webpHeader, FormatWebP},
		{"heic", heicHeader, FormatHEIC},
		{"heif mif1", heifHeader, FormatHEIC},
		{"mp4 is not heic", mp4Header, FormatUnknown},
		{"text", []byte("definitely not an image"), FormatUnknown},
		{"truncated", []byte{0xFF, 0xD8}, FormatUnknown},
		{"empty", nil, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.data))
		})
	}
}

func TestFormatExtAndContentType(t *testing.T) {
	assert.Equal(t, ".jpg", FormatJPEG.Ext())
	assert.Equal(t, "image/jpeg", FormatJPEG.ContentType())
	assert.Equal(t, ".heic", FormatHEIC.Ext())
	assert.Equal(t, "image/heic", FormatHEIC.ContentType())
	assert.Equal(t, "", FormatUnknown.Ext())
	assert.Equal(t, "application/octet-stream", FormatUnknown.ContentType())
}

func TestNormalizePassthrough(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		ext      string
		mimeType string
	}{
		{"jpeg", jpegBytes(t, 32, 24), ".jpg", "image/jpeg"},
		{"png", pngBytes(t, 32, 24), ".png", "image/png"},
		{"gif", gifBytes(t, 32, 24), ".gif", "image/gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			norm, err := Normalize(tt.data)
			require.NoError(t, err)

			// Baseline formats pass through byte-identical, no generation loss.
			assert.Equal(t, tt.data, norm.Data)
			assert.Equal(t, tt.ext, norm.Ext)
			assert.Equal(t, tt.mimeType, norm.ContentType)
			assert.Equal(t, 32, norm.Width())
			assert.Equal(t, 24, norm.Height())
		})
	}
}

func TestNormalizeUnsupported(t *testing.T) {
	_, err := Normalize([]byte("not an image at all, sorry"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNormalizeCorrupt(t *testing.T) {
	// Valid JPEG signature, garbage body: decode failure, not a skip.
	data := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("garbage body with no entropy")...)
	_, err := Normalize(data)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}

func TestThumbnailDownscale(t *testing.T) {
	thumb, err := Thumbnail(testImage(800, 600))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestThumbnailNeverUpscales(t *testing.T) {
	thumb, err := Thumbnail(testImage(200, 150))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())
}

func TestThumbnailDeterministic(t *testing.T) {
	src := testImage(640, 480)

	a, err := Thumbnail(src)
	require.NoError(t, err)
	b, err := Thumbnail(src)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFingerprint(t *testing.T) {
	// sha256 of the exact bytes, hex-encoded.
	assert.Equal(t,
		"b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		Fingerprint([]byte("hello world")))

	assert.NotEqual(t, Fingerprint([]byte("a")), Fingerprint([]byte("b")))
	assert.Equal(t, Fingerprint(nil), Fingerprint([]byte{}))
}

func TestExtractWithoutMetadata(t *testing.T) {
	// Encoder output carries no EXIF segment; extraction must not fail,
	// it just comes back empty.
	meta := Extract(jpegBytes(t, 16, 16))
	assert.Nil(t, meta.TakenAt)
	assert.Nil(t, meta.Exif)

	meta = Extract([]byte("not an image"))
	assert.Nil(t, meta.TakenAt)
	assert.Nil(t, meta.Exif)
}
