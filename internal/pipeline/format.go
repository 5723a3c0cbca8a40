// Package pipeline contains the per-file processing stages run during
// ingestion: metadata extraction, format normalization, thumbnail
// generation and content fingerprinting. All stages are pure functions
// over byte slices; no stage touches storage.
package pipeline

import (
	"bytes"
	"errors"
)

// ErrUnsupportedFormat marks a file whose signature is outside the
// supported set. The orchestrator treats it as a per-file skip, never as
// a batch abort.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format identifies a supported input encoding, detected by signature.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatWebP    Format = "webp"
	FormatHEIC    Format = "heic"
	FormatUnknown Format = ""
)

// heifBrands are the ftyp major brands treated as HEIC/HEIF containers.
var heifBrands = [][]byte{
	[]byte("heic"), []byte("heix"), []byte("hevc"), []byte("hevx"),
	[]byte("heif"), []byte("mif1"), []byte("msf1"),
}

// DetectFormat sniffs the file signature. Extension is deliberately not
// consulted: phone exports routinely mislabel HEIC payloads as .jpg.
func DetectFormat(data []byte) Format {
	if len(data) < 12 {
		return FormatUnknown
	}
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return FormatPNG
	case bytes.HasPrefix(data, []byte("GIF8")):
		return FormatGIF
	case bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP
	case bytes.Equal(data[4:8], []byte("ftyp")):
		for _, brand := range heifBrands {
			if bytes.Equal(data[8:12], brand) {
				return FormatHEIC
			}
		}
	}
	return FormatUnknown
}

// ContentType returns the MIME type stored alongside the blob.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatGIF:
		return "image/gif"
	case FormatWebP:
		return "image/webp"
	case FormatHEIC:
		return "image/heic"
	}
	return "application/octet-stream"
}

// Ext returns the canonical file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatGIF:
		return ".gif"
	case FormatWebP:
		return ".webp"
	case FormatHEIC:
		return ".heic"
	}
	return ""
}
