package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jdeng/goheif"
	"github.com/rwcarlsen/goexif/exif"

	"memoir/internal/model"
)

// exifTimeLayout is the EXIF date format: "YYYY:MM:DD HH:MM:SS".
const exifTimeLayout = "2006:01:02 15:04:05"

// Metadata is the extractor's output. TakenAt is nil when no embedded
// capture time could be parsed; Exif is nil when the file carries no
// usable camera attributes. Both cases are valid, not failures.
type Metadata struct {
	TakenAt *time.Time
	Exif    *model.ExifData
}

// Extract pulls capture time and camera attributes from the original
// (pre-normalization) file bytes. Malformed metadata degrades to missing
// values; Extract never rejects a file.
func Extract(data []byte) Metadata {
	x, err := decodeExif(data)
	if err != nil {
		return Metadata{}
	}

	var meta Metadata
	if t, ok := captureTime(x); ok {
		meta.TakenAt = &t
	}
	if e := cameraAttributes(x); *e != (model.ExifData{}) {
		meta.Exif = e
	}
	return meta
}

// decodeExif locates the EXIF block for the container at hand. HEIC
// stores it in an item box that goexif cannot reach on its own.
func decodeExif(data []byte) (*exif.Exif, error) {
	if DetectFormat(data) == FormatHEIC {
		raw, err := goheif.ExtractExif(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return exif.Decode(bytes.NewReader(raw))
	}
	return exif.Decode(bytes.NewReader(data))
}

// captureTime resolves the embedded capture timestamp, trying
// DateTimeOriginal, then DateTime, then DateTimeDigitized.
func captureTime(x *exif.Exif) (time.Time, bool) {
	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime, exif.DateTimeDigitized} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			continue
		}
		t, err := time.Parse(exifTimeLayout, strings.TrimSpace(s))
		if err != nil {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

func cameraAttributes(x *exif.Exif) *model.ExifData {
	e := &model.ExifData{}

	make := tagString(x, exif.Make)
	camModel := tagString(x, exif.Model)
	if camModel != "" {
		// Drop a redundant make prefix: "Canon" + "Canon EOS R5" -> "Canon EOS R5".
		if make != "" && strings.HasPrefix(camModel, make) {
			camModel = strings.TrimSpace(strings.TrimPrefix(camModel, make))
		}
		if make != "" {
			e.Camera = strings.TrimSpace(make + " " + camModel)
		} else {
			e.Camera = camModel
		}
	}

	if fl, ok := tagRatio(x, exif.FocalLength); ok {
		e.FocalLength = fmt.Sprintf("%.0fmm", fl)
	}
	if fn, ok := tagRatio(x, exif.FNumber); ok {
		e.Aperture = fmt.Sprintf("f/%.1f", fn)
	}
	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if iso, err := tag.Int(0); err == nil {
			e.ISO = iso
		}
	}
	return e
}

func tagString(x *exif.Exif, field exif.FieldName) string {
	tag, err := x.Get(field)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func tagRatio(x *exif.Exif, field exif.FieldName) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}
