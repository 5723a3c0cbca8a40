package model

import "time"

// PhotoRecord is one entry in a partition's index document.
// Records are immutable once written: metadata corrections are handled as
// delete + re-upload, never as in-place mutation.
type PhotoRecord struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	OriginalBlob  string    `json:"originalBlob"`
	ThumbnailBlob string    `json:"thumbnailBlob"`
	TakenAt       time.Time `json:"takenAt"`
	UploadedAt    time.Time `json:"uploadedAt"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	SizeBytes     int64     `json:"sizeBytes"`
	Hash          string    `json:"hash,omitempty"`
	Exif          *ExifData `json:"exif,omitempty"`
}

// ExifData is the sparse camera metadata subset surfaced to the gallery.
// Every field is optional; most scanned or screenshotted images carry none.
type ExifData struct {
	Camera      string `json:"camera,omitempty"`
	FocalLength string `json:"focalLength,omitempty"`
	Aperture    string `json:"aperture,omitempty"`
	ISO         int    `json:"iso,omitempty"`
}

// Index is the per-partition metadata catalog, serialized as a single
// index.json object in the partition's key prefix. It is the only source
// of truth for listing; readers never scan the raw blob namespace.
type Index struct {
	Photos []PhotoRecord `json:"photos"`
}
