package model

// API response shapes consumed by the gallery frontend.
// Field names are part of the wire contract; do not rename.

// PhotoSummary is the grid-view projection of a record.
type PhotoSummary struct {
	ID           string  `json:"id"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	OriginalURL  string  `json:"originalUrl"`
	TakenAt      string  `json:"takenAt"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	AspectRatio  float64 `json:"aspectRatio"`
}

// PhotoDetail is the lightbox projection, including optional EXIF.
type PhotoDetail struct {
	ID           string    `json:"id"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	OriginalURL  string    `json:"originalUrl"`
	TakenAt      string    `json:"takenAt"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Exif         *ExifData `json:"exif,omitempty"`
}

// QuarterSection groups one quarter's photos under a display label.
type QuarterSection struct {
	Quarter string         `json:"quarter"`
	Label   string         `json:"label"`
	Photos  []PhotoSummary `json:"photos"`
}

// PhotosResponse is the cursor-paginated listing for one year.
// Sections are ordered most-recent-quarter-first.
type PhotosResponse struct {
	Year       int              `json:"year"`
	Sections   []QuarterSection `json:"sections"`
	NextCursor *string          `json:"nextCursor"`
	HasMore    bool             `json:"hasMore"`
}

// YearsResponse lists the years that have at least one partition.
type YearsResponse struct {
	Years   []int `json:"years"`
	Default *int  `json:"default"`
}

// TelemetryEvent is the fire-and-forget event posted by the frontend.
type TelemetryEvent struct {
	Event     string `json:"event"`
	PhotoID   string `json:"photoId,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	SessionID string `json:"sessionId"`
}
