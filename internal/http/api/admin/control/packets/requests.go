package packets

import "github.com/Nixie-Tech-LLC/iqamah/internal/cache"

// CacheActionResponse reports what a clear or sweep touched.
type CacheActionResponse struct {
	Caches  []string `json:"caches"`
	Removed int      `json:"removed"`
}

type CacheMetricsResponse struct {
	Caches []cache.Metrics `json:"caches"`
}

// CalendarUploadResponse echoes where a calendar document was stored.
type CalendarUploadResponse struct {
	Slug   string `json:"slug"`
	Kind   string `json:"kind"`
	Month  string `json:"month,omitempty"`
	Year   int    `json:"year,omitempty"`
	Range  string `json:"range,omitempty"`
	Stored bool   `json:"stored"`
}
