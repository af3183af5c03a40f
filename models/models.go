package models

import "time"

// CatalogEntry is one match returned by the catalog search. ImdbID is the
// canonical identifier used for all downstream provider calls.
type CatalogEntry struct {
	ImdbID      string `json:"imdbId"`
	Name        string `json:"name"`
	ReleaseInfo string `json:"releaseInfo,omitempty"`
}

// QualityLabel is a crude keyword-derived quality class for a release title.
type QualityLabel string

const (
	Quality4KUHD      QualityLabel = "4K_UHD"
	QualityFullHD1080 QualityLabel = "FULL_HD_1080P"
	QualityHD720      QualityLabel = "HD_720P"
	QualityHDR        QualityLabel = "HDR"
	QualityUnknown    QualityLabel = "UNKNOWN"
)

// StreamCandidate is one discovered torrent option, normalized from a raw
// provider stream object. Candidates keep provider iteration order; no ranking
// by seeds or quality is applied.
type StreamCandidate struct {
	SourceProvider string       `json:"sourceProvider"`
	DisplayTitle   string       `json:"displayTitle"`
	Quality        QualityLabel `json:"quality"`
	SeedInfo       string       `json:"seedInfo"`
	InfoHash       string       `json:"infoHash"`
}

// HistoryItem records one successful link resolution for the current session.
// RemoteJobID lets the user delete the finished job from the debrid cloud.
type HistoryItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	DirectURL   string    `json:"directUrl"`
	RemoteJobID string    `json:"remoteJobId"`
	CreatedAt   time.Time `json:"createdAt"`
}
