package domain

import (
	"fmt"
	"time"
)

// Kind selects which artifact a download request produces.
type Kind string

const (
	KindVideo     Kind = "video"
	KindAudio     Kind = "audio"
	KindThumbnail Kind = "thumbnail"
)

// DefaultKind is used when the caller does not name one.
const DefaultKind = KindVideo

// ParseKind maps a raw "type" value onto a Kind. Matching is exact.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(raw); k {
	case KindVideo, KindAudio, KindThumbnail:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidArgument, raw)
	}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k == KindVideo || k == KindAudio || k == KindThumbnail
}

func (k Kind) String() string {
	return string(k)
}

// DownloadRequest is a single request-scoped extraction job.
type DownloadRequest struct {
	URL  string `json:"url"`
	Kind Kind   `json:"type"`
}

// ExtractionResult is what an extraction engine hands back.
// Exactly one of LocalFilePath or RemoteThumbnailURL is set.
type ExtractionResult struct {
	Title              string
	LocalFilePath      string
	RemoteThumbnailURL string
}

// DownloadResult is the gateway-facing outcome of a download request.
type DownloadResult struct {
	Title        string `json:"title,omitempty"`
	DownloadURL  string `json:"download_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// StoredFile describes a file that lives in the download directory.
type StoredFile struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}
