package ports

import (
	"context"
	"io"

	"ytdlapi/internal/core/domain"
)

// Extractor defines the contract for the media extraction engine.
type Extractor interface {
	// Extract resolves req into a local file or a remote thumbnail URL.
	// Engine failures are returned as *domain.ExtractionError.
	Extract(ctx context.Context, req domain.DownloadRequest) (*domain.ExtractionResult, error)
}

// Fetcher defines the contract for plain remote downloads (thumbnails, streams).
type Fetcher interface {
	// Fetch returns a ReadCloser that the caller must close.
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// Transcoder converts a local media file into MP3.
type Transcoder interface {
	ToMP3(ctx context.Context, srcPath, dstPath, bitrate string) error
}

// Storage defines the contract for the flat download directory.
type Storage interface {
	// Init creates the download directory.
	Init(ctx context.Context) error

	// NewStaging creates a private working directory for one request.
	NewStaging(ctx context.Context) (string, error)

	// Discard removes a staging directory and everything left in it.
	Discard(stagingDir string) error

	// Commit moves a staged file into the download directory under its basename.
	// Commits of the same name are serialized; the last one wins.
	Commit(ctx context.Context, stagedPath string) (*domain.StoredFile, error)

	// Save streams reader into the download directory as name.
	Save(ctx context.Context, name string, reader io.Reader) (*domain.StoredFile, error)

	// Open resolves name inside the download directory.
	// Returns domain.ErrFileNotFound when it does not exist or is not addressable.
	Open(ctx context.Context, name string) (*domain.StoredFile, error)

	// Dir returns the download directory path.
	Dir() string
}
