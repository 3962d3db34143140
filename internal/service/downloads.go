package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"ytdlapi/internal/core/domain"
	"ytdlapi/internal/core/ports"
)

// FileRoutePrefix is the URL path under which stored files are served.
const FileRoutePrefix = "/file/"

// DownloadService coordinates a single download request.
type DownloadService struct {
	extractor ports.Extractor
	storage   ports.Storage
	logger    *log.Logger
}

// NewDownloadService creates a new DownloadService.
func NewDownloadService(extractor ports.Extractor, storage ports.Storage, logger *log.Logger) *DownloadService {
	return &DownloadService{
		extractor: extractor,
		storage:   storage,
		logger:    logger,
	}
}

// Download validates the raw query values, runs the extractor and builds the
// client-facing result. Every call invokes the extractor; nothing is reused.
func (s *DownloadService) Download(ctx context.Context, rawURL, rawKind string) (*domain.DownloadResult, error) {
	reqID := domain.RequestIDFromContext(ctx)

	videoURL := rawURL
	if videoURL == "" {
		return nil, fmt.Errorf("%w: url", domain.ErrMissingParameter)
	}

	kind, err := domain.ParseKind(rawKind)
	if err != nil {
		s.logger.Printf("[REQ %s] rejected type %q", reqID, rawKind)
		return nil, err
	}

	req := domain.DownloadRequest{URL: videoURL, Kind: kind}
	start := time.Now()
	s.logger.Printf("[REQ %s] Extracting %s from %s (platform=%s)", reqID, kind, videoURL, detectPlatform(videoURL))

	res, err := s.extractor.Extract(ctx, req)
	if err != nil {
		s.logger.Printf("[REQ %s] ERROR: %s extraction failed (kind=%s): %v", reqID, kind, domain.FailureKindOf(err), err)
		return nil, err
	}

	s.logger.Printf("[REQ %s] Extraction completed in %s: %q", reqID, time.Since(start).Round(time.Millisecond), res.Title)

	if kind == domain.KindThumbnail {
		return &domain.DownloadResult{ThumbnailURL: res.RemoteThumbnailURL}, nil
	}

	return &domain.DownloadResult{
		Title:       res.Title,
		DownloadURL: FileURL(res.LocalFilePath),
	}, nil
}

// Open resolves a served file name inside the download directory.
func (s *DownloadService) Open(ctx context.Context, filename string) (*domain.StoredFile, error) {
	return s.storage.Open(ctx, filename)
}

// FileURL derives the serving route for a stored file path.
func FileURL(localPath string) string {
	return FileRoutePrefix + url.PathEscape(filepath.Base(localPath))
}

func detectPlatform(videoURL string) string {
	lowerURL := strings.ToLower(videoURL)
	switch {
	case strings.Contains(lowerURL, "youtube.com"), strings.Contains(lowerURL, "youtu.be"):
		return "youtube"
	case strings.Contains(lowerURL, "tiktok.com"):
		return "tiktok"
	default:
		return "unknown"
	}
}
