package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"ytdlapi/internal/core/domain"
	"ytdlapi/internal/core/ports"
)

const (
	outputTemplate      = "%(title)s.%(ext)s"
	defaultAudioQuality = "192"
	progressInterval    = 5 * time.Second
)

type runFunc func(ctx context.Context, cmd *ytdlp.Command, url string) (*ytdlp.Result, error)

// YtDlpExtractor implements ports.Extractor on top of the yt-dlp binary.
type YtDlpExtractor struct {
	storage      ports.Storage
	binaryPath   string
	ffmpegPath   string
	audioQuality string
	logger       *log.Logger
	run          runFunc
}

// Option configures a YtDlpExtractor.
type Option func(*YtDlpExtractor)

// WithBinaryPath points the extractor at a specific yt-dlp executable.
func WithBinaryPath(path string) Option {
	return func(d *YtDlpExtractor) {
		d.binaryPath = path
	}
}

// WithFFmpegLocation points yt-dlp's post-processors at a specific ffmpeg.
func WithFFmpegLocation(path string) Option {
	return func(d *YtDlpExtractor) {
		d.ffmpegPath = path
	}
}

// WithAudioQuality sets the MP3 bitrate in kbps ("192").
func WithAudioQuality(quality string) Option {
	return func(d *YtDlpExtractor) {
		if q := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(quality)), "k"); q != "" {
			d.audioQuality = q
		}
	}
}

// NewYtDlpExtractor creates a new extractor writing into storage.
func NewYtDlpExtractor(storage ports.Storage, logger *log.Logger, opts ...Option) *YtDlpExtractor {
	d := &YtDlpExtractor{
		storage:      storage,
		audioQuality: defaultAudioQuality,
		logger:       logger,
		run: func(ctx context.Context, cmd *ytdlp.Command, url string) (*ytdlp.Result, error) {
			return cmd.Run(ctx, url)
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// EnsureInstalled downloads a yt-dlp binary into the user cache when none is available.
func EnsureInstalled(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

// Extract runs yt-dlp for req inside a private staging directory and commits the result.
func (d *YtDlpExtractor) Extract(ctx context.Context, req domain.DownloadRequest) (*domain.ExtractionResult, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidArgument, req.Kind)
	}

	reqID := domain.RequestIDFromContext(ctx)

	staging, err := d.storage.NewStaging(ctx)
	if err != nil {
		return nil, domain.NewExtractionError(domain.FailureStorage, err)
	}
	defer func() {
		if err := d.storage.Discard(staging); err != nil {
			d.logger.Printf("[REQ %s] WARN: %v", reqID, err)
		}
	}()

	cmd := d.command(req.Kind, staging, reqID)
	result, err := d.run(ctx, cmd, req.URL)
	if err != nil {
		return nil, classify(result, err)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return nil, domain.NewExtractionError(domain.FailureUnknown, fmt.Errorf("failed to parse yt-dlp output: %w", err))
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, domain.NewExtractionError(domain.FailureUnknown, errors.New("yt-dlp returned no metadata"))
	}
	info := infos[0]
	title := deref(info.Title)

	if req.Kind == domain.KindThumbnail {
		thumbURL := deref(info.Thumbnail)
		if thumbURL == "" {
			return nil, domain.NewExtractionError(domain.FailureUnavailable, errors.New("no thumbnail available for this video"))
		}
		d.commitLeftovers(ctx, staging, reqID)
		return &domain.ExtractionResult{Title: title, RemoteThumbnailURL: thumbURL}, nil
	}

	staged, err := stagedMediaPath(staging, req.Kind, deref(info.Filename), deref(info.AltFilename))
	if err != nil {
		return nil, domain.NewExtractionError(domain.FailureStorage, err)
	}
	stored, err := d.storage.Commit(ctx, staged)
	if err != nil {
		return nil, domain.NewExtractionError(domain.FailureStorage, err)
	}

	return &domain.ExtractionResult{Title: title, LocalFilePath: stored.Path}, nil
}

func (d *YtDlpExtractor) command(kind domain.Kind, staging, reqID string) *ytdlp.Command {
	dl := ytdlp.New().
		NoPlaylist().
		PrintJSON().
		Output(filepath.Join(staging, outputTemplate))

	if d.binaryPath != "" {
		dl = dl.SetExecutable(d.binaryPath)
	}
	if d.ffmpegPath != "" {
		dl = dl.FFmpegLocation(d.ffmpegPath)
	}

	switch kind {
	case domain.KindAudio:
		dl = dl.Format("bestaudio/best").
			ExtractAudio().
			AudioFormat("mp3").
			AudioQuality(d.audioQuality)
	case domain.KindThumbnail:
		dl = dl.SkipDownload().WriteThumbnail()
	default:
		dl = dl.Format("best")
	}

	dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
		if update.TotalBytes <= 0 {
			return
		}
		percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
		d.logger.Printf("[REQ %s] yt-dlp progress %.0f%% (%d/%d bytes)", reqID, percent, update.DownloadedBytes, update.TotalBytes)
	})

	return dl
}

// commitLeftovers moves side-effect files (thumbnails) into the download directory.
func (d *YtDlpExtractor) commitLeftovers(ctx context.Context, staging, reqID string) {
	entries, err := os.ReadDir(staging)
	if err != nil {
		d.logger.Printf("[REQ %s] WARN: failed to list staging: %v", reqID, err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := d.storage.Commit(ctx, filepath.Join(staging, entry.Name())); err != nil {
			d.logger.Printf("[REQ %s] WARN: failed to keep %s: %v", reqID, entry.Name(), err)
		}
	}
}

// stagedMediaPath returns where yt-dlp left the media for kind. The reported
// file names are tried first, then the staging dir is scanned.
// Audio always ends in .mp3 once the post-processor has run.
func stagedMediaPath(staging string, kind domain.Kind, filenames ...string) (string, error) {
	for _, filename := range filenames {
		if filename == "" {
			continue
		}
		name := filepath.Base(filename)
		if kind == domain.KindAudio {
			name = strings.TrimSuffix(name, filepath.Ext(name)) + ".mp3"
		}
		path := filepath.Join(staging, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", fmt.Errorf("failed to list staging: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl") {
			continue
		}
		if kind == domain.KindAudio && !strings.EqualFold(filepath.Ext(name), ".mp3") {
			continue
		}
		return filepath.Join(staging, name), nil
	}
	return "", errors.New("yt-dlp left no media file in staging")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
