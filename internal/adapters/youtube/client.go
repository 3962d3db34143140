package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/kkdai/youtube/v2"

	"ytdlapi/internal/core/domain"
	"ytdlapi/internal/core/ports"
)

// VideoClient is the subset of *youtube.Client the extractor needs.
type VideoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// NativeExtractor implements ports.Extractor without the yt-dlp binary.
// Audio still needs ffmpeg for the MP3 conversion.
type NativeExtractor struct {
	client     VideoClient
	fetcher    ports.Fetcher
	transcoder ports.Transcoder
	storage    ports.Storage
	bitrate    string
	logger     *log.Logger
}

// NewNativeExtractor creates a new NativeExtractor.
func NewNativeExtractor(
	client VideoClient,
	fetcher ports.Fetcher,
	transcoder ports.Transcoder,
	storage ports.Storage,
	bitrate string,
	logger *log.Logger,
) *NativeExtractor {
	if client == nil {
		client = &youtube.Client{}
	}
	return &NativeExtractor{
		client:     client,
		fetcher:    fetcher,
		transcoder: transcoder,
		storage:    storage,
		bitrate:    bitrate,
		logger:     logger,
	}
}

// Extract resolves req using the YouTube player API directly.
func (e *NativeExtractor) Extract(ctx context.Context, req domain.DownloadRequest) (*domain.ExtractionResult, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidArgument, req.Kind)
	}

	video, err := e.client.GetVideoContext(ctx, req.URL)
	if err != nil {
		return nil, classify(err)
	}

	base := safeFileName(video.Title, video.ID)

	switch req.Kind {
	case domain.KindThumbnail:
		return e.thumbnail(ctx, video, base)
	case domain.KindAudio:
		return e.audio(ctx, video, base)
	default:
		return e.video(ctx, video, base)
	}
}

func (e *NativeExtractor) video(ctx context.Context, video *youtube.Video, base string) (*domain.ExtractionResult, error) {
	format := bestProgressive(video.Formats)
	if format == nil {
		return nil, domain.NewExtractionError(domain.FailureUnavailable, errors.New("no combined audio/video format available"))
	}

	stream, _, err := e.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, classify(err)
	}
	defer stream.Close()

	stored, err := e.storage.Save(ctx, base+"."+extensionFor(format.MimeType), stream)
	if err != nil {
		return nil, domain.NewExtractionError(domain.FailureStorage, err)
	}

	return &domain.ExtractionResult{Title: video.Title, LocalFilePath: stored.Path}, nil
}

func (e *NativeExtractor) audio(ctx context.Context, video *youtube.Video, base string) (*domain.ExtractionResult, error) {
	format := bestAudio(video.Formats)
	if format == nil {
		return nil, domain.NewExtractionError(domain.FailureUnavailable, errors.New("no audio format available"))
	}

	staging, err := e.storage.NewStaging(ctx)
	if err != nil {
		return nil, domain.NewExtractionError(domain.FailureStorage, err)
	}
	defer func() {
		if err := e.storage.Discard(staging); err != nil {
			e.logger.Printf("[REQ %s] WARN: %v", domain.RequestIDFromContext(ctx), err)
		}
	}()

	stream, _, err := e.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, classify(err)
	}
	defer stream.Close()

	src := filepath.Join(staging, base+"."+extensionFor(format.MimeType))
	if err := writeFile(src, stream); err != nil {
		return nil, err
	}

	dst := filepath.Join(staging, base+".mp3")
	if err := e.transcoder.ToMP3(ctx, src, dst, e.bitrate); err != nil {
		return nil, domain.NewExtractionError(domain.FailureTranscode, err)
	}

	stored, err := e.storage.Commit(ctx, dst)
	if err != nil {
		return nil, domain.NewExtractionError(domain.FailureStorage, err)
	}

	return &domain.ExtractionResult{Title: video.Title, LocalFilePath: stored.Path}, nil
}

// thumbnail keeps a local copy of the image on a best-effort basis; the
// caller only ever gets the remote URL.
func (e *NativeExtractor) thumbnail(ctx context.Context, video *youtube.Video, base string) (*domain.ExtractionResult, error) {
	thumb := bestThumbnail(video.Thumbnails)
	if thumb == nil {
		return nil, domain.NewExtractionError(domain.FailureUnavailable, errors.New("no thumbnail available for this video"))
	}

	reqID := domain.RequestIDFromContext(ctx)
	if body, err := e.fetcher.Fetch(ctx, thumb.URL); err != nil {
		e.logger.Printf("[REQ %s] WARN: failed to fetch thumbnail: %v", reqID, err)
	} else {
		defer body.Close()
		if _, err := e.storage.Save(ctx, base+thumbnailExtension(thumb.URL), body); err != nil {
			e.logger.Printf("[REQ %s] WARN: failed to save thumbnail: %v", reqID, err)
		}
	}

	return &domain.ExtractionResult{Title: video.Title, RemoteThumbnailURL: thumb.URL}, nil
}

func writeFile(path string, r io.Reader) error {
	file, err := os.Create(path)
	if err != nil {
		return domain.NewExtractionError(domain.FailureStorage, fmt.Errorf("failed to create %s: %w", path, err))
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		return domain.NewExtractionError(domain.FailureNetwork, fmt.Errorf("failed to download stream: %w", err))
	}
	if err := file.Close(); err != nil {
		return domain.NewExtractionError(domain.FailureStorage, err)
	}
	return nil
}
