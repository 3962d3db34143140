package ytdlp

import (
	"context"
	"errors"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"ytdlapi/internal/core/domain"
)

// engineError carries yt-dlp's own error line while keeping the exec error reachable.
type engineError struct {
	msg string
	err error
}

func (e *engineError) Error() string { return e.msg }
func (e *engineError) Unwrap() error { return e.err }

var failurePatterns = []struct {
	kind    domain.FailureKind
	needles []string
}{
	{domain.FailureUnsupported, []string{"unsupported url", "is not a valid url", "no video formats found", "invalid url"}},
	{domain.FailureUnavailable, []string{"video unavailable", "private video", "available in your country", "geo restrict", "sign in to confirm", "members-only", "this video has been removed", "requested format is not available"}},
	{domain.FailureTranscode, []string{"postprocessing", "ffmpeg", "ffprobe", "audio conversion failed"}},
	{domain.FailureStorage, []string{"no space left on device", "permission denied", "unable to open for writing", "read-only file system"}},
	{domain.FailureNetwork, []string{"unable to download", "http error", "urlopen error", "timed out", "connection reset", "connection refused", "name or service not known", "temporary failure in name resolution", "network is unreachable"}},
}

// classify turns a failed yt-dlp run into a tagged extraction error.
func classify(result *ytdlp.Result, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewExtractionError(domain.FailureUnknown, err)
	}

	var stderr string
	if result != nil {
		stderr = result.Stderr
	}

	msg := errorLine(stderr)
	if msg == "" {
		msg = err.Error()
	}

	return domain.NewExtractionError(failureKind(stderr+"\n"+err.Error()), &engineError{msg: msg, err: err})
}

func failureKind(text string) domain.FailureKind {
	text = strings.ToLower(text)
	for _, p := range failurePatterns {
		for _, needle := range p.needles {
			if strings.Contains(text, needle) {
				return p.kind
			}
		}
	}
	return domain.FailureUnknown
}

// errorLine returns the last "ERROR:" line yt-dlp wrote, without the prefix.
func errorLine(stderr string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	return ""
}
