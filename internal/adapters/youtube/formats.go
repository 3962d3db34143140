package youtube

import (
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// bestProgressive picks the highest resolution format that carries both audio and video.
func bestProgressive(formats youtube.FormatList) *youtube.Format {
	candidates := formats.WithAudioChannels().Type("video")
	var best *youtube.Format
	for i := range candidates {
		f := &candidates[i]
		if best == nil || f.Height > best.Height || (f.Height == best.Height && f.Bitrate > best.Bitrate) {
			best = f
		}
	}
	return best
}

// bestAudio picks the audio-only format with the highest bitrate.
func bestAudio(formats youtube.FormatList) *youtube.Format {
	candidates := formats.Type("audio")
	var best *youtube.Format
	for i := range candidates {
		if best == nil || candidates[i].Bitrate > best.Bitrate {
			best = &candidates[i]
		}
	}
	return best
}

// bestThumbnail picks the largest thumbnail.
func bestThumbnail(thumbs youtube.Thumbnails) *youtube.Thumbnail {
	var best *youtube.Thumbnail
	for i := range thumbs {
		if best == nil || thumbs[i].Width*thumbs[i].Height > best.Width*best.Height {
			best = &thumbs[i]
		}
	}
	return best
}

var extensionsByMime = map[string]string{
	"video/mp4":  "mp4",
	"video/webm": "webm",
	"video/3gpp": "3gp",
	"audio/mp4":  "m4a",
	"audio/webm": "webm",
}

func extensionFor(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "bin"
	}
	if ext, ok := extensionsByMime[mediaType]; ok {
		return ext
	}
	if _, sub, ok := strings.Cut(mediaType, "/"); ok && sub != "" {
		return sub
	}
	return "bin"
}

func thumbnailExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".jpg"
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	default:
		return ".jpg"
	}
}

// safeFileName turns a video title into a flat-directory file name.
func safeFileName(title, fallback string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = fallback
	}
	if name == "" {
		name = "video"
	}
	return name
}
