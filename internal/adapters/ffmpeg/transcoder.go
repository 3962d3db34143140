package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultAudioBitrate matches the yt-dlp engine's MP3 quality.
const DefaultAudioBitrate = "192k"

// CommandRunner runs external commands. It exists so tests can replace os/exec.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecCommandRunner is the production CommandRunner.
type ExecCommandRunner struct{}

// Run executes a command and folds its stderr into the returned error.
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w, stderr: %s", name, err, lastLines(stderr.String(), 5))
	}
	return nil
}

// Transcoder implements ports.Transcoder using ffmpeg.
type Transcoder struct {
	ffmpegPath string
	runner     CommandRunner
}

// Option configures a Transcoder.
type Option func(*Transcoder)

// WithFFmpegPath sets a custom ffmpeg executable path.
func WithFFmpegPath(path string) Option {
	return func(t *Transcoder) {
		if path != "" {
			t.ffmpegPath = path
		}
	}
}

// WithCommandRunner sets a custom command runner.
func WithCommandRunner(runner CommandRunner) Option {
	return func(t *Transcoder) {
		t.runner = runner
	}
}

// NewTranscoder creates a new ffmpeg-backed transcoder.
func NewTranscoder(opts ...Option) *Transcoder {
	t := &Transcoder{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ToMP3 converts srcPath into an MP3 at dstPath.
// bitrate accepts either "192" or "192k".
func (t *Transcoder) ToMP3(ctx context.Context, srcPath, dstPath, bitrate string) error {
	args := []string{
		"-y",
		"-i", srcPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", normalizeBitrate(bitrate),
		dstPath,
	}

	if err := t.runner.Run(ctx, t.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg mp3 conversion failed: %w", err)
	}
	return nil
}

func normalizeBitrate(bitrate string) string {
	bitrate = strings.TrimSpace(strings.ToLower(bitrate))
	if bitrate == "" {
		return DefaultAudioBitrate
	}
	if !strings.HasSuffix(bitrate, "k") {
		bitrate += "k"
	}
	return bitrate
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
