package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytdlapi/internal/adapters/localstorage"
	"ytdlapi/internal/core/domain"
	"ytdlapi/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubExtractor struct {
	calls int
	fn    func(ctx context.Context, req domain.DownloadRequest) (*domain.ExtractionResult, error)
}

func (s *stubExtractor) Extract(ctx context.Context, req domain.DownloadRequest) (*domain.ExtractionResult, error) {
	s.calls++
	return s.fn(ctx, req)
}

type testServer struct {
	router    *gin.Engine
	extractor *stubExtractor
	storage   *localstorage.LocalStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	storage := localstorage.NewLocalStorage(t.TempDir())
	require.NoError(t, storage.Init(context.Background()))

	logger := log.New(io.Discard, "", 0)
	ext := &stubExtractor{fn: func(ctx context.Context, req domain.DownloadRequest) (*domain.ExtractionResult, error) {
		return nil, errors.New("extractor not configured")
	}}
	svc := service.NewDownloadService(ext, storage, logger)

	return &testServer{
		router:    NewHTTPHandler(svc, logger).Router(),
		extractor: ext,
		storage:   storage,
	}
}

func (s *testServer) get(t *testing.T, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)

	rec := s.get(t, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","message":"YouTube Downloader API running!"}`, rec.Body.String())
}

func TestDownloadMissingURL(t *testing.T) {
	s := newTestServer(t)

	rec := s.get(t, "/download", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing URL parameter", decode(t, rec)["detail"])
	assert.Zero(t, s.extractor.calls)
}

func TestDownloadInvalidType(t *testing.T) {
	s := newTestServer(t)

	rec := s.get(t, "/download?url=https://youtu.be/x&type=bogus", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, strings.ToLower(decode(t, rec)["detail"]), "invalid type")
	assert.Zero(t, s.extractor.calls)
}

func TestDownloadTypeIsCaseSensitive(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"/download?url=https://youtu.be/x&type=AUDIO",
		"/download?url=https://youtu.be/x&type=%20audio%20",
		"/download?url=https://youtu.be/x&type=",
	} {
		rec := s.get(t, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, "Invalid type. Use 'video', 'audio', or 'thumbnail'", decode(t, rec)["detail"], target)
	}
	assert.Zero(t, s.extractor.calls)
}

func TestDownloadThumbnail(t *testing.T) {
	s := newTestServer(t)
	s.extractor.fn = func(ctx context.Context, req domain.DownloadRequest) (*domain.ExtractionResult, error) {
		assert.Equal(t, domain.KindThumbnail, req.Kind)
		return &domain.ExtractionResult{Title: "T", RemoteThumbnailURL: "https://i.ytimg.com/vi/x/maxresdefault.jpg"}, nil
	}

	rec := s.get(t, "/download?url=https://youtu.be/x&type=thumbnail", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"thumbnail_url":"https://i.ytimg.com/vi/x/maxresdefault.jpg"}`, rec.Body.String())
}

func TestDownloadAudioThenServeFile(t *testing.T) {
	s := newTestServer(t)
	s.extractor.fn = func(ctx context.Context, req domain.DownloadRequest) (*domain.ExtractionResult, error) {
		assert.Equal(t, domain.KindAudio, req.Kind)
		stored, err := s.storage.Save(ctx, "Song Title.mp3", strings.NewReader("ID3-audio"))
		require.NoError(t, err)
		return &domain.ExtractionResult{Title: "Song Title", LocalFilePath: stored.Path}, nil
	}

	rec := s.get(t, "/download?url=https://youtu.be/x&type=audio", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Song Title", body["title"])
	assert.Equal(t, "/file/Song%20Title.mp3", body["download_url"])

	file := s.get(t, body["download_url"], nil)
	require.Equal(t, http.StatusOK, file.Code)
	assert.Equal(t, "application/octet-stream", file.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Song Title.mp3"`, file.Header().Get("Content-Disposition"))
	assert.Equal(t, "ID3-audio", file.Body.String())
}

func TestDownloadDefaultsToVideo(t *testing.T) {
	s := newTestServer(t)
	s.extractor.fn = func(ctx context.Context, req domain.DownloadRequest) (*domain.ExtractionResult, error) {
		assert.Equal(t, domain.KindVideo, req.Kind)
		return &domain.ExtractionResult{Title: "Clip", LocalFilePath: filepath.Join(s.storage.Dir(), "Clip.mp4")}, nil
	}

	rec := s.get(t, "/download?url=https://youtu.be/x", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"title":"Clip","download_url":"/file/Clip.mp4"}`, rec.Body.String())
}

func TestDownloadExtractionFailure(t *testing.T) {
	s := newTestServer(t)
	s.extractor.fn = func(ctx context.Context, req domain.DownloadRequest) (*domain.ExtractionResult, error) {
		return nil, domain.NewExtractionError(domain.FailureUnsupported, errors.New("Unsupported URL: https://example.com"))
	}

	rec := s.get(t, "/download?url=https://example.com", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Error downloading: Unsupported URL: https://example.com", body["detail"])
	assert.Equal(t, "unsupported", body["kind"])
}

func TestDownloadRepeatedRequestsReinvokeExtractor(t *testing.T) {
	s := newTestServer(t)
	s.extractor.fn = func(ctx context.Context, req domain.DownloadRequest) (*domain.ExtractionResult, error) {
		return &domain.ExtractionResult{Title: "Clip", LocalFilePath: "Clip.mp4"}, nil
	}

	s.get(t, "/download?url=https://youtu.be/x", nil)
	s.get(t, "/download?url=https://youtu.be/x", nil)

	assert.Equal(t, 2, s.extractor.calls)
}

func TestFileNotFound(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/file/does-not-exist.mp4", "/file/..", "/file/.staging"} {
		rec := s.get(t, target, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "File not found", decode(t, rec)["detail"], target)
	}
}

func TestUnroutedPathsReturnJSONNotFound(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/file/a%2Fb", "/nope"} {
		rec := s.get(t, target, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "File not found", decode(t, rec)["detail"], target)
	}
}

func TestFileSupportsRange(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.storage.Dir(), "clip.mp4"), []byte("0123456789"), 0644))

	rec := s.get(t, "/file/clip.mp4", map[string]string{"Range": "bytes=2-4"})

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "234", rec.Body.String())
}

func TestRequestIDEchoedOrGenerated(t *testing.T) {
	s := newTestServer(t)

	rec := s.get(t, "/", map[string]string{"X-Request-ID": "abc-123"})
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = s.get(t, "/", nil)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/download", nil)
	req.Header.Set("Origin", "https://some-frontend.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = s.get(t, "/", map[string]string{"Origin": "https://other.example"})
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryReturnsJSON500(t *testing.T) {
	s := newTestServer(t)
	s.extractor.fn = func(ctx context.Context, req domain.DownloadRequest) (*domain.ExtractionResult, error) {
		panic("engine exploded")
	}

	rec := s.get(t, "/download?url=https://youtu.be/x", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decode(t, rec)["detail"])
}
