package handlers

import (
	"context"
	"errors"
	"log"
	"mime"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"ytdlapi/internal/core/domain"
)

const (
	statusMessage     = "YouTube Downloader API running!"
	missingURLDetail  = "Missing URL parameter"
	invalidTypeDetail = "Invalid type. Use 'video', 'audio', or 'thumbnail'"
	notFoundDetail    = "File not found"
)

// DownloadService is what the gateway needs from the service layer.
type DownloadService interface {
	Download(ctx context.Context, rawURL, rawKind string) (*domain.DownloadResult, error)
	Open(ctx context.Context, filename string) (*domain.StoredFile, error)
}

// HTTPHandler maps HTTP requests onto the download service.
type HTTPHandler struct {
	service DownloadService
	logger  *log.Logger
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(s DownloadService, logger *log.Logger) *HTTPHandler {
	return &HTTPHandler{service: s, logger: logger}
}

// Router builds the gin engine with all routes and middleware.
func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logging(h.logger), Recovery(h.logger), AllowAllOrigins())

	r.GET("/", h.HandleStatus)
	r.GET("/download", h.HandleDownload)
	r.GET("/file/:filename", h.HandleFile)
	r.NoRoute(h.HandleNotFound)

	return r
}

// HandleStatus is the liveness endpoint.
func (h *HTTPHandler) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{Status: "ok", Message: statusMessage})
}

// HandleDownload runs an extraction for ?url=&type=.
func (h *HTTPHandler) HandleDownload(c *gin.Context) {
	rawURL := c.Query("url")
	rawKind := c.DefaultQuery("type", string(domain.DefaultKind))

	res, err := h.service.Download(c.Request.Context(), rawURL, rawKind)
	if err != nil {
		h.writeDownloadError(c, err)
		return
	}

	if res.ThumbnailURL != "" {
		c.JSON(http.StatusOK, thumbnailResponse{ThumbnailURL: res.ThumbnailURL})
		return
	}
	c.JSON(http.StatusOK, downloadResponse{Title: res.Title, DownloadURL: res.DownloadURL})
}

// HandleNotFound answers unknown paths with the same body as a missing file.
func (h *HTTPHandler) HandleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorResponse{Detail: notFoundDetail})
}

// HandleFile streams a stored file as an opaque attachment.
func (h *HTTPHandler) HandleFile(c *gin.Context) {
	name := c.Param("filename")

	stored, err := h.service.Open(c.Request.Context(), name)
	if err != nil {
		h.writeFileError(c, err)
		return
	}

	f, err := os.Open(stored.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = domain.ErrFileNotFound
		}
		h.writeFileError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", attachment(stored.Name))
	http.ServeContent(c.Writer, c.Request, stored.Name, stored.ModTime, f)
}

func (h *HTTPHandler) writeDownloadError(c *gin.Context, err error) {
	var extErr *domain.ExtractionError
	switch {
	case errors.As(err, &extErr):
		c.JSON(http.StatusInternalServerError, errorResponse{
			Detail: "Error downloading: " + err.Error(),
			Kind:   string(extErr.Kind),
		})
	case errors.Is(err, domain.ErrMissingParameter):
		c.JSON(http.StatusBadRequest, errorResponse{Detail: missingURLDetail})
	case errors.Is(err, domain.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, errorResponse{Detail: invalidTypeDetail})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{
			Detail: "Error downloading: " + err.Error(),
			Kind:   string(domain.FailureKindOf(err)),
		})
	}
}

func (h *HTTPHandler) writeFileError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrFileNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Detail: notFoundDetail})
		return
	}
	h.logger.Printf("[REQ %s] ERROR: failed to open file: %v", domain.RequestIDFromContext(c.Request.Context()), err)
	c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Error reading file"})
}

func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}
