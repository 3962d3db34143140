package handlers

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type downloadResponse struct {
	Title       string `json:"title"`
	DownloadURL string `json:"download_url"`
}

type thumbnailResponse struct {
	ThumbnailURL string `json:"thumbnail_url"`
}

type errorResponse struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind,omitempty"`
}
