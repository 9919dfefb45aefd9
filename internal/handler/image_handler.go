package handler

import (
	"context"
	"net/http"

	"github.com/newleaf/newleaf/internal/image"
)

// ImageStorage は画像アップロード用の署名付きURLと検証を提供する。
type ImageStorage interface {
	GenerateSignedURL(ctx context.Context, fileName, mimeType string) (*image.SignedUpload, error)
	ValidateImageURL(ctx context.Context, rawURL string) bool
}

// ImageHandler は画像アップロードのHTTPハンドラー。
type ImageHandler struct {
	storage ImageStorage
}

// NewImageHandler はImageHandlerを生成する。
func NewImageHandler(storage ImageStorage) *ImageHandler {
	return &ImageHandler{storage: storage}
}

type signedURLRequest struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
}

type validateImageRequest struct {
	URL string `json:"url"`
}

// SignedURL はアップロード用の署名付きPUT URLを発行する。
// POST /api/images/signed-url
func (h *ImageHandler) SignedURL(w http.ResponseWriter, r *http.Request) {
	var req signedURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	upload, err := h.storage.GenerateSignedURL(r.Context(), req.FileName, req.MimeType)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, upload)
}

// ValidateURL は画像URLが自バケットに存在するかを返す。
// POST /api/images/validate
func (h *ImageHandler) ValidateURL(w http.ResponseWriter, r *http.Request) {
	var req validateImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": h.storage.ValidateImageURL(r.Context(), req.URL)})
}
