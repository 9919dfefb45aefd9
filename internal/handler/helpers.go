package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/newleaf/newleaf/internal/middleware"
	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/validation"
)

// maxBodyBytes はJSONリクエストボディの上限サイズ。
const maxBodyBytes = 1 << 20

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをJSONとして読み込む。失敗時は400を書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return false
	}
	return true
}

// requireUserID はコンテキストから認証済みユーザーIDを取り出す。未認証なら401を書き込む。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", false
	}
	return userID, true
}

// pathID はURLパラメータのIDを検証して返す。不正なら400を書き込む。
func pathID(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	id := chi.URLParam(r, key)
	if err := validation.ID(key, id); err != nil {
		handleServiceError(w, err)
		return "", false
	}
	return id, true
}

// pageFromQuery はクエリパラメータpage/limitからページ指定を組み立てる。
func pageFromQuery(w http.ResponseWriter, r *http.Request) (model.PaginationQuery, bool) {
	page, ok := intQuery(w, r, "page")
	if !ok {
		return model.PaginationQuery{}, false
	}
	limit, ok := intQuery(w, r, "limit")
	if !ok {
		return model.PaginationQuery{}, false
	}
	p, err := validation.Pagination(page, limit)
	if err != nil {
		handleServiceError(w, err)
		return model.PaginationQuery{}, false
	}
	return p, true
}

// intQuery は整数のクエリパラメータを読む。未指定は0。
func intQuery(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		handleServiceError(w, model.NewValidationError(key, "整数を指定してください。"))
		return 0, false
	}
	return v, true
}

// boolQuery は真偽値のクエリパラメータを読む。未指定はfalse。
func boolQuery(w http.ResponseWriter, r *http.Request, key string) (bool, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		handleServiceError(w, model.NewValidationError(key, "trueまたはfalseを指定してください。"))
		return false, false
	}
	return v, true
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// writeNotFound はリソース未検出の404を書き込む。
func writeNotFound(w http.ResponseWriter, resource, id string) {
	writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError(resource, id))
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidID, model.ErrCodeOwnListing,
		model.ErrCodeNegativeBalance, model.ErrCodeInvalidFileType:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeNotFound, model.ErrCodeUserNotFound, model.ErrCodeListingNotFound:
		return http.StatusNotFound
	case model.ErrCodeListingClosed, model.ErrCodeInsufficientPoints, model.ErrCodeConflict,
		model.ErrCodeTaskboardListed, model.ErrCodePlotLinked, model.ErrCodePlotUnavailable,
		model.ErrCodeToolUnavailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
