package handler

import (
	"context"
	"net/http"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/validation"
)

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type BookingServiceInterface interface {
	Create(ctx context.Context, in validation.BookingCreate) (*model.Booking, error)
	// GetByID は本人の予約のみ返す。他人の予約はnil。
	GetByID(ctx context.Context, id, userID string) (*model.Booking, error)
	List(ctx context.Context, userID string, page model.PaginationQuery) (*model.PaginatedResult[*model.Booking], error)
	Update(ctx context.Context, id, userID string, in validation.BookingUpdate) (*model.Booking, error)
	Delete(ctx context.Context, id, userID string) error
}

// BookingHandler は予約のHTTPハンドラー。
type BookingHandler struct {
	service BookingServiceInterface
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: service}
}

// ListBookings は自分の予約一覧を返す。
// GET /api/bookings
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}
	result, err := h.service.List(r.Context(), userID, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetBooking は予約詳細を返す。
// GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.service.GetByID(r.Context(), id, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if b == nil {
		writeNotFound(w, "予約", id)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// CreateBooking は予約を作成する。
// POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var in validation.BookingCreate
	if !decodeJSON(w, r, &in) {
		return
	}
	in.UserID = userID

	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// UpdateBooking は予約を更新する。
// PATCH /api/bookings/{id}
func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in validation.BookingUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.service.Update(r.Context(), id, userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteBooking は予約を削除する。
// DELETE /api/bookings/{id}
func (h *BookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
