package validation

import (
	"time"

	"github.com/newleaf/newleaf/internal/model"
)

// BookingCreate は予約作成の入力スキーマ。
type BookingCreate struct {
	PlotID     *string   `json:"plot_id,omitempty"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Guests     int       `json:"guests"`
	TotalPrice float64   `json:"total_price"`
	Notes      string    `json:"notes,omitempty"`
	UserID     string    `json:"-"`
}

// Validate は予約作成の入力を検証する。開始日時はnowより後でなければならない。
func (in *BookingCreate) Validate(now time.Time) error {
	err := First(
		ID("user_id", in.UserID),
		AtLeast("guests", in.Guests, 1),
		NonNegative("total_price", in.TotalPrice),
		MaxLength("notes", in.Notes, 500),
		bookingDates(in.StartDate, in.EndDate, now),
	)
	if err != nil {
		return err
	}
	if in.PlotID != nil {
		return ID("plot_id", *in.PlotID)
	}
	return nil
}

func bookingDates(start, end, now time.Time) error {
	if start.IsZero() {
		return model.NewValidationError("start_date", "必須項目です。")
	}
	if !start.After(now) {
		return model.NewValidationError("start_date", "開始日時は未来の日時を指定してください。")
	}
	if !end.After(start) {
		return model.NewValidationError("end_date", "終了日時は開始日時より後を指定してください。")
	}
	return nil
}

// BookingUpdate は予約の部分更新スキーマ。
type BookingUpdate struct {
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Guests     *int       `json:"guests,omitempty"`
	TotalPrice *float64   `json:"total_price,omitempty"`
	Status     *string    `json:"status,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// Validate は更新後の予約全体が制約を満たすかを検証する。
func (in *BookingUpdate) Validate(current *model.Booking, now time.Time) error {
	if in.Guests != nil {
		if err := AtLeast("guests", *in.Guests, 1); err != nil {
			return err
		}
	}
	if in.TotalPrice != nil {
		if err := NonNegative("total_price", *in.TotalPrice); err != nil {
			return err
		}
	}
	if in.Status != nil {
		if err := OneOf("status", model.BookingStatus(*in.Status),
			model.BookingPending, model.BookingConfirmed, model.BookingCancelled, model.BookingCompleted); err != nil {
			return err
		}
	}
	if in.Notes != nil {
		if err := MaxLength("notes", *in.Notes, 500); err != nil {
			return err
		}
	}
	if in.StartDate != nil || in.EndDate != nil {
		start, end := current.StartDate, current.EndDate
		if in.StartDate != nil {
			start = *in.StartDate
		}
		if in.EndDate != nil {
			end = *in.EndDate
		}
		return bookingDates(start, end, now)
	}
	return nil
}

// Apply は部分更新を予約に適用する。
func (in *BookingUpdate) Apply(b *model.Booking) {
	if in.StartDate != nil {
		b.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		b.EndDate = *in.EndDate
	}
	if in.Guests != nil {
		b.Guests = *in.Guests
	}
	if in.TotalPrice != nil {
		b.TotalPrice = *in.TotalPrice
	}
	if in.Status != nil {
		b.Status = model.BookingStatus(*in.Status)
	}
	if in.Notes != nil {
		b.Notes = *in.Notes
	}
}
