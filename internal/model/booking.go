package model

import "time"

// BookingStatus は予約の状態。
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Booking は区画などの利用予約。
type Booking struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	PlotID     *string       `json:"plot_id,omitempty"`
	StartDate  time.Time     `json:"start_date"`
	EndDate    time.Time     `json:"end_date"`
	Guests     int           `json:"guests"`
	TotalPrice float64       `json:"total_price"`
	Status     BookingStatus `json:"status"`
	Notes      string        `json:"notes,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
