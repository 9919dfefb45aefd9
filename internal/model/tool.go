package model

import "time"

// ToolAvailability は道具の貸出状態。
type ToolAvailability string

const (
	ToolAvailable   ToolAvailability = "available"
	ToolBorrowed    ToolAvailability = "borrowed"
	ToolMaintenance ToolAvailability = "maintenance"
)

// Borrower は現在の借り手。
type Borrower struct {
	UserID             string     `json:"user_id"`
	BorrowDate         time.Time  `json:"borrow_date"`
	ExpectedReturnDate *time.Time `json:"expected_return_date,omitempty"`
}

// BorrowRecord は貸出履歴の1件。
type BorrowRecord struct {
	UserID     string    `json:"user_id"`
	BorrowDate time.Time `json:"borrow_date"`
	ReturnDate time.Time `json:"return_date"`
	Condition  string    `json:"condition,omitempty"`
}

// MaintenanceRecord はメンテナンス記録の1件。
type MaintenanceRecord struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	PerformedBy string    `json:"performed_by,omitempty"`
}

// Tool はコミュニティで貸し借りする道具。
type Tool struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Description     string              `json:"description,omitempty"`
	Category        string              `json:"category"`
	Condition       string              `json:"condition"`
	Availability    ToolAvailability    `json:"availability"`
	OwnerID         string              `json:"owner_id"`
	CurrentBorrower *Borrower           `json:"current_borrower,omitempty"`
	BorrowHistory   []BorrowRecord      `json:"borrow_history"`
	MaintenanceLog  []MaintenanceRecord `json:"maintenance_log"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ToolFilter は道具一覧の条件。
type ToolFilter struct {
	Category     string
	Availability ToolAvailability
	OwnerID      string
}
