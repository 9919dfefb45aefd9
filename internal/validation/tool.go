package validation

import (
	"time"

	"github.com/newleaf/newleaf/internal/model"
)

var toolConditions = []string{"new", "excellent", "good", "fair", "poor"}

// ToolCreate は道具登録の入力スキーマ。
type ToolCreate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Condition   string `json:"condition"`
	OwnerID     string `json:"-"`
}

// Validate は道具登録の入力を検証する。
func (in *ToolCreate) Validate() error {
	return First(
		ID("owner_id", in.OwnerID),
		Required("name", in.Name),
		Length("name", in.Name, 1, 100),
		MaxLength("description", in.Description, 1000),
		Required("category", in.Category),
		MaxLength("category", in.Category, model.MaxCategoryLength),
		OneOf("condition", in.Condition, toolConditions...),
	)
}

// ToolUpdate は道具の部分更新スキーマ。
type ToolUpdate struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	Condition    *string `json:"condition,omitempty"`
	Availability *string `json:"availability,omitempty"`
	// Maintenance が指定された場合はメンテナンス記録を追記する。
	Maintenance *string `json:"maintenance,omitempty"`
}

// Validate は道具の部分更新を検証する。
func (in *ToolUpdate) Validate() error {
	if in.Name != nil {
		if err := Length("name", *in.Name, 1, 100); err != nil {
			return err
		}
	}
	if in.Category != nil {
		if err := First(Required("category", *in.Category), MaxLength("category", *in.Category, model.MaxCategoryLength)); err != nil {
			return err
		}
	}
	if in.Condition != nil {
		if err := OneOf("condition", *in.Condition, toolConditions...); err != nil {
			return err
		}
	}
	if in.Availability != nil {
		// borrowedへの変更は貸出操作でのみ行う
		if err := OneOf("availability", model.ToolAvailability(*in.Availability), model.ToolAvailable, model.ToolMaintenance); err != nil {
			return err
		}
	}
	if in.Maintenance != nil {
		return First(Required("maintenance", *in.Maintenance), MaxLength("maintenance", *in.Maintenance, 500))
	}
	return nil
}

// ToolFilter は道具一覧の条件を検証する。
func ToolFilter(f model.ToolFilter) error {
	return First(
		OptionalOneOf("availability", f.Availability, model.ToolAvailable, model.ToolBorrowed, model.ToolMaintenance),
		OptionalID("owner_id", f.OwnerID),
	)
}

// ToolBorrow は貸出の入力スキーマ。
type ToolBorrow struct {
	ExpectedReturnDate *time.Time `json:"expected_return_date,omitempty"`
}

// Validate は返却予定日が未来であることを検証する。
func (in *ToolBorrow) Validate(now time.Time) error {
	if in.ExpectedReturnDate != nil && !in.ExpectedReturnDate.After(now) {
		return model.NewValidationError("expected_return_date", "返却予定日は未来の日時を指定してください。")
	}
	return nil
}

// ToolReturn は返却の入力スキーマ。
type ToolReturn struct {
	Condition string `json:"condition,omitempty"`
}

// Validate は返却時の状態を検証する。
func (in *ToolReturn) Validate() error {
	return OptionalOneOf("condition", in.Condition, toolConditions...)
}
