// Package validation はストレージに依存しない入力スキーマと検証ロジックを提供する。
// 各スキーマは副作用の前に呼び出され、最初に見つかった違反を
// フィールド付きの *model.APIError として返す。
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/newleaf/newleaf/internal/model"
)

// ID はIDがUUID形式であることを検証する。
func ID(field, id string) error {
	if id == "" {
		return model.NewValidationError(field, "必須項目です。")
	}
	if _, err := uuid.Parse(id); err != nil {
		return model.NewInvalidIDError(field, id)
	}
	return nil
}

// OptionalID は空でない場合のみIDを検証する。
func OptionalID(field, id string) error {
	if id == "" {
		return nil
	}
	return ID(field, id)
}

// Required は前後の空白を除いた値が空でないことを検証する。
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return model.NewValidationError(field, "必須項目です。")
	}
	return nil
}

// Length は文字数がmin以上max以下であることを検証する。maxが0の場合は上限なし。
func Length(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min {
		return model.NewValidationError(field, fmt.Sprintf("%d文字以上で入力してください。", min))
	}
	if max > 0 && n > max {
		return model.NewValidationError(field, fmt.Sprintf("%d文字以内で入力してください。", max))
	}
	return nil
}

// MaxLength は文字数の上限のみを検証する。
func MaxLength(field, value string, max int) error {
	return Length(field, value, 0, max)
}

// OneOf は値が許可リストに含まれることを検証する。空文字は不許可。
func OneOf[T ~string](field string, value T, allowed ...T) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return model.NewValidationError(field,
		fmt.Sprintf("無効な値です: %q（%s のいずれかを指定してください）", value, strings.Join(names, ", ")))
}

// OptionalOneOf は空でない場合のみOneOfを適用する。
func OptionalOneOf[T ~string](field string, value T, allowed ...T) error {
	if value == "" {
		return nil
	}
	return OneOf(field, value, allowed...)
}

// NonNegative は数値が0以上であることを検証する。
func NonNegative(field string, value float64) error {
	if value < 0 {
		return model.NewValidationError(field, "0以上の値を指定してください。")
	}
	return nil
}

// Below は数値がlimit未満であることを検証する。
func Below(field string, value, limit float64) error {
	if value >= limit {
		return model.NewValidationError(field, fmt.Sprintf("%.0f未満の値を指定してください。", limit))
	}
	return nil
}

// AtLeast は整数値がmin以上であることを検証する。
func AtLeast(field string, value, min int) error {
	if value < min {
		return model.NewValidationError(field, fmt.Sprintf("%d以上の値を指定してください。", min))
	}
	return nil
}

// Pagination はページ番号と件数を検証し、0値にはデフォルトを適用する。
func Pagination(page, limit int) (model.PaginationQuery, error) {
	if page == 0 {
		page = model.DefaultPage
	}
	if limit == 0 {
		limit = model.DefaultLimit
	}
	if page < 1 {
		return model.PaginationQuery{}, model.NewValidationError("page", "1以上の値を指定してください。")
	}
	if limit < 1 {
		return model.PaginationQuery{}, model.NewValidationError("limit", "1以上の値を指定してください。")
	}
	if limit > model.MaxLimit {
		return model.PaginationQuery{}, model.NewValidationError("limit",
			fmt.Sprintf("%d以下の値を指定してください。", model.MaxLimit))
	}
	return model.PaginationQuery{Page: page, Limit: limit}, nil
}

// First は最初の非nilエラーを返す。スキーマの検証を宣言的に並べるために使う。
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
