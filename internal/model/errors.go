// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, not_found, auth, conflict, system
	Action   string // ユーザー向け対処方法
	Field    string // バリデーションエラーの対象フィールド（フォーム表示用）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidID          = "INVALID_ID"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeListingNotFound    = "LISTING_NOT_FOUND"
	ErrCodeListingClosed      = "LISTING_CLOSED"
	ErrCodeOwnListing         = "OWN_LISTING"
	ErrCodeInsufficientPoints = "INSUFFICIENT_POINTS"
	ErrCodeNegativeBalance    = "NEGATIVE_BALANCE"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeTaskboardListed    = "TASKBOARD_LISTED"
	ErrCodePlotLinked         = "PLOT_LINKED"
	ErrCodePlotUnavailable    = "PLOT_UNAVAILABLE"
	ErrCodeToolUnavailable    = "TOOL_UNAVAILABLE"
	ErrCodeInvalidFileType    = "INVALID_FILE_TYPE"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
)

// NewValidationError はフィールド単位のバリデーションエラーを生成する。
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
		Field:    field,
	}
}

// NewInvalidIDError はID形式が不正な場合のエラーを生成する。
// ストレージへの問い合わせ前に返される。
func NewInvalidIDError(field, id string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("IDの形式が不正です: %q", id),
		Category: "validation",
		Action:   "正しいIDを指定してください。",
		Field:    field,
	}
}

// NewNotFoundError は汎用の未検出エラーを生成する。
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%sが見つかりません: %s", resource, id),
		Category: "not_found",
		Action:   "IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "not_found",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewListingNotFoundError は出品が見つからない場合のエラーを生成する。
func NewListingNotFoundError(listingID string) *APIError {
	return &APIError{
		Code:     ErrCodeListingNotFound,
		Message:  fmt.Sprintf("指定された出品が見つかりません: %s", listingID),
		Category: "not_found",
		Action:   "出品IDを確認してください。",
	}
}

// NewListingClosedError は出品が既にクローズされている場合のエラーを生成する。
func NewListingClosedError() *APIError {
	return &APIError{
		Code:     ErrCodeListingClosed,
		Message:  "この出品は既に終了しています。",
		Category: "conflict",
		Action:   "他の出品を探してください。",
	}
}

// NewOwnListingError は自分の出品を購入しようとした場合のエラーを生成する。
func NewOwnListingError() *APIError {
	return &APIError{
		Code:     ErrCodeOwnListing,
		Message:  "自分の出品は購入できません。",
		Category: "validation",
		Action:   "他のユーザーの出品を選択してください。",
	}
}

// NewInsufficientPointsError はポイント残高が不足している場合のエラーを生成する。
func NewInsufficientPointsError(balance int, price float64) *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientPoints,
		Message:  fmt.Sprintf("ポイントが不足しています（残高: %d, 価格: %.0f）。", balance, price),
		Category: "conflict",
		Action:   "ポイントを貯めてから再度お試しください。",
	}
}

// NewNegativeBalanceError はポイント残高が負になる更新のエラーを生成する。
func NewNegativeBalanceError(result int) *APIError {
	return &APIError{
		Code:     ErrCodeNegativeBalance,
		Message:  fmt.Sprintf("ポイント残高を負の値にすることはできません: %d", result),
		Category: "validation",
		Action:   "0以上になる値を指定してください。",
		Field:    "value",
	}
}

// NewForbiddenError は操作権限がない場合のエラーを生成する。
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  message,
		Category: "auth",
		Action:   "この操作を行う権限があるか確認してください。",
	}
}

// NewConflictError は重複など状態の競合エラーを生成する。
func NewConflictError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeConflict,
		Message:  message,
		Category: "conflict",
		Action:   "現在の状態を確認してから再度お試しください。",
	}
}

// NewTaskboardListedError はマーケットに出品中のタスクボードを変更しようとした場合のエラーを生成する。
func NewTaskboardListedError(taskboardID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskboardListed,
		Message:  fmt.Sprintf("タスクボード %s はマーケットに出品中です。", taskboardID),
		Category: "conflict",
		Action:   "先に出品を削除してください。",
	}
}

// NewPlotLinkedError は区画に紐付いたタスクボードを削除しようとした場合のエラーを生成する。
func NewPlotLinkedError() *APIError {
	return &APIError{
		Code:     ErrCodePlotLinked,
		Message:  "[PLOT_LINKED] このタスクボードは区画に紐付いています。",
		Category: "conflict",
		Action:   "区画ごと削除する場合は force を指定してください。",
	}
}

// NewPlotUnavailableError は区画が満員またはメンテナンス中の場合のエラーを生成する。
func NewPlotUnavailableError(status PlotStatus) *APIError {
	return &APIError{
		Code:     ErrCodePlotUnavailable,
		Message:  fmt.Sprintf("区画は現在参加を受け付けていません（状態: %s）。", status),
		Category: "conflict",
		Action:   "区画の状態が変わるまでお待ちください。",
	}
}

// NewToolUnavailableError は道具が貸出できない状態の場合のエラーを生成する。
func NewToolUnavailableError(availability ToolAvailability) *APIError {
	return &APIError{
		Code:     ErrCodeToolUnavailable,
		Message:  fmt.Sprintf("この道具は現在貸出できません（状態: %s）。", availability),
		Category: "conflict",
		Action:   "返却されるまでお待ちください。",
	}
}

// NewInvalidFileTypeError は画像以外のMIMEタイプが指定された場合のエラーを生成する。
func NewInvalidFileTypeError(mimeType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFileType,
		Message:  fmt.Sprintf("画像ファイルのみアップロードできます: %s", mimeType),
		Category: "validation",
		Action:   "image/ で始まるMIMEタイプのファイルを選択してください。",
		Field:    "mime_type",
	}
}

// NewUnauthorizedError は認証トークンが無効または欠落している場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
