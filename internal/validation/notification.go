package validation

import (
	"time"

	"github.com/newleaf/newleaf/internal/model"
)

// NotificationCreate は通知作成の入力スキーマ。
type NotificationCreate struct {
	UserID    string     `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Link      string     `json:"link,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Validate は通知作成の入力を検証する。
func (in *NotificationCreate) Validate() error {
	return First(
		ID("user_id", in.UserID),
		OneOf("type", model.NotificationType(in.Type),
			model.NotificationSystem, model.NotificationTask, model.NotificationMarketplace,
			model.NotificationPoints, model.NotificationBadges, model.NotificationMembership,
			model.NotificationMisc),
		Required("title", in.Title),
		Length("title", in.Title, 1, 200),
		Required("message", in.Message),
		Length("message", in.Message, 1, 1000),
		MaxLength("link", in.Link, 500),
	)
}

// NotificationStatus は通知状態フィルタを検証する。空は条件なし。
func NotificationStatus(status string) error {
	return OptionalOneOf("status", model.NotificationStatus(status), model.NotificationUnread, model.NotificationRead)
}
