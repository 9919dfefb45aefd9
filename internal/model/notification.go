package model

import "time"

// NotificationType は通知の種別。
type NotificationType string

const (
	NotificationSystem      NotificationType = "system"
	NotificationTask        NotificationType = "task"
	NotificationMarketplace NotificationType = "marketplace"
	NotificationPoints      NotificationType = "points"
	NotificationBadges      NotificationType = "badges"
	NotificationMembership  NotificationType = "membership"
	NotificationMisc        NotificationType = "misc"
)

// NotificationStatus は通知の既読状態。
type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

// Notification はユーザー宛ての通知。
type Notification struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Type      NotificationType   `json:"type"`
	Title     string             `json:"title"`
	Message   string             `json:"message"`
	Link      string             `json:"link,omitempty"`
	Status    NotificationStatus `json:"status"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty"`
	ReadAt    *time.Time         `json:"read_at,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
