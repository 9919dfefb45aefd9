// Package events はドメインイベントの発行を提供する。
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// 発行するサブジェクト。
const (
	SubjectListingPurchased    = "listing.purchased"
	SubjectNotificationCreated = "notification.created"
)

// ListingPurchased は出品購入の確定後に発行されるイベント。
type ListingPurchased struct {
	ListingID   string    `json:"listing_id"`
	SellerID    string    `json:"seller_id"`
	BuyerID     string    `json:"buyer_id"`
	Points      int       `json:"points"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// NotificationCreated は通知作成時に発行されるイベント。
type NotificationCreated struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	Type           string    `json:"type"`
	CreatedAt      time.Time `json:"created_at"`
}

// Publisher はイベント発行のインターフェース。
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
}

// NATSPublisher はNATSを使用したPublisher実装。
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher はNATSPublisherを生成する。
func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

// Connect はNATSサーバーに接続する。切断時は自動で再接続する。
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("newleaf"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("NATSへの接続に失敗しました: %w", err)
	}
	return nc, nil
}

// Publish はイベントをJSONにしてsubjectへ発行する。
func (p *NATSPublisher) Publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("イベントの変換に失敗しました: %w", err)
	}
	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	msg.Header.Set("Content-Type", "application/json")
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("イベントの発行に失敗しました: %w", err)
	}
	return nil
}

// Nop はイベントを破棄するPublisher。NATS_URL未設定時に使う。
type Nop struct{}

// Publish は何もしない。
func (Nop) Publish(context.Context, string, any) error { return nil }

// PublishBestEffort はイベントを発行し、失敗時はログのみ出力する。
// 発行の失敗で確定済みの処理を失敗扱いにしない。
func PublishBestEffort(ctx context.Context, p Publisher, subject string, event any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, event); err != nil {
		slog.Warn("event publish failed",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
	}
}

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = Nop{}
)
