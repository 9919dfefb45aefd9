package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/newleaf/newleaf/internal/model"
)

const notificationColumns = `id, user_id, type, title, message, link, status, expires_at, read_at, created_at, updated_at`

// PostgresNotificationRepo はPostgreSQLを使用した通知リポジトリ。
type PostgresNotificationRepo struct {
	db *sql.DB
}

// NewPostgresNotificationRepo はPostgresNotificationRepoを生成する。
func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

func scanNotification(row rowScanner) (*model.Notification, error) {
	n := &model.Notification{}
	var expiresAt, readAt sql.NullTime
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &n.Status,
		&expiresAt, &readAt, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		n.ExpiresAt = &expiresAt.Time
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	return n, nil
}

// insertNotification は通知を挿入する。出品購入のトランザクションからも使用する。
func insertNotification(ctx context.Context, ex execer, n *model.Notification) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, link, status, expires_at, read_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Link, n.Status, n.ExpiresAt, n.ReadAt, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("通知の作成に失敗しました: %w", err)
	}
	return nil
}

// Create は通知を作成する。
func (r *PostgresNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return insertNotification(ctx, r.db, n)
}

// List はユーザーの通知一覧と総件数を新しい順に返す。
func (r *PostgresNotificationRepo) List(ctx context.Context, userID string, status model.NotificationStatus, page model.PaginationQuery) ([]*model.Notification, int, error) {
	var qa queryArgs
	conds := []string{"user_id = " + qa.add(userID)}
	if status != "" {
		conds = append(conds, "status = "+qa.add(status))
	}
	where := whereClause(conds)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM notifications`+where, qa.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("通知数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM notifications%s ORDER BY created_at DESC, id ASC LIMIT %s OFFSET %s`,
			notificationColumns, where, qa.add(page.Limit), qa.add(page.Offset())),
		qa.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var list []*model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("通知行の読み取りに失敗しました: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("通知一覧の走査に失敗しました: %w", err)
	}
	return list, total, nil
}

// CountUnread は未読通知の件数を返す。
func (r *PostgresNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND status = 'unread'`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("未読通知数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// MarkAsRead は本人の通知を既読にする。既に既読の場合はread_atを維持する。
func (r *PostgresNotificationRepo) MarkAsRead(ctx context.Context, id, userID string) (*model.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx,
		`UPDATE notifications
		 SET status = 'read', read_at = COALESCE(read_at, now()), updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+notificationColumns,
		id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("通知の既読化に失敗しました: %w", err)
	}
	return n, nil
}

// MarkAllAsRead は本人の未読通知をすべて既読にする。
func (r *PostgresNotificationRepo) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET status = 'read', read_at = now(), updated_at = now()
		 WHERE user_id = $1 AND status = 'unread'`, userID)
	if err != nil {
		return 0, fmt.Errorf("通知の一括既読化に失敗しました: %w", err)
	}
	return result.RowsAffected()
}

// Delete は本人の通知を削除する。
func (r *PostgresNotificationRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("通知の削除に失敗しました: %w", err)
	}
	return affected(result)
}

// DeleteExpired は期限切れの通知と、保持期間を過ぎた既読通知を削除する。
func (r *PostgresNotificationRepo) DeleteExpired(ctx context.Context, now time.Time, readRetention time.Duration) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications
		 WHERE (expires_at IS NOT NULL AND expires_at < $1)
		    OR (status = 'read' AND read_at < $2)`,
		now, now.Add(-readRetention))
	if err != nil {
		return 0, fmt.Errorf("期限切れ通知の削除に失敗しました: %w", err)
	}
	return result.RowsAffected()
}

// compile-time interface check
var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
