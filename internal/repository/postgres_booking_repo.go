package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/newleaf/newleaf/internal/model"
)

const bookingColumns = `id, user_id, plot_id, start_date, end_date, guests, total_price, status, notes, created_at, updated_at`

// PostgresBookingRepo はPostgreSQLを使用した予約リポジトリ。
type PostgresBookingRepo struct {
	db *sql.DB
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db *sql.DB) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: db}
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	b := &model.Booking{}
	var plotID sql.NullString
	if err := row.Scan(&b.ID, &b.UserID, &plotID, &b.StartDate, &b.EndDate, &b.Guests,
		&b.TotalPrice, &b.Status, &b.Notes, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.PlotID = nullStringPtr(plotID)
	return b, nil
}

// FindByID は指定IDの予約を取得する。
func (r *PostgresBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	return b, nil
}

// Create は予約を作成する。
func (r *PostgresBookingRepo) Create(ctx context.Context, b *model.Booking) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, plot_id, start_date, end_date, guests, total_price, status, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.UserID, stringPtrValue(b.PlotID), b.StartDate, b.EndDate, b.Guests,
		b.TotalPrice, b.Status, b.Notes, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("予約の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は予約を上書き更新する。
func (r *PostgresBookingRepo) Update(ctx context.Context, b *model.Booking) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET plot_id = $2, start_date = $3, end_date = $4, guests = $5,
		        total_price = $6, status = $7, notes = $8, updated_at = $9
		 WHERE id = $1`,
		b.ID, stringPtrValue(b.PlotID), b.StartDate, b.EndDate, b.Guests,
		b.TotalPrice, b.Status, b.Notes, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("予約の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は予約を削除する。
func (r *PostgresBookingRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("予約の削除に失敗しました: %w", err)
	}
	return affected(result)
}

// ListByUser はユーザーの予約一覧と総件数を開始日時の新しい順に返す。
func (r *PostgresBookingRepo) ListByUser(ctx context.Context, userID string, page model.PaginationQuery) ([]*model.Booking, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM bookings WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("予約数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1
		 ORDER BY start_date DESC, id LIMIT $2 OFFSET $3`,
		userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("予約行の読み取りに失敗しました: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("予約一覧の走査に失敗しました: %w", err)
	}
	return bookings, total, nil
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
