package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/newleaf/newleaf/internal/model"
)

const preferenceColumns = `group_type, item_weight, service_weight, share_weight,
	shared_weight, private_weight, recorded_at, expires_at, created_at, updated_at`

// PostgresPreferenceRepo はPostgreSQLを使用した推薦重みリポジトリ。
type PostgresPreferenceRepo struct {
	db *sql.DB
}

// NewPostgresPreferenceRepo はPostgresPreferenceRepoを生成する。
func NewPostgresPreferenceRepo(db *sql.DB) *PostgresPreferenceRepo {
	return &PostgresPreferenceRepo{db: db}
}

func scanPreference(row rowScanner) (*model.PreferenceMatrix, error) {
	m := &model.PreferenceMatrix{}
	var recordedAt, expiresAt sql.NullTime
	if err := row.Scan(&m.GroupType, &m.Listing.Item, &m.Listing.Service, &m.Listing.Share,
		&m.Plot.Shared, &m.Plot.Private, &recordedAt, &expiresAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if recordedAt.Valid {
		m.RecordedAt = &recordedAt.Time
	}
	if expiresAt.Valid {
		m.ExpiresAt = &expiresAt.Time
	}
	return m, nil
}

// FindByGroupType はセグメントの重みを取得する。見つからない場合はnilを返す。
func (r *PostgresPreferenceRepo) FindByGroupType(ctx context.Context, groupType model.SegmentCode) (*model.PreferenceMatrix, error) {
	m, err := scanPreference(r.db.QueryRowContext(ctx,
		`SELECT `+preferenceColumns+` FROM preferences WHERE group_type = $1`, groupType))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("推薦重みの取得に失敗しました: %w", err)
	}
	return m, nil
}

// Upsert は重みを作成または上書きする。
func (r *PostgresPreferenceRepo) Upsert(ctx context.Context, m *model.PreferenceMatrix) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preferences (group_type, item_weight, service_weight, share_weight,
		                          shared_weight, private_weight, recorded_at, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		 ON CONFLICT (group_type) DO UPDATE SET
		    item_weight = EXCLUDED.item_weight,
		    service_weight = EXCLUDED.service_weight,
		    share_weight = EXCLUDED.share_weight,
		    shared_weight = EXCLUDED.shared_weight,
		    private_weight = EXCLUDED.private_weight,
		    recorded_at = EXCLUDED.recorded_at,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = now()`,
		m.GroupType, m.Listing.Item, m.Listing.Service, m.Listing.Share,
		m.Plot.Shared, m.Plot.Private, m.RecordedAt, m.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("推薦重みの保存に失敗しました: %w", err)
	}
	return nil
}

// ListExpired はnow時点で有効期限切れの重みを返す。
func (r *PostgresPreferenceRepo) ListExpired(ctx context.Context, now time.Time) ([]*model.PreferenceMatrix, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+preferenceColumns+` FROM preferences
		 WHERE expires_at IS NOT NULL AND expires_at < $1
		 ORDER BY group_type`, now)
	if err != nil {
		return nil, fmt.Errorf("期限切れ推薦重みの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var list []*model.PreferenceMatrix
	for rows.Next() {
		m, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("推薦重み行の読み取りに失敗しました: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("推薦重みの走査に失敗しました: %w", err)
	}
	return list, nil
}

// compile-time interface check
var _ PreferenceRepository = (*PostgresPreferenceRepo)(nil)
