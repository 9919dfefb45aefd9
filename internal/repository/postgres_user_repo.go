package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/newleaf/newleaf/internal/model"
)

const userColumns = `id, email, first_name, last_name, role, verified, points,
	bio, avatar, skills, interests, street, city, region, post_code,
	favourite_plots, first_garden_joined, first_garden_lent, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db             *sql.DB
	acquireTimeout time.Duration
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// WithAcquireTimeout はトランザクション用の接続取得を待つ上限を設定する。0以下は無制限。
func (r *PostgresUserRepo) WithAcquireTimeout(d time.Duration) *PostgresUserRepo {
	r.acquireTimeout = d
	return r
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	var skills, interests, favourites pq.StringArray
	err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.Verified, &u.Points,
		&u.Profile.Bio, &u.Profile.Avatar, &skills, &interests,
		&u.Address.Street, &u.Address.City, &u.Address.Region, &u.Address.PostCode,
		&favourites, &u.FirstGardenJoined, &u.FirstGardenLent, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Profile.Skills = []string(skills)
	u.Profile.Interests = []string(interests)
	u.FavouritePlots = []string(favourites)
	return u, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name, role, verified, points,
		                    bio, avatar, skills, interests, street, city, region, post_code,
		                    favourite_plots, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.Role, u.Verified, u.Points,
		u.Profile.Bio, u.Profile.Avatar, pq.Array(nonNilStrings(u.Profile.Skills)), pq.Array(nonNilStrings(u.Profile.Interests)),
		u.Address.Street, u.Address.City, u.Address.Region, u.Address.PostCode,
		pq.Array(nonNilStrings(u.FavouritePlots)), u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	return nil
}

// List はユーザー一覧と総件数を返す。
func (r *PostgresUserRepo) List(ctx context.Context, role model.UserRole, page model.PaginationQuery) ([]*model.User, int, error) {
	var qa queryArgs
	var conds []string
	if role != "" {
		conds = append(conds, "role = "+qa.add(role))
	}
	where := whereClause(conds)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`+where, qa.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ユーザー数の取得に失敗しました: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id ASC LIMIT %s OFFSET %s`,
		userColumns, where, qa.add(page.Limit), qa.add(page.Offset()))
	users, err := r.queryUsers(ctx, query, qa.args...)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Search は氏名またはメールアドレスの部分一致でユーザーを検索する。
func (r *PostgresUserRepo) Search(ctx context.Context, term string, limit int) ([]*model.User, error) {
	return r.queryUsers(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1
		    OR (first_name || ' ' || last_name) ILIKE $1
		 ORDER BY first_name, last_name, id
		 LIMIT $2`,
		likePattern(term), limit,
	)
}

func (r *PostgresUserRepo) queryUsers(ctx context.Context, query string, args ...any) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ユーザー行の読み取りに失敗しました: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ユーザー一覧の走査に失敗しました: %w", err)
	}
	return users, nil
}

// UpdateProfile はプロフィールを部分更新する。
// 更新後に氏名と郵便番号が揃っていればverifiedをtrueにする。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	var qa queryArgs
	idArg := qa.add(id)
	sets := []string{"updated_at = now()"}
	if update.FirstName != nil {
		sets = append(sets, "first_name = "+qa.add(*update.FirstName))
	}
	if update.LastName != nil {
		sets = append(sets, "last_name = "+qa.add(*update.LastName))
	}
	if p := update.Profile; p != nil {
		sets = append(sets,
			"bio = "+qa.add(p.Bio),
			"avatar = "+qa.add(p.Avatar),
			"skills = "+qa.add(pq.Array(nonNilStrings(p.Skills))),
			"interests = "+qa.add(pq.Array(nonNilStrings(p.Interests))),
		)
	}
	if a := update.Address; a != nil {
		sets = append(sets,
			"street = "+qa.add(a.Street),
			"city = "+qa.add(a.City),
			"region = "+qa.add(a.Region),
			"post_code = "+qa.add(a.PostCode),
		)
	}

	tx, done, err := beginTx(ctx, r.db, r.acquireTimeout)
	if err != nil {
		return nil, err
	}
	defer done()

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = %s`, strings.Join(sets, ", "), idArg)
	result, err := tx.ExecContext(ctx, query, qa.args...)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}

	u, err := scanUser(tx.QueryRowContext(ctx,
		`UPDATE users SET verified = true
		 WHERE id = $1 AND first_name <> '' AND last_name <> '' AND post_code <> ''
		 RETURNING `+userColumns, id))
	if err == sql.ErrNoRows {
		u, err = scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	}
	if err != nil {
		return nil, fmt.Errorf("更新後のユーザーの取得に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return u, nil
}

// UpdatePoints はポイント残高を原子的に更新する。
func (r *PostgresUserRepo) UpdatePoints(ctx context.Context, id string, action model.PointsAction) (*model.User, error) {
	var row *sql.Row
	switch action.Type {
	case model.PointsActionSet:
		if action.Value < 0 {
			return nil, ErrNegativeBalance
		}
		row = r.db.QueryRowContext(ctx,
			`UPDATE users SET points = $2, updated_at = now() WHERE id = $1 RETURNING `+userColumns,
			id, action.Value)
	case model.PointsActionOffset:
		row = r.db.QueryRowContext(ctx,
			`UPDATE users SET points = points + $2, updated_at = now()
			 WHERE id = $1 AND points::bigint + $2 BETWEEN 0 AND `+strconv.Itoa(model.MaxPoints)+` RETURNING `+userColumns,
			id, action.Value)
	default:
		return nil, fmt.Errorf("不明なポイント更新種別です: %q", action.Type)
	}

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		// 対象が存在しないのか、残高が負になるのかを区別する
		existing, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, nil
		}
		if int64(existing.Points)+int64(action.Value) > model.MaxPoints {
			return nil, ErrPointsOverflow
		}
		return nil, ErrNegativeBalance
	}
	if err != nil {
		return nil, fmt.Errorf("ポイントの更新に失敗しました: %w", err)
	}
	return u, nil
}

// GrantMilestone は未達成の実績を達成済みにし、pointsを加算する。
func (r *PostgresUserRepo) GrantMilestone(ctx context.Context, id string, milestone GardenMilestone, points int) (bool, error) {
	var column string
	switch milestone {
	case MilestoneFirstGardenJoined:
		column = "first_garden_joined"
	case MilestoneFirstGardenLent:
		column = "first_garden_lent"
	default:
		return false, fmt.Errorf("不明な実績です: %q", milestone)
	}

	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %[1]s = true, points = points + $2, updated_at = now()
		             WHERE id = $1 AND %[1]s = false`, column),
		id, points)
	if err != nil {
		return false, fmt.Errorf("実績の付与に失敗しました: %w", err)
	}
	return affected(result)
}

// DeleteByID は指定IDのユーザーを削除する。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
