package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/newleaf/newleaf/internal/model"
)

const plotColumns = `id, name, description, size, location, owner_id, status, condition, soil_ph,
	soil_type, garden_setting, group_type, member_limit, required_tasks, plants, members, requests,
	images, created_at, updated_at`

// plotSortColumns は並び順指定と列名の対応。
var plotSortColumns = map[string]string{
	"name":      "name",
	"size":      "size",
	"createdAt": "created_at",
}

// PostgresPlotRepo はPostgreSQLを使用した区画リポジトリ。
type PostgresPlotRepo struct {
	db *sql.DB
}

// NewPostgresPlotRepo はPostgresPlotRepoを生成する。
func NewPostgresPlotRepo(db *sql.DB) *PostgresPlotRepo {
	return &PostgresPlotRepo{db: db}
}

func scanPlot(row rowScanner) (*model.Plot, error) {
	p := &model.Plot{}
	var requiredTasks []byte
	var plants, members, requests, images pq.StringArray
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Size, &p.Location, &p.OwnerID, &p.Status,
		&p.Condition, &p.SoilPh, &p.SoilType, &p.GardenSetting, &p.GroupType, &p.MemberLimit,
		&requiredTasks, &plants, &members, &requests, &images, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(requiredTasks) > 0 {
		if err := json.Unmarshal(requiredTasks, &p.RequiredTasks); err != nil {
			return nil, fmt.Errorf("必要作業の読み取りに失敗しました: %w", err)
		}
	}
	if p.RequiredTasks == nil {
		p.RequiredTasks = []model.RequiredTask{}
	}
	p.Plants = nonNilStrings(plants)
	p.Members = nonNilStrings(members)
	p.Requests = nonNilStrings(requests)
	p.Images = nonNilStrings(images)
	return p, nil
}

func (r *PostgresPlotRepo) findOne(ctx context.Context, query string, args ...any) (*model.Plot, error) {
	p, err := scanPlot(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("区画の取得に失敗しました: %w", err)
	}
	return p, nil
}

func (r *PostgresPlotRepo) query(ctx context.Context, query string, args ...any) ([]*model.Plot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("区画一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var plots []*model.Plot
	for rows.Next() {
		p, err := scanPlot(rows)
		if err != nil {
			return nil, fmt.Errorf("区画行の読み取りに失敗しました: %w", err)
		}
		plots = append(plots, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("区画一覧の走査に失敗しました: %w", err)
	}
	return plots, nil
}

// FindByID は指定IDの区画を取得する。
func (r *PostgresPlotRepo) FindByID(ctx context.Context, id string) (*model.Plot, error) {
	return r.findOne(ctx, `SELECT `+plotColumns+` FROM plots WHERE id = $1`, id)
}

// Create は区画を作成する。
func (r *PostgresPlotRepo) Create(ctx context.Context, p *model.Plot) error {
	tasks, err := jsonValue(p.RequiredTasks)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO plots (id, name, description, size, location, owner_id, status, condition, soil_ph,
		                   soil_type, garden_setting, group_type, member_limit, required_tasks, plants,
		                   members, requests, images, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		p.ID, p.Name, p.Description, p.Size, p.Location, p.OwnerID, p.Status, p.Condition, p.SoilPh,
		p.SoilType, p.GardenSetting, p.GroupType, p.MemberLimit, tasks, pq.Array(nonNilStrings(p.Plants)),
		pq.Array(nonNilStrings(p.Members)), pq.Array(nonNilStrings(p.Requests)), pq.Array(nonNilStrings(p.Images)),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("区画の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は区画を上書き更新する。メンバーと申請は変更しない。
func (r *PostgresPlotRepo) Update(ctx context.Context, p *model.Plot) error {
	tasks, err := jsonValue(p.RequiredTasks)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE plots SET name = $2, description = $3, size = $4, location = $5, status = $6,
		        condition = $7, soil_ph = $8, soil_type = $9, garden_setting = $10, group_type = $11,
		        member_limit = $12, required_tasks = $13, plants = $14, images = $15, updated_at = $16
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Size, p.Location, p.Status, p.Condition, p.SoilPh, p.SoilType,
		p.GardenSetting, p.GroupType, p.MemberLimit, tasks, pq.Array(nonNilStrings(p.Plants)),
		pq.Array(nonNilStrings(p.Images)), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("区画の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は区画を削除する。
func (r *PostgresPlotRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM plots WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("区画の削除に失敗しました: %w", err)
	}
	return affected(result)
}

// plotConditions はフィルタをWHERE条件に変換する。
func plotConditions(f model.PlotFilter, qa *queryArgs) []string {
	var conds []string
	if f.Status != "" {
		conds = append(conds, "status = "+qa.add(f.Status))
	}
	if f.GroupType != "" {
		conds = append(conds, "group_type = "+qa.add(f.GroupType))
	}
	if f.SoilType != "" {
		conds = append(conds, "soil_type = "+qa.add(f.SoilType))
	}
	if f.Condition != "" {
		conds = append(conds, "condition = "+qa.add(f.Condition))
	}
	if f.OwnerID != "" {
		conds = append(conds, "owner_id = "+qa.add(f.OwnerID))
	}
	return conds
}

// plotOrderBy は "field:dir" 形式の並び順をORDER BY句に変換する。不明な指定は作成日時の新しい順。
func plotOrderBy(sort string) string {
	field, dir, _ := strings.Cut(sort, ":")
	col, ok := plotSortColumns[field]
	if !ok {
		return " ORDER BY created_at DESC, id ASC"
	}
	if dir == "desc" {
		return " ORDER BY " + col + " DESC, id ASC"
	}
	return " ORDER BY " + col + " ASC, id ASC"
}

// List は条件に一致する区画一覧と総件数を返す。
func (r *PostgresPlotRepo) List(ctx context.Context, f model.PlotFilter, page model.PaginationQuery) ([]*model.Plot, int, error) {
	var qa queryArgs
	where := whereClause(plotConditions(f, &qa))
	return r.listPage(ctx, where, len(qa.args), plotOrderBy(f.Sort), &qa, page)
}

// plotRankedOrderBy は共有形態の重み、作成日時、IDの順のORDER BY句を組み立てる。
func plotRankedOrderBy(ranking model.PlotRanking, qa *queryArgs) string {
	return fmt.Sprintf(
		" ORDER BY CASE group_type WHEN %s THEN %s::float8 WHEN %s THEN %s::float8 ELSE 0 END DESC, created_at DESC, id ASC",
		qa.add(model.PlotCommunal), qa.add(ranking.Weights[model.PlotCommunal]),
		qa.add(model.PlotPrivate), qa.add(ranking.Weights[model.PlotPrivate]))
}

// ListRanked は共有形態の重みの大きい順、作成日時の新しい順に並べた区画一覧を返す。
func (r *PostgresPlotRepo) ListRanked(ctx context.Context, f model.PlotFilter, ranking model.PlotRanking, page model.PaginationQuery) ([]*model.Plot, int, error) {
	var qa queryArgs
	where := whereClause(plotConditions(f, &qa))
	nWhere := len(qa.args)
	return r.listPage(ctx, where, nWhere, plotRankedOrderBy(ranking, &qa), &qa, page)
}

func (r *PostgresPlotRepo) listPage(ctx context.Context, where string, nWhere int, orderBy string, qa *queryArgs, page model.PaginationQuery) ([]*model.Plot, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM plots`+where, qa.args[:nWhere]...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("区画数の取得に失敗しました: %w", err)
	}
	plots, err := r.query(ctx,
		fmt.Sprintf(`SELECT %s FROM plots%s%s LIMIT %s OFFSET %s`,
			plotColumns, where, orderBy, qa.add(page.Limit), qa.add(page.Offset())),
		qa.args...)
	if err != nil {
		return nil, 0, err
	}
	return plots, total, nil
}

// ListByUser はユーザーが所有または参加している区画を返す。
func (r *PostgresPlotRepo) ListByUser(ctx context.Context, userID string) ([]*model.Plot, error) {
	return r.query(ctx,
		`SELECT `+plotColumns+` FROM plots
		 WHERE owner_id = $1 OR $1 = ANY(members)
		 ORDER BY created_at DESC, id`, userID)
}

// CountByOwner は所有する区画数を返す。
func (r *PostgresPlotRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM plots WHERE owner_id = $1`, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("区画数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// AddRequest は参加申請を追加する。
func (r *PostgresPlotRepo) AddRequest(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE plots SET requests = array_append(requests, $2::uuid), updated_at = now()
		 WHERE id = $1 AND NOT ($2::uuid = ANY(requests)) AND NOT ($2::uuid = ANY(members))`,
		id, userID)
	if err != nil {
		return false, fmt.Errorf("参加申請の追加に失敗しました: %w", err)
	}
	return affected(result)
}

// RemoveRequest は参加申請を取り消す。
func (r *PostgresPlotRepo) RemoveRequest(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE plots SET requests = array_remove(requests, $2::uuid), updated_at = now()
		 WHERE id = $1 AND $2::uuid = ANY(requests)`,
		id, userID)
	if err != nil {
		return false, fmt.Errorf("参加申請の取り消しに失敗しました: %w", err)
	}
	return affected(result)
}

// AcceptMember は申請者をメンバーに移す。上限に達した場合は同じ更新でfullにする。
func (r *PostgresPlotRepo) AcceptMember(ctx context.Context, id, userID string) (*model.Plot, error) {
	p, err := scanPlot(r.db.QueryRowContext(ctx,
		`UPDATE plots SET
		    members = array_append(members, $2::uuid),
		    requests = array_remove(requests, $2::uuid),
		    status = CASE WHEN cardinality(members) + 1 >= member_limit THEN 'full' ELSE status END,
		    updated_at = now()
		 WHERE id = $1 AND status = 'available'
		   AND $2::uuid = ANY(requests) AND NOT ($2::uuid = ANY(members))
		 RETURNING `+plotColumns,
		id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メンバーの承認に失敗しました: %w", err)
	}
	return p, nil
}

// RemoveMember はメンバーを外し、fullの場合はavailableに戻す。
func (r *PostgresPlotRepo) RemoveMember(ctx context.Context, id, userID string) (*model.Plot, error) {
	p, err := scanPlot(r.db.QueryRowContext(ctx,
		`UPDATE plots SET
		    members = array_remove(members, $2::uuid),
		    status = CASE WHEN status = 'full' THEN 'available' ELSE status END,
		    updated_at = now()
		 WHERE id = $1 AND $2::uuid = ANY(members)
		 RETURNING `+plotColumns,
		id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メンバーの削除に失敗しました: %w", err)
	}
	return p, nil
}

// compile-time interface check
var _ PlotRepository = (*PostgresPlotRepo)(nil)
