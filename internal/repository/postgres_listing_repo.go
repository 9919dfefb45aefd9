package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/newleaf/newleaf/internal/model"
)

const listingColumns = `id, name, price, quantity, type, category, status, image_urls, description,
	created_by, purchased_by, taskboard_id, pickup_method, postcode, location_lng, location_lat,
	created_at, updated_at`

// listingSortColumns は並び順に指定可能な論理名と列名の対応。
// ここにない論理名はORDER BYに渡らない。
var listingSortColumns = map[string]string{
	"price":     "price",
	"createdAt": "created_at",
	"status":    "status",
}

// PostgresListingRepo はPostgreSQLを使用した出品リポジトリ。
type PostgresListingRepo struct {
	db             *sql.DB
	acquireTimeout time.Duration
}

// NewPostgresListingRepo はPostgresListingRepoを生成する。
func NewPostgresListingRepo(db *sql.DB) *PostgresListingRepo {
	return &PostgresListingRepo{db: db}
}

// WithAcquireTimeout はトランザクション用の接続取得を待つ上限を設定する。0以下は無制限。
func (r *PostgresListingRepo) WithAcquireTimeout(d time.Duration) *PostgresListingRepo {
	r.acquireTimeout = d
	return r
}

func scanListing(row rowScanner) (*model.Listing, error) {
	l := &model.Listing{}
	var imageURLs pq.StringArray
	var purchasedBy, taskboardID sql.NullString
	err := row.Scan(
		&l.ID, &l.Name, &l.Price, &l.Quantity, &l.Type, &l.Category, &l.Status, &imageURLs, &l.Description,
		&l.CreatedBy, &purchasedBy, &taskboardID, &l.PickupMethod, &l.Postcode, &l.Location[0], &l.Location[1],
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.ImageURLs = []string(imageURLs)
	if l.ImageURLs == nil {
		l.ImageURLs = []string{}
	}
	l.PurchasedBy = nullStringPtr(purchasedBy)
	l.TaskboardID = nullStringPtr(taskboardID)
	return l, nil
}

// FindByID は指定IDの出品を取得する。見つからない場合はnilを返す。
func (r *PostgresListingRepo) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	l, err := scanListing(r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("出品の取得に失敗しました: %w", err)
	}
	return l, nil
}

// Create は出品を作成する。
func (r *PostgresListingRepo) Create(ctx context.Context, l *model.Listing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO listings (id, name, price, quantity, type, category, status, image_urls, description,
		                       created_by, purchased_by, taskboard_id, pickup_method, postcode,
		                       location_lng, location_lat, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		l.ID, l.Name, l.Price, l.Quantity, l.Type, l.Category, l.Status, pq.Array(nonNilStrings(l.ImageURLs)), l.Description,
		l.CreatedBy, stringPtrValue(l.PurchasedBy), stringPtrValue(l.TaskboardID), l.PickupMethod, l.Postcode,
		l.Location[0], l.Location[1], l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("出品の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は出品を上書き更新する。作成者は変更しない。
func (r *PostgresListingRepo) Update(ctx context.Context, l *model.Listing) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE listings SET
		    name = $2, price = $3, quantity = $4, category = $5, status = $6, image_urls = $7,
		    description = $8, purchased_by = $9, taskboard_id = $10, pickup_method = $11,
		    postcode = $12, location_lng = $13, location_lat = $14, updated_at = $15
		 WHERE id = $1`,
		l.ID, l.Name, l.Price, l.Quantity, l.Category, l.Status, pq.Array(nonNilStrings(l.ImageURLs)),
		l.Description, stringPtrValue(l.PurchasedBy), stringPtrValue(l.TaskboardID), l.PickupMethod,
		l.Postcode, l.Location[0], l.Location[1], l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("出品の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は出品を削除する。
func (r *PostgresListingRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("出品の削除に失敗しました: %w", err)
	}
	return affected(result)
}

// listingConditions は検索プランをWHERE条件に変換する。空の項目は条件に含めない。
func listingConditions(q model.ListingQuery, qa *queryArgs) []string {
	var conds []string
	if q.Status != "" {
		conds = append(conds, "status = "+qa.add(q.Status))
	}
	if q.Type != "" {
		conds = append(conds, "type = "+qa.add(q.Type))
	}
	if q.Category != "" {
		conds = append(conds, "category = "+qa.add(q.Category))
	}
	if q.CreatedBy != "" {
		conds = append(conds, "created_by = "+qa.add(q.CreatedBy))
	}
	if q.PurchasedBy != "" {
		conds = append(conds, "purchased_by = "+qa.add(q.PurchasedBy))
	}
	if q.Search != "" {
		p := qa.add(likePattern(q.Search))
		conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR description ILIKE %[1]s OR category ILIKE %[1]s)", p))
	}
	return conds
}

// listingOrderBy はホワイトリスト済みの並び順からORDER BY句を組み立てる。
// 常にid昇順を最後の並び替えキーとして付与する。
func listingOrderBy(fields []model.SortField) string {
	terms := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		col, ok := listingSortColumns[f.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Desc {
			dir = "DESC"
		}
		terms = append(terms, col+" "+dir)
	}
	terms = append(terms, "id ASC")
	return " ORDER BY " + strings.Join(terms, ", ")
}

// List は検索プランに従って出品一覧と総件数を返す。
func (r *PostgresListingRepo) List(ctx context.Context, q model.ListingQuery, page model.PaginationQuery) ([]*model.Listing, int, error) {
	var qa queryArgs
	where := whereClause(listingConditions(q, &qa))
	return r.listPage(ctx, where, len(qa.args), listingOrderBy(q.OrderBy), &qa, page)
}

// listingRankedOrderBy は新しさの区間、種別の重み、作成日時、IDの順のORDER BY句を組み立てる。
// RecencyBucketが0以下の場合は区間による並び替えを行わない。
func listingRankedOrderBy(ranking model.ListingRanking, qa *queryArgs) string {
	var terms []string
	if secs := ranking.RecencyBucket.Seconds(); secs > 0 {
		terms = append(terms, fmt.Sprintf("floor(extract(epoch FROM created_at) / %s::float8) DESC", qa.add(secs)))
	}
	weightCase := "CASE type"
	for _, t := range model.ListingTypes() {
		weightCase += fmt.Sprintf(" WHEN %s THEN %s::float8", qa.add(t), qa.add(ranking.Weights[t]))
	}
	weightCase += " ELSE 0 END DESC"
	terms = append(terms, weightCase, "created_at DESC", "id ASC")
	return " ORDER BY " + strings.Join(terms, ", ")
}

// ListRanked は新しさの区間、種別の重み、作成日時、IDの順で並べた出品一覧を返す。
func (r *PostgresListingRepo) ListRanked(ctx context.Context, q model.ListingQuery, ranking model.ListingRanking, page model.PaginationQuery) ([]*model.Listing, int, error) {
	var qa queryArgs
	where := whereClause(listingConditions(q, &qa))
	nWhere := len(qa.args)
	return r.listPage(ctx, where, nWhere, listingRankedOrderBy(ranking, &qa), &qa, page)
}

// listPage は総件数と1ページ分の出品を取得する。件数取得にはWHERE句の引数（先頭nWhere個）のみを渡す。
func (r *PostgresListingRepo) listPage(ctx context.Context, where string, nWhere int, orderBy string, qa *queryArgs, page model.PaginationQuery) ([]*model.Listing, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM listings`+where, qa.args[:nWhere]...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("出品数の取得に失敗しました: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM listings%s%s LIMIT %s OFFSET %s`,
		listingColumns, where, orderBy, qa.add(page.Limit), qa.add(page.Offset()))
	rows, err := r.db.QueryContext(ctx, query, qa.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("出品一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var listings []*model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("出品行の読み取りに失敗しました: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("出品一覧の走査に失敗しました: %w", err)
	}
	return listings, total, nil
}

// Purchase は1トランザクションで購入処理を行う。
// statusに対するcompare-and-swapにより、同時購入は1件のみ成功する。
func (r *PostgresListingRepo) Purchase(ctx context.Context, id, buyerID string, cost int, notifications ...*model.Notification) (*model.Listing, error) {
	tx, done, err := beginTx(ctx, r.db, r.acquireTimeout)
	if err != nil {
		return nil, err
	}
	defer done()

	l, err := scanListing(tx.QueryRowContext(ctx,
		`UPDATE listings SET status = 'closed', purchased_by = $2, updated_at = now()
		 WHERE id = $1 AND status = 'open'
		 RETURNING `+listingColumns,
		id, buyerID))
	if err == sql.ErrNoRows {
		return nil, ErrListingClosed
	}
	if err != nil {
		return nil, fmt.Errorf("出品のクローズに失敗しました: %w", err)
	}

	if cost > 0 {
		result, err := tx.ExecContext(ctx,
			`UPDATE users SET points = points - $2, updated_at = now() WHERE id = $1 AND points >= $2`,
			buyerID, cost)
		if err != nil {
			return nil, fmt.Errorf("購入者のポイント減算に失敗しました: %w", err)
		}
		if ok, err := affected(result); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrInsufficientPoints
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET points = points + $2, updated_at = now() WHERE id = $1`,
			l.CreatedBy, cost); err != nil {
			return nil, fmt.Errorf("出品者のポイント加算に失敗しました: %w", err)
		}
	}

	for _, n := range notifications {
		if err := insertNotification(ctx, tx, n); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return l, nil
}

// compile-time interface check
var _ ListingRepository = (*PostgresListingRepo)(nil)
