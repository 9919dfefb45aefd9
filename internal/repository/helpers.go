package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/newleaf/newleaf/internal/database"
)

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// execer は*sql.DBと*sql.Txの共通インターフェース。
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// beginTx はプールから接続を取得してトランザクションを開始する。
// 接続の取得待ちはacquireTimeoutで打ち切る。戻り値のdoneでロールバックと接続の返却を行う。
func beginTx(ctx context.Context, db *sql.DB, acquireTimeout time.Duration) (*sql.Tx, func(), error) {
	conn, err := database.Acquire(ctx, db, acquireTimeout)
	if err != nil {
		return nil, nil, err
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	return tx, func() {
		tx.Rollback()
		conn.Close()
	}, nil
}

// nullString は空文字列の場合にsql.NullString{Valid: false}を返す。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullStringPtr はsql.NullStringをポインタに変換する。
func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// stringPtrValue はnilを許容するIDをINSERT用の値に変換する。
func stringPtrValue(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}

// nonNilStrings はnilスライスを空スライスに変換する。TEXT[]列はNOT NULLのため。
func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// jsonValue は値をJSONB列に書き込むためのバイト列に変換する。
func jsonValue(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("JSONへの変換に失敗しました: %w", err)
	}
	return b, nil
}

// isUniqueViolation は一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// affected は更新件数が1件以上かどうかを返す。
func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// queryArgs は動的クエリのプレースホルダと引数を管理する。
type queryArgs struct {
	args []any
}

// add は引数を追加し、対応するプレースホルダ（$N）を返す。
func (q *queryArgs) add(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// likePattern は部分一致検索用のパターンを返す。ワイルドカード文字はエスケープする。
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// whereClause は条件が1つ以上あればWHERE句を組み立てる。
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
