package model

// デフォルトのページネーション値。
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PaginationQuery はページ番号方式のページネーション要求を表す。
type PaginationQuery struct {
	Page  int
	Limit int
}

// Offset はSQLのOFFSETに渡す値を返す。
func (q PaginationQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination はページネーション結果のメタ情報。
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// PaginatedResult はページネーション済みの一覧結果。
// pages = ceil(total/limit)、len(data) <= limit を常に満たす。
type PaginatedResult[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPaginatedResult は取得済みデータと総件数からPaginatedResultを生成する。
// dataがlimitを超える場合は切り詰める。
func NewPaginatedResult[T any](data []T, total int, q PaginationQuery) *PaginatedResult[T] {
	if data == nil {
		data = []T{}
	}
	if q.Limit > 0 && len(data) > q.Limit {
		data = data[:q.Limit]
	}
	return &PaginatedResult[T]{
		Data: data,
		Pagination: Pagination{
			Total: total,
			Page:  q.Page,
			Limit: q.Limit,
			Pages: PageCount(total, q.Limit),
		},
	}
}

// EmptyPaginatedResult は0件の結果を返す。
func EmptyPaginatedResult[T any](q PaginationQuery) *PaginatedResult[T] {
	return NewPaginatedResult[T](nil, 0, q)
}

// PageCount はceil(total/limit)を返す。limitが0以下の場合は0。
func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
