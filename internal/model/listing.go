package model

import (
	"math"
	"time"
)

// ListingType は出品の種別を表す。
type ListingType string

const (
	ListingTypeItem    ListingType = "item"
	ListingTypeService ListingType = "service"
	ListingTypeShare   ListingType = "share"
)

// ListingTypes は全出品種別を固定順で返す。
func ListingTypes() []ListingType {
	return []ListingType{ListingTypeItem, ListingTypeService, ListingTypeShare}
}

// ListingStatus は出品の状態を表す。
// closedは購入済み（PurchasedByあり）と取り下げ（PurchasedByなし）の両方を含む。
type ListingStatus string

const (
	ListingStatusOpen   ListingStatus = "open"
	ListingStatusClosed ListingStatus = "closed"
)

// PickupMethod は受け渡し方法を表す。
type PickupMethod string

const (
	PickupMyLocation PickupMethod = "myloc"
	PickupPost       PickupMethod = "post"
)

// ListingSort は出品一覧の並び順指定を表す。
type ListingSort string

const (
	SortPriceAsc      ListingSort = "price:asc"
	SortPriceDesc     ListingSort = "price:desc"
	SortCreatedAtAsc  ListingSort = "createdAt:asc"
	SortCreatedAtDesc ListingSort = "createdAt:desc"
	SortStatusOpen    ListingSort = "status:open"
)

// MaxPrice は価格の上限（この値未満）。NUMERIC(12,2)に収まる範囲。
const MaxPrice = 1e10

// MaxCategoryLength はカテゴリ名の最大文字数。
const MaxCategoryLength = 100

// Listing はマーケットプレイスの出品を表す。
type Listing struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Price        float64       `json:"price"`
	Quantity     int           `json:"quantity"`
	Type         ListingType   `json:"type"`
	Category     string        `json:"category"`
	Status       ListingStatus `json:"status"`
	ImageURLs    []string      `json:"image_urls"`
	Description  string        `json:"description"`
	CreatedBy    string        `json:"created_by"`
	PurchasedBy  *string       `json:"purchased_by,omitempty"`
	TaskboardID  *string       `json:"taskboard_id,omitempty"`
	PickupMethod PickupMethod  `json:"pickup_method,omitempty"`
	Postcode     string        `json:"postcode"`
	Location     [2]float64    `json:"location"` // [lng, lat]
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsFree は価格0の出品かどうかを返す。表示上は "Free" として扱う。
func (l *Listing) IsFree() bool {
	return l.Price == 0
}

// ListingFilter は出品一覧の緩い型付けのフィルタ要求。
// 空文字は「条件なし」を意味する。
type ListingFilter struct {
	Status        string
	Type          string
	Category      string
	CreatedByID   string
	PurchasedByID string
	Sort          string
}

// SortField は並び順の1要素を表す。Fieldはホワイトリスト済みの論理名。
type SortField struct {
	Field string
	Desc  bool
}

// ListingQuery はバリデーション・正規化済みの出品検索プラン。
// 同一入力に対して常に同一のプランを返す純粋な値。
type ListingQuery struct {
	Status      ListingStatus // 空の場合は条件なし
	Type        ListingType
	Category    string
	CreatedBy   string
	PurchasedBy string
	Search      string // 空でない場合はname/description/categoryの部分一致
	OrderBy     []SortField
}

// TypeWeights は出品種別ごとの正規化済み重み。
type TypeWeights map[ListingType]float64

// ListingRanking は推薦時の並び替え条件。
// 同じ新しさ区間の中で重みの大きい種別を先に並べる。
type ListingRanking struct {
	Weights       TypeWeights
	RecencyBucket time.Duration
}

// PointsCost は購入時に移動するポイント数を返す。小数の価格は切り上げる。
func (l *Listing) PointsCost() int {
	return int(math.Ceil(l.Price))
}
