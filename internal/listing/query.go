package listing

import (
	"strings"

	"github.com/newleaf/newleaf/internal/model"
	"github.com/newleaf/newleaf/internal/validation"
)

// sortPlans は並び順指定と並び替えキーの対応。
var sortPlans = map[model.ListingSort][]model.SortField{
	model.SortPriceAsc:      {{Field: "price"}},
	model.SortPriceDesc:     {{Field: "price", Desc: true}},
	model.SortCreatedAtAsc:  {{Field: "createdAt"}},
	model.SortCreatedAtDesc: {{Field: "createdAt", Desc: true}},
	// "open" > "closed" のため降順でopenが先頭になる
	model.SortStatusOpen: {{Field: "status", Desc: true}, {Field: "createdAt", Desc: true}},
}

// ListingSorts は指定可能な並び順を返す。
func ListingSorts() []model.ListingSort {
	return []model.ListingSort{
		model.SortPriceAsc, model.SortPriceDesc,
		model.SortCreatedAtAsc, model.SortCreatedAtDesc,
		model.SortStatusOpen,
	}
}

// BuildQuery はフィルタ要求を検証し、決定的な検索プランに変換する。
// statusの既定値はopen。不正な列挙値は検索前にバリデーションエラーとなる。
func BuildQuery(f model.ListingFilter) (model.ListingQuery, error) {
	status := model.ListingStatus(strings.TrimSpace(f.Status))
	if status == "" {
		status = model.ListingStatusOpen
	}
	sort := model.ListingSort(strings.TrimSpace(f.Sort))
	if sort == "" {
		sort = model.SortCreatedAtDesc
	}

	err := validation.First(
		validation.OneOf("status", status, model.ListingStatusOpen, model.ListingStatusClosed),
		validation.OptionalOneOf("type", model.ListingType(f.Type), model.ListingTypes()...),
		validation.OneOf("sort", sort, ListingSorts()...),
		validation.OptionalID("created_by_id", f.CreatedByID),
		validation.OptionalID("purchased_by_id", f.PurchasedByID),
	)
	if err != nil {
		return model.ListingQuery{}, err
	}

	return model.ListingQuery{
		Status:      status,
		Type:        model.ListingType(f.Type),
		Category:    strings.TrimSpace(f.Category),
		CreatedBy:   f.CreatedByID,
		PurchasedBy: f.PurchasedByID,
		OrderBy:     append([]model.SortField(nil), sortPlans[sort]...),
	}, nil
}
