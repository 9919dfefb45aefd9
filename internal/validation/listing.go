package validation

import (
	"strings"

	"github.com/newleaf/newleaf/internal/model"
)

// ListingCreate は出品作成の入力スキーマ。
type ListingCreate struct {
	Name         string   `json:"name"`
	Price        *float64 `json:"price"`
	Quantity     *int     `json:"quantity,omitempty"`
	Type         string   `json:"type,omitempty"`
	Category     string   `json:"category"`
	Description  string   `json:"description"`
	Postcode     string   `json:"postcode"`
	ImageURLs    []string `json:"image_urls,omitempty"`
	PickupMethod string   `json:"pickup_method,omitempty"`
	Path         string   `json:"path,omitempty"` // service出品のタスクボードパス
	CreatedBy    string   `json:"-"`
}

// Normalize はデフォルト値を適用する。
func (in *ListingCreate) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Postcode = strings.TrimSpace(in.Postcode)
	if in.Type == "" {
		in.Type = string(model.ListingTypeItem)
	}
	if in.Quantity == nil {
		q := 1
		in.Quantity = &q
	}
}

// Validate は出品作成の入力を検証する。Normalize後に呼び出すこと。
func (in *ListingCreate) Validate() error {
	if in.Price == nil {
		return model.NewValidationError("price", "必須項目です。")
	}
	err := First(
		ID("created_by", in.CreatedBy),
		Required("name", in.Name),
		Length("name", in.Name, 2, 100),
		NonNegative("price", *in.Price),
		Below("price", *in.Price, model.MaxPrice),
		Required("category", in.Category),
		MaxLength("category", in.Category, model.MaxCategoryLength),
		Required("description", in.Description),
		MaxLength("description", in.Description, 1000),
		Required("postcode", in.Postcode),
		Length("postcode", in.Postcode, 3, 10),
		OneOf("type", model.ListingType(in.Type), model.ListingTypes()...),
		OptionalOneOf("pickup_method", model.PickupMethod(in.PickupMethod), model.PickupMyLocation, model.PickupPost),
	)
	if err != nil {
		return err
	}
	if in.Quantity != nil {
		if err := AtLeast("quantity", *in.Quantity, 1); err != nil {
			return err
		}
	}
	if model.ListingType(in.Type) == model.ListingTypeService {
		if err := Required("path", in.Path); err != nil {
			return model.NewValidationError("path", "サービス出品にはタスクボードのパスが必要です。")
		}
	}
	return nil
}

// ListingUpdate は出品の部分更新スキーマ。nilのフィールドは変更しない。
type ListingUpdate struct {
	Name         *string   `json:"name,omitempty"`
	Price        *float64  `json:"price,omitempty"`
	Quantity     *int      `json:"quantity,omitempty"`
	Category     *string   `json:"category,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Status       *string   `json:"status,omitempty"`
	ImageURLs    *[]string `json:"image_urls,omitempty"`
	PickupMethod *string   `json:"pickup_method,omitempty"`
	Postcode     *string   `json:"postcode,omitempty"`
	Path         *string   `json:"path,omitempty"`
	CreatedBy    *string   `json:"created_by,omitempty"`
	// Admin は管理者による訂正かどうか。認証情報から設定する。
	Admin bool `json:"-"`
}

// Validate は部分更新の入力を検証する。作成者の変更は常に拒否する。
func (in *ListingUpdate) Validate() error {
	if in.CreatedBy != nil {
		return model.NewValidationError("created_by", "出品者は変更できません。")
	}
	if in.Name != nil {
		if err := Length("name", strings.TrimSpace(*in.Name), 2, 100); err != nil {
			return err
		}
	}
	if in.Price != nil {
		if err := First(NonNegative("price", *in.Price), Below("price", *in.Price, model.MaxPrice)); err != nil {
			return err
		}
	}
	if in.Quantity != nil {
		if err := AtLeast("quantity", *in.Quantity, 1); err != nil {
			return err
		}
	}
	if in.Category != nil {
		if err := First(Required("category", *in.Category), MaxLength("category", *in.Category, model.MaxCategoryLength)); err != nil {
			return err
		}
	}
	if in.Description != nil {
		if err := First(Required("description", *in.Description), MaxLength("description", *in.Description, 1000)); err != nil {
			return err
		}
	}
	if in.Status != nil {
		if err := OneOf("status", model.ListingStatus(*in.Status), model.ListingStatusOpen, model.ListingStatusClosed); err != nil {
			return err
		}
	}
	if in.PickupMethod != nil {
		if err := OneOf("pickup_method", model.PickupMethod(*in.PickupMethod), model.PickupMyLocation, model.PickupPost); err != nil {
			return err
		}
	}
	if in.Postcode != nil {
		if err := Length("postcode", strings.TrimSpace(*in.Postcode), 3, 10); err != nil {
			return err
		}
	}
	return nil
}

// Empty は更新対象のフィールドが1つもないかどうかを返す。
func (in *ListingUpdate) Empty() bool {
	return in.Name == nil && in.Price == nil && in.Quantity == nil && in.Category == nil &&
		in.Description == nil && in.Status == nil && in.ImageURLs == nil &&
		in.PickupMethod == nil && in.Postcode == nil && in.Path == nil
}
