package validation

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/newleaf/newleaf/internal/model"
)

// UserCreate はユーザー登録の入力スキーマ。
// IDは外部認証プロバイダのsubjectをそのまま使う。
type UserCreate struct {
	ID        string `json:"-"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role,omitempty"`
}

// Normalize はデフォルト値を適用する。
func (in *UserCreate) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Role == "" {
		in.Role = string(model.RoleCommunityMember)
	}
}

// Validate はユーザー登録の入力を検証する。
func (in *UserCreate) Validate() error {
	if err := First(
		ID("id", in.ID),
		Required("email", in.Email),
		MaxLength("first_name", in.FirstName, 100),
		MaxLength("last_name", in.LastName, 100),
		OneOf("role", model.UserRole(in.Role), model.RoleAdmin, model.RolePlotOwner, model.RoleCommunityMember),
	); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return model.NewValidationError("email", "メールアドレスの形式が正しくありません。")
	}
	return nil
}

// PointsAction はポイント更新アクションを検証する。
// setは0以上MaxPoints以下の値のみ許可する。offsetの結果が範囲に収まるかは保存時に検証する。
func PointsAction(action model.PointsAction) error {
	if err := OneOf("type", action.Type, model.PointsActionSet, model.PointsActionOffset); err != nil {
		return err
	}
	if action.Type == model.PointsActionSet && action.Value < 0 {
		return model.NewNegativeBalanceError(action.Value)
	}
	if action.Value > model.MaxPoints || action.Value < -model.MaxPoints {
		return model.NewValidationError("value", fmt.Sprintf("%d以下の値を指定してください。", model.MaxPoints))
	}
	return nil
}

// ProfileUpdate はプロフィール補完の入力スキーマ。
type ProfileUpdate struct {
	FirstName *string        `json:"first_name,omitempty"`
	LastName  *string        `json:"last_name,omitempty"`
	Profile   *model.Profile `json:"profile,omitempty"`
	Address   *model.Address `json:"address,omitempty"`
}

// Validate はプロフィール補完の入力を検証する。
func (in *ProfileUpdate) Validate() error {
	if in.FirstName != nil {
		if err := First(Required("first_name", *in.FirstName), MaxLength("first_name", *in.FirstName, 100)); err != nil {
			return err
		}
	}
	if in.LastName != nil {
		if err := First(Required("last_name", *in.LastName), MaxLength("last_name", *in.LastName, 100)); err != nil {
			return err
		}
	}
	if in.Profile != nil {
		if err := MaxLength("profile.bio", in.Profile.Bio, 500); err != nil {
			return err
		}
	}
	if in.Address != nil && in.Address.PostCode != "" {
		if err := Length("address.post_code", strings.TrimSpace(in.Address.PostCode), 3, 10); err != nil {
			return err
		}
	}
	return nil
}

// ToModel はモデルの部分更新に変換する。
func (in *ProfileUpdate) ToModel() model.ProfileUpdate {
	return model.ProfileUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Profile:   in.Profile,
		Address:   in.Address,
	}
}
