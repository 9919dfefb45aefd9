package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/newleaf/newleaf/internal/model"
)

// VerificationChecker はユーザーのプロフィール確認状態を返す。
type VerificationChecker interface {
	IsVerified(ctx context.Context, userID string) (bool, error)
}

// NewVerifiedMiddleware はプロフィール未完成のユーザーを編集ページへ誘導するミドルウェアを返す。
// 未確認または未登録のユーザーには303 See Otherで /profile/{id}/edit を返す。
func NewVerifiedMiddleware(checker VerificationChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			verified, err := checker.IsVerified(r.Context(), userID)
			if err != nil {
				slog.Error("failed to check verification",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if !verified {
				http.Redirect(w, r, ProfileEditPath(userID), http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ProfileEditPath はプロフィール編集ページのパスを返す。
func ProfileEditPath(userID string) string {
	return fmt.Sprintf("/profile/%s/edit", userID)
}
