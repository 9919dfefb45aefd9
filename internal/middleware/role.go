package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/newleaf/newleaf/internal/model"
)

// RequireRole は指定ロールのいずれかを持つユーザーのみ通過させるミドルウェアを返す。
// 認証ミドルウェアの後に配置する。
func RequireRole(roles ...model.UserRole) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if !slices.Contains(roles, role) {
				userID, _ := UserIDFromContext(r.Context())
				slog.Warn("role check failed",
					slog.String("user_id", userID),
					slog.String("role", string(role)),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError("この操作を行う権限がありません"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
