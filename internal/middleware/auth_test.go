package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/newleaf/newleaf/internal/model"
)

var testSecret = []byte("test-secret")

const (
	testUser1 = "3c9e4f1a-8b2d-4e6f-9a1c-7d5b3e2f1a04"
	testUser2 = "a7d2c5e8-1f4b-4c9a-b3e6-0d8f2a5c7e19"
)

// captureHandler はコンテキストのユーザーIDとロールを記録するハンドラーを返す。
func captureHandler(userID *string, role *model.UserRole) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*userID, _ = UserIDFromContext(r.Context())
		*role = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func signTestToken(t *testing.T, userID string, role model.UserRole, ttl time.Duration) string {
	t.Helper()
	token, err := SignToken(testSecret, userID, role, "user@example.com", ttl)
	if err != nil {
		t.Fatalf("SignToken() error = %v", err)
	}
	return token
}

func TestAuthMiddleware_BearerToken_InjectsUserAndRole(t *testing.T) {
	var gotUser string
	var gotRole model.UserRole
	handler := NewAuthMiddleware(testSecret)(captureHandler(&gotUser, &gotRole))

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, testUser1, model.RoleAdmin, time.Hour))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUser != testUser1 {
		t.Errorf("userID = %q, want %s", gotUser, testUser1)
	}
	if gotRole != model.RoleAdmin {
		t.Errorf("role = %q, want admin", gotRole)
	}
}

func TestAuthMiddleware_Cookie_InjectsUser(t *testing.T) {
	var gotUser string
	var gotRole model.UserRole
	handler := NewAuthMiddleware(testSecret)(captureHandler(&gotUser, &gotRole))

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: signTestToken(t, testUser2, model.RoleCommunityMember, time.Hour)})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUser != testUser2 {
		t.Errorf("userID = %q, want %s", gotUser, testUser2)
	}
}

func TestAuthMiddleware_RejectsInvalidTokens(t *testing.T) {
	expired := func(t *testing.T) string { return signTestToken(t, testUser1, model.RoleAdmin, -time.Minute) }
	wrongSecret := func(t *testing.T) string {
		token, err := SignToken([]byte("other"), testUser1, model.RoleAdmin, "", time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		return token
	}
	noneAlg := func(t *testing.T) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": testUser1}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatal(err)
		}
		return token
	}
	noSubject := func(t *testing.T) string { return signTestToken(t, "", model.RoleAdmin, time.Hour) }
	nonUUIDSubject := func(t *testing.T) string { return signTestToken(t, "not-a-uuid", model.RoleAdmin, time.Hour) }

	tests := []struct {
		name   string
		header func(t *testing.T) string
	}{
		{"ヘッダーなし", func(*testing.T) string { return "" }},
		{"Bearer以外の形式", func(*testing.T) string { return "Basic dXNlcjpwYXNz" }},
		{"期限切れ", func(t *testing.T) string { return "Bearer " + expired(t) }},
		{"異なる秘密鍵", func(t *testing.T) string { return "Bearer " + wrongSecret(t) }},
		{"none署名", func(t *testing.T) string { return "Bearer " + noneAlg(t) }},
		{"subjectなし", func(t *testing.T) string { return "Bearer " + noSubject(t) }},
		{"subjectがUUIDでない", func(t *testing.T) string { return "Bearer " + nonUUIDSubject(t) }},
		{"subjectにSQL断片", func(t *testing.T) string {
			return "Bearer " + signTestToken(t, "1' OR '1'='1", model.RoleAdmin, time.Hour)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewAuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
			if h := tt.header(t); h != "" {
				req.Header.Set("Authorization", h)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
			if called {
				t.Error("next handler should not be called")
			}
		})
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}
	if got := RoleFromContext(context.Background()); got != "" {
		t.Errorf("role = %q, want empty", got)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		role model.UserRole
		want int
	}{
		{"管理者は通過", model.RoleAdmin, http.StatusOK},
		{"一般ユーザーは403", model.RoleCommunityMember, http.StatusForbidden},
		{"ロールなしは403", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(model.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPut, "/api/users/u/points", nil)
			ctx := ContextWithRole(ContextWithUserID(req.Context(), "user-1"), tt.role)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req.WithContext(ctx))

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

type mockVerificationChecker struct {
	isVerifiedFn func(ctx context.Context, userID string) (bool, error)
}

func (m *mockVerificationChecker) IsVerified(ctx context.Context, userID string) (bool, error) {
	if m.isVerifiedFn != nil {
		return m.isVerifiedFn(ctx, userID)
	}
	return false, nil
}

func TestVerifiedMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		verified     bool
		err          error
		wantStatus   int
		wantLocation string
	}{
		{"確認済みは通過", true, nil, http.StatusOK, ""},
		{"未確認はプロフィール編集へ", false, nil, http.StatusSeeOther, "/profile/user-1/edit"},
		{"確認エラーは500", false, errors.New("db down"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &mockVerificationChecker{
				isVerifiedFn: func(ctx context.Context, userID string) (bool, error) {
					return tt.verified, tt.err
				},
			}
			handler := NewVerifiedMiddleware(checker)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
			req = req.WithContext(ContextWithUserID(req.Context(), "user-1"))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}

func TestVerifiedMiddleware_NoUser_Returns401(t *testing.T) {
	handler := NewVerifiedMiddleware(&mockVerificationChecker{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/listings", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
