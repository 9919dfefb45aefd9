package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/newleaf/newleaf/internal/middleware"
	"github.com/newleaf/newleaf/internal/model"
)

// RequestTimeout は1リクエストあたりの処理時間の上限。
const RequestTimeout = 45 * time.Second

// HealthChecker はヘルスチェック時の疎通確認を行う。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	SecurityHeaders   middleware.SecurityHeadersConfig
	AuthSecret        []byte
	RateLimiter       *middleware.RateLimiter
	Metrics           middleware.StatusRecorder
	MetricsHandler    http.Handler
	Health            HealthChecker

	Users         UserServiceInterface
	Listings      ListingServiceInterface
	Feed          FeedBuilder
	FeedType      string
	Notifications NotificationServiceInterface
	Folders       FolderServiceInterface
	Taskboards    TaskboardServiceInterface
	Plots         PlotServiceInterface
	Tools         ToolServiceInterface
	Bookings      BookingServiceInterface
	Images        ImageStorage
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → Metrics → SecurityHeaders → CORS → Timeout
//	  → (保護ルート) Auth → RateLimit(General) → CSRF → Verified
//
// プロフィール補完とユーザー登録はVerifiedの外に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.SecurityHeaders))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(chimw.Timeout(RequestTimeout))

	userHandler := NewUserHandler(deps.Users)
	listingHandler := NewListingHandler(deps.Listings, deps.Feed, deps.FeedType)
	notificationHandler := NewNotificationHandler(deps.Notifications)
	folderHandler := NewFolderHandler(deps.Folders, deps.Plots)
	taskboardHandler := NewTaskboardHandler(deps.Taskboards)
	plotHandler := NewPlotHandler(deps.Plots)
	toolHandler := NewToolHandler(deps.Tools)
	bookingHandler := NewBookingHandler(deps.Bookings)
	imageHandler := NewImageHandler(deps.Images)

	// --- 認証不要のルート ---
	r.Get("/health", healthHandler(deps.Health))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)
	r.Get("/api/listings/feed", listingHandler.Feed)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.AuthSecret))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// プロフィール補完前でも利用できるルート
		r.Post("/api/users", userHandler.Register)
		r.Put("/api/users/{id}/profile", userHandler.UpdateProfile)

		// プロフィール補完済みユーザーのみ
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewVerifiedMiddleware(deps.Users))
			admin := middleware.RequireRole(model.RoleAdmin)

			r.Route("/api/users", func(r chi.Router) {
				r.Get("/", userHandler.ListUsers)
				r.Get("/search", userHandler.SearchUsers)
				r.Delete("/me", userHandler.Withdraw)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", userHandler.GetUser)
					r.Get("/listings", listingHandler.ListUserListings)
					r.With(admin).Put("/points", userHandler.UpdatePoints)
				})
			})

			r.Route("/api/listings", func(r chi.Router) {
				r.Get("/", listingHandler.ListListings)
				r.Post("/", listingHandler.CreateListing)
				r.Get("/search", listingHandler.SearchListings)
				r.Get("/recommended", listingHandler.RecommendListings)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", listingHandler.GetListing)
					r.Patch("/", listingHandler.UpdateListing)
					r.With(admin).Delete("/", listingHandler.DeleteListing)
					// 購入専用レート制限を追加
					r.With(deps.RateLimiter.PurchaseMiddleware()).Post("/purchase", listingHandler.PurchaseListing)
				})
			})

			r.Route("/api/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.ListNotifications)
				r.With(admin).Post("/", notificationHandler.CreateNotification)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Put("/read-all", notificationHandler.MarkAllAsRead)
				r.Put("/{id}/read", notificationHandler.MarkAsRead)
				r.Delete("/{id}", notificationHandler.DeleteNotification)
			})

			r.Route("/api/folders", func(r chi.Router) {
				r.Get("/", folderHandler.ListFolders)
				r.Post("/", folderHandler.CreateFolder)
				r.Get("/id", folderHandler.GetFolderID)
				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", folderHandler.RenameFolder)
					r.Delete("/", folderHandler.DeleteFolder)
					r.Post("/subfolders", folderHandler.AddSubfolder)
				})
			})

			r.Route("/api/taskboards", func(r chi.Router) {
				r.Get("/", taskboardHandler.ListTaskboards)
				r.Post("/", taskboardHandler.CreateTaskboard)
				r.Get("/recent", taskboardHandler.RecentTaskboards)
				r.Get("/contents", taskboardHandler.GetContents)
				r.Get("/by-path", taskboardHandler.GetTaskboardByPath)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskboardHandler.GetTaskboard)
					r.Patch("/", taskboardHandler.UpdateTaskboard)
					r.Delete("/", taskboardHandler.DeleteTaskboard)
					r.Get("/tasks", taskboardHandler.ListBoardTasks)
				})
			})

			r.Route("/api/tasks", func(r chi.Router) {
				r.Get("/", taskboardHandler.ListTasks)
				r.Post("/", taskboardHandler.CreateTask)
				r.Get("/count", taskboardHandler.CountTasks)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskboardHandler.GetTask)
					r.Patch("/", taskboardHandler.UpdateTask)
					r.Delete("/", taskboardHandler.DeleteTask)
					r.Post("/toggle-status", taskboardHandler.ToggleTaskStatus)
					r.Post("/toggle-importance", taskboardHandler.ToggleTaskImportance)
				})
			})

			r.Route("/api/plots", func(r chi.Router) {
				r.Get("/", plotHandler.ListPlots)
				r.Post("/", plotHandler.CreatePlot)
				r.Get("/recommended", plotHandler.RecommendPlots)
				r.Get("/mine", plotHandler.MyPlots)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", plotHandler.GetPlot)
					r.Patch("/", plotHandler.UpdatePlot)
					r.Delete("/", plotHandler.DeletePlot)
					r.Post("/join", plotHandler.RequestJoin)
					r.Post("/requests/{userId}/accept", plotHandler.AcceptJoin)
					r.Delete("/requests/{userId}", plotHandler.RejectJoin)
					r.Delete("/members/{userId}", plotHandler.RemoveMember)
				})
			})

			r.Route("/api/tools", func(r chi.Router) {
				r.Get("/", toolHandler.ListTools)
				r.Post("/", toolHandler.CreateTool)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", toolHandler.GetTool)
					r.Patch("/", toolHandler.UpdateTool)
					r.Delete("/", toolHandler.DeleteTool)
					r.Post("/borrow", toolHandler.BorrowTool)
					r.Post("/return", toolHandler.ReturnTool)
				})
			})

			r.Route("/api/bookings", func(r chi.Router) {
				r.Get("/", bookingHandler.ListBookings)
				r.Post("/", bookingHandler.CreateBooking)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", bookingHandler.GetBooking)
					r.Patch("/", bookingHandler.UpdateBooking)
					r.Delete("/", bookingHandler.DeleteBooking)
				})
			})

			r.Post("/api/images/signed-url", imageHandler.SignedURL)
			r.Post("/api/images/validate", imageHandler.ValidateURL)
		})
	})

	return r
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
