package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/sharehub/internal/metrics"
	"github.com/hitoshi/sharehub/internal/middleware"
	"github.com/hitoshi/sharehub/internal/security"
)

// WorkspaceCounter は稼働中のワークスペース数を返す。ヘルスチェックに使う。
type WorkspaceCounter interface {
	Len() int
}

// Workspaces はルーターが必要とするワークスペースの操作。
type Workspaces interface {
	WorkspaceProvider
	WorkspaceCounter
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ワークスペース
	Workspaces Workspaces
	// Origin は相対API_URLを解決する自サーバーのオリジン（例: http://127.0.0.1:3000）。
	// リクエストのHostヘッダーは信用しない。
	Origin string

	// Proxy は /api/* を中継するハンドラー。nilなら中継しない。
	Proxy http.Handler

	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CookieSecure      bool

	Gatherer  prometheus.Gatherer
	Sanitizer security.ContentSanitizerService
	Logger    *slog.Logger
}

// NewRouter は画面と開発用プロキシのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging
//	  画面:   Client → RateLimit → CSRF
//	  /api/*: CORS → Proxy
//
// /health と /metrics と /static/* はクライアントCookieを発行しない。
func NewRouter(deps *RouterDeps) (http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = security.NewContentSanitizer()
	}
	renderer, err := NewRenderer(sanitizer, logger)
	if err != nil {
		return nil, err
	}
	pages := NewPageHandler(deps.Workspaces, deps.Origin, renderer, logger)

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware(middleware.SecurityHeadersConfig{HSTS: deps.CookieSecure}))
	r.Use(middleware.NewLoggingMiddleware(logger))

	r.Get("/health", healthHandler(deps.Workspaces))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}
	r.Handle("/static/*", staticHandler())

	if deps.Proxy != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
			r.Handle("/api", deps.Proxy)
			r.Handle("/api/*", deps.Proxy)
		})
	}

	// --- 画面 ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewClientMiddleware(middleware.ClientCookieConfig{CookieSecure: deps.CookieSecure}))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}
		r.Use(middleware.NewCSRFMiddleware(middleware.CSRFConfig{CookieSecure: deps.CookieSecure}))

		r.Get("/", pages.with(pages.Home))

		r.Get("/login", pages.with(pages.LoginPage))
		r.Post("/login", pages.with(pages.Login))
		r.Get("/register", pages.with(pages.RegisterPage))
		r.Post("/register", pages.with(pages.Register))
		r.Post("/logout", pages.with(pages.Logout))

		// 物品
		r.Get("/item/{id}", LegacyItem)
		r.Route("/items/{id}", func(r chi.Router) {
			r.Get("/", pages.with(pages.ItemDetail))
			r.Post("/favorite", pages.with(pages.ToggleFavorite))
			r.Post("/contact", pages.with(pages.ContactSeller))
		})

		// 出品
		r.Get("/create", pages.with(pages.CreatePage))
		r.Post("/create", pages.with(pages.CreateItem))

		// プロフィール
		r.Get("/profile", pages.with(pages.Profile))
		r.Post("/profile/items/{id}/delete", pages.with(pages.DeleteItem))

		// メッセージ
		r.Route("/messages", func(r chi.Router) {
			r.Get("/", pages.with(pages.Messages))
			r.Post("/", pages.with(pages.SendMessage))
			r.Post("/read-all", pages.with(pages.MarkAllAsRead))
			r.Post("/{id}/read", pages.with(pages.MarkAsRead))
		})

		r.NotFound(pages.with(pages.NotFound))
	})

	return r, nil
}

// healthHandler は稼働状態とワークスペース数を返す。
func healthHandler(counter WorkspaceCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if counter != nil {
			body["workspaces"] = counter.Len()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(body)
	}
}

// NewProxyRouter は開発用プロキシ単体のルーターを返す。画面は提供しない。
//
//	Recovery → Logging → CORS → Proxy
func NewProxyRouter(proxy http.Handler, allowedOrigin string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))

	r.Get("/health", healthHandler(nil))
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(allowedOrigin))
		r.Handle("/api", proxy)
		r.Handle("/api/*", proxy)
	})
	return r
}
