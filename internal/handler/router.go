package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/catalog/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionResolver   middleware.SessionResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Metrics           middleware.HTTPRecorder // nilの場合はメトリクスを記録しない
	MetricsHandler    http.Handler            // nilの場合は/metricsを公開しない
	Logger            *slog.Logger
	RequestTimeout    time.Duration

	// 認証
	AuthService AuthServiceInterface
	StateIssuer StateIssuerInterface
	AuthConfig  AuthHandlerConfig

	// リソース
	ItemService ItemServiceInterface
	UserService UserServiceInterface

	// ヘルスチェック
	Health Pinger
}

// BasePipeline は全ルートに適用するミドルウェアを外側から順に返す。
//
//	recovery → request_id → logging → metrics → security_headers → cors → session
func BasePipeline(deps *RouterDeps) middleware.Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := middleware.Pipeline{
		{Name: "recovery", Wrap: middleware.NewRecoveryMiddleware()},
		{Name: "request_id", Wrap: chimw.RequestID},
		{Name: "logging", Wrap: middleware.NewLoggingMiddleware(logger)},
	}
	if deps.Metrics != nil {
		p = p.Append(middleware.Stage{Name: "metrics", Wrap: middleware.NewMetricsMiddleware(deps.Metrics)})
	}
	return p.Append(
		middleware.Stage{Name: "security_headers", Wrap: middleware.NewSecurityHeadersMiddleware()},
		middleware.Stage{Name: "cors", Wrap: middleware.NewCORSMiddleware(deps.CORSAllowedOrigin)},
		middleware.Stage{Name: "session", Wrap: middleware.NewSessionMiddleware(deps.SessionResolver, middleware.SessionCookieConfig{
			CookieSecure: deps.AuthConfig.CookieSecure,
			CookieDomain: deps.AuthConfig.CookieDomain,
		})},
	)
}

// apiPipeline は/api配下に追加で適用するミドルウェアを返す。
//
//	rate_limit → write_rate_limit → csrf → timeout
func apiPipeline(deps *RouterDeps) middleware.Pipeline {
	var p middleware.Pipeline
	if deps.RateLimiter != nil {
		p = p.Append(
			middleware.Stage{Name: "rate_limit", Wrap: deps.RateLimiter.GeneralMiddleware()},
			middleware.Stage{Name: "write_rate_limit", Wrap: deps.RateLimiter.WriteMiddleware()},
		)
	}
	p = p.Append(middleware.Stage{Name: "csrf", Wrap: middleware.NewCSRFMiddleware(deps.CSRFConfig)})
	if deps.RequestTimeout > 0 {
		p = p.Append(middleware.Stage{Name: "timeout", Wrap: chimw.Timeout(deps.RequestTimeout)})
	}
	return p
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
// 商品とユーザーのCRUDは認証不要。ログイン必須なのは/auth/dashboard配下のみ。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(BasePipeline(deps).Middlewares()...)

	authHandler := NewAuthHandler(deps.AuthService, deps.StateIssuer, deps.AuthConfig)
	itemHandler := NewItemHandler(deps.ItemService)
	userHandler := NewUserHandler(deps.UserService)

	r.Get("/", Index)
	if deps.Health != nil {
		r.Get("/health", NewHealthHandler(deps.Health))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(apiPipeline(deps).Middlewares()...)

		r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		r.Route("/items", func(r chi.Router) {
			r.Post("/", itemHandler.CreateItem)
			r.Get("/", itemHandler.ListItems)
			r.Get("/{id}", itemHandler.GetItem)
			r.Put("/{id}", itemHandler.UpdateItem)
			r.Delete("/{id}", itemHandler.DeleteItem)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.CreateUser)
			r.Get("/", userHandler.ListUsers)
			r.Get("/{id}", userHandler.GetUser)
			r.Put("/{id}", userHandler.UpdateUser)
			r.Delete("/{id}", userHandler.DeleteUser)
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/google", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Get("/logout", authHandler.Logout)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAccessGuard("/auth/google"))
			r.Get("/dashboard", Dashboard)
			r.Get("/dashboard/*", Dashboard)
		})
	})

	return r
}
