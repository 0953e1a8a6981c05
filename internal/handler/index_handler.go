package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/catalog/internal/middleware"
)

// Index はランディングページのテキストを返す。
// GET /
func Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Welcome to the API landing page!")
}

// dashboardResponse はダッシュボードのレスポンス。
type dashboardResponse struct {
	Message string `json:"message"`
	User    any    `json:"user"`
}

// Dashboard はログイン後のダッシュボードを返す。AccessGuardの内側に置く。
// GET /auth/dashboard
func Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.PrincipalFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/auth/google", http.StatusFound)
		return
	}

	name := user.DisplayName
	if name == "" {
		name = user.FirstName
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		Message: fmt.Sprintf("Welcome, %s!", name),
		User:    user,
	})
}

// Pinger はデータストアの疎通確認インターフェース。*sql.DBが実装する。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewHealthHandler はデータストアへの疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func NewHealthHandler(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := pinger.PingContext(ctx); err != nil {
			slog.ErrorContext(r.Context(), "health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
