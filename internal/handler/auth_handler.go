// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/catalog/internal/middleware"
	"github.com/hitoshi/catalog/internal/model"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// StateIssuerInterface はOAuth stateの発行と検証のインターフェース。
type StateIssuerInterface interface {
	Issue() (string, error)
	Verify(state string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge time.Duration
	StateMaxAge   time.Duration

	SuccessPath        string // ログイン成功時のリダイレクト先
	FailurePath        string // ログイン失敗時のリダイレクト先
	LogoutRedirectPath string // ログアウト後のリダイレクト先
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
// OAuthフローのエラーはJSONではなくリダイレクトで返す。
type AuthHandler struct {
	service AuthServiceInterface
	states  StateIssuerInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, states StateIssuerInterface, config AuthHandlerConfig) *AuthHandler {
	if config.SuccessPath == "" {
		config.SuccessPath = "/auth/dashboard"
	}
	if config.FailurePath == "" {
		config.FailurePath = "/"
	}
	if config.LogoutRedirectPath == "" {
		config.LogoutRedirectPath = "/"
	}
	if config.StateMaxAge <= 0 {
		config.StateMaxAge = 10 * time.Minute
	}
	return &AuthHandler{service: service, states: states, config: config}
}

// Login はGoogle OAuthフローを開始する。
// GET /auth/google
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.states.Issue()
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue oauth state", slog.String("error", err.Error()))
		http.Redirect(w, r, h.config.FailurePath, http.StatusFound)
		return
	}

	h.setCookie(w, oauthStateCookie, state, int(h.config.StateMaxAge/time.Second))
	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusFound)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// stateは一度しか使えないよう、結果にかかわらず削除する
	h.setCookie(w, oauthStateCookie, "", -1)

	if denied := q.Get("error"); denied != "" {
		h.fail(w, r, "oauth provider returned error", slog.String("oauth_error", denied))
		return
	}

	state := q.Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		h.fail(w, r, "oauth state mismatch")
		return
	}
	if err := h.states.Verify(state); err != nil {
		h.fail(w, r, "oauth state rejected", slog.String("error", err.Error()))
		return
	}

	code := q.Get("code")
	if code == "" {
		h.fail(w, r, "missing authorization code")
		return
	}

	session, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		h.fail(w, r, "oauth callback failed", slog.String("error", err.Error()))
		return
	}

	h.setCookie(w, middleware.SessionCookieName, session.ID, int(h.config.SessionMaxAge/time.Second))
	http.Redirect(w, r, h.config.SuccessPath, http.StatusFound)
}

// Logout はセッションを破棄する。
// GET, POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			// 失敗してもCookieはクリアする
			slog.ErrorContext(r.Context(), "failed to logout", slog.String("error", err.Error()))
		}
	}

	h.setCookie(w, middleware.SessionCookieName, "", -1)
	http.Redirect(w, r, h.config.LogoutRedirectPath, http.StatusFound)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.PrincipalFromContext(r.Context())
	if user == nil {
		middleware.WriteAPIError(w, model.NewUnauthorizedError())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, msg string, attrs ...any) {
	slog.WarnContext(r.Context(), msg, attrs...)
	http.Redirect(w, r, h.config.FailurePath, http.StatusFound)
}

// setCookie はHTTP OnlyのCookieを設定する。maxAgeが負の場合は削除する。
func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
