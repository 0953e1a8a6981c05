// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/catalog/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストにログイン中のユーザーを格納するためのキー。
var principalContextKey = contextKey("principal")

// SessionResolver はセッションIDからユーザーを解決するインターフェース。
// auth.SessionManagerが実装する。
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, *model.Session, error)
}

// SessionCookieConfig はセッションCookieを再発行する際の属性。
type SessionCookieConfig struct {
	CookieSecure bool
	CookieDomain string
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// ログイン中のユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証のリクエストも拒否せずに次へ渡す。拒否はAccessGuardの責務。
// セッションの有効期限が延長された場合はCookieのMax-Ageも合わせて更新する。
func NewSessionMiddleware(resolver SessionResolver, config SessionCookieConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, session, err := resolver.Resolve(r.Context(), cookie.Value)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to resolve session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			if session != nil && session.Refreshed {
				refreshSessionCookie(w, config, session)
			}

			recordUserIDForLog(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), user)))
		})
	}
}

func refreshSessionCookie(w http.ResponseWriter, config SessionCookieConfig, session *model.Session) {
	maxAge := int(time.Until(session.ExpiresAt) / time.Second)
	if maxAge <= 0 {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// NewAccessGuard はログインしていないリクエストをloginPathへリダイレクトするミドルウェアを返す。
// JSONは返さない。
func NewAccessGuard(loginPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if PrincipalFromContext(r.Context()) == nil {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext はリクエストコンテキストからログイン中のユーザーを取得する。
// 未認証の場合はnilを返す。
func PrincipalFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(principalContextKey).(*model.User)
	return user
}

// UserIDFromContext はリクエストコンテキストからログイン中のユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, bool) {
	user := PrincipalFromContext(ctx)
	if user == nil || user.ID == "" {
		return "", false
	}
	return user.ID, true
}

// ContextWithPrincipal はコンテキストにログイン中のユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, principalContextKey, user)
}
