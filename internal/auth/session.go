package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/repository"
)

// SessionConfig はセッション管理の設定。
type SessionConfig struct {
	// MaxAge はセッションの有効期間。アクセスのたびにこの期間だけ延長される。
	MaxAge time.Duration
	// RefreshInterval は有効期限を延長する最小間隔。0の場合は毎回延長する。
	RefreshInterval time.Duration
}

// SessionManager はセッションの発行・解決・破棄を担う。
// セッションにはユーザーIDのみを保存し、解決時にユーザーを読み直す。
type SessionManager struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	config   SessionConfig
	now      func() time.Time
}

// NewSessionManager はSessionManagerを生成する。
func NewSessionManager(sessions repository.SessionRepository, users repository.UserRepository, config SessionConfig) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		users:    users,
		config:   config,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// MaxAge はセッションの有効期間を返す。Cookieの有効期限に使う。
func (m *SessionManager) MaxAge() time.Duration {
	return m.config.MaxAge
}

// Establish はユーザーの新しいセッションを発行する。
func (m *SessionManager) Establish(ctx context.Context, user *model.User) (*model.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := m.now()
	session := &model.Session{
		ID:        id,
		UserID:    user.ID,
		ExpiresAt: now.Add(m.config.MaxAge),
		CreatedAt: now,
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// Resolve はセッションIDからログイン中のユーザーを取得する。
// セッションが存在しない・期限切れ・ユーザーが削除済みの場合は nil, nil, nil を返す。
// 残り期間が MaxAge-RefreshInterval を下回っていれば有効期限を延長する。
func (m *SessionManager) Resolve(ctx context.Context, token string) (*model.User, *model.Session, error) {
	if token == "" {
		return nil, nil, nil
	}

	session, err := m.sessions.FindByID(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil, nil
	}

	user, err := m.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// ユーザーが消えたセッションは破棄する
		if err := m.sessions.DeleteByID(ctx, session.ID); err != nil {
			slog.WarnContext(ctx, "孤立したセッションの削除に失敗しました",
				slog.String("user_id", session.UserID),
				slog.String("error", err.Error()),
			)
		}
		return nil, nil, nil
	}

	now := m.now()
	if session.ExpiresAt.Sub(now) < m.config.MaxAge-m.config.RefreshInterval {
		expiresAt := now.Add(m.config.MaxAge)
		err := m.sessions.Touch(ctx, session.ID, expiresAt)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, nil, nil
		case err != nil:
			slog.WarnContext(ctx, "セッション有効期限の延長に失敗しました",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		default:
			session.ExpiresAt = expiresAt
			session.Refreshed = true
		}
	}

	return user, session, nil
}

// Destroy はセッションを破棄する。存在しないセッションを指定してもエラーにしない。
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.sessions.DeleteByID(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
