// Package auth はGoogle OAuthによるログインとセッション管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/catalog/internal/metrics"
	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/repository"
)

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、プロフィールを取得する。
	ExchangeCode(ctx context.Context, code string) (*model.GoogleProfile, error)
}

// LoginRecorder はログイン結果を記録するメトリクスのインターフェース。
type LoginRecorder interface {
	RecordLogin(result string)
	RecordSessionCreated()
}

// maxResolveAttempts は同時初回ログインで一意制約に衝突した場合の再試行回数。
const maxResolveAttempts = 3

// Service はOAuthコールバックからセッション発行までを担う。
type Service struct {
	oauth    OAuthProvider
	users    repository.UserRepository
	sessions *SessionManager
	metrics  LoginRecorder

	now   func() time.Time
	newID func() string
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(oauth OAuthProvider, users repository.UserRepository, sessions *SessionManager, recorder LoginRecorder) *Service {
	return &Service{
		oauth:    oauth,
		users:    users,
		sessions: sessions,
		metrics:  recorder,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:    uuid.NewString,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback は認可コードを交換し、ユーザーを特定してセッションを発行する。
// いずれかの段階で失敗した場合、セッションは作成されない。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	session, err := s.handleCallback(ctx, code)
	if err != nil {
		s.recordLogin(metrics.LoginFailure)
		return nil, err
	}
	s.recordLogin(metrics.LoginSuccess)
	if s.metrics != nil {
		s.metrics.RecordSessionCreated()
	}
	return session, nil
}

func (s *Service) handleCallback(ctx context.Context, code string) (*model.Session, error) {
	if code == "" {
		return nil, errors.New("authorization code is required")
	}

	profile, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	user, err := s.ResolvePrincipal(ctx, profile)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Establish(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}

	slog.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return session, nil
}

// ResolvePrincipal はGoogleプロフィールに対応するユーザーを返す。
// Google IDで見つからない場合、Google未連携の同一メールアドレスのユーザーがあれば紐付け、
// なければ新規作成する。同時ログインで一意制約に衝突した場合は検索からやり直す。
func (s *Service) ResolvePrincipal(ctx context.Context, profile *model.GoogleProfile) (*model.User, error) {
	if profile == nil || profile.Subject == "" {
		return nil, errors.New("google profile has no subject")
	}

	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		user, err := s.users.FindByGoogleID(ctx, profile.Subject)
		if err != nil {
			return nil, fmt.Errorf("failed to find user by google id: %w", err)
		}
		if user != nil {
			return user, nil
		}

		email := profile.Email
		if email != "" {
			existing, err := s.users.FindByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to find user by email: %w", err)
			}
			if existing != nil {
				if existing.GoogleID != "" {
					// 別のGoogleアカウントに紐付いたメールアドレスは引き継がない
					email = ""
				} else {
					err := s.users.LinkGoogleID(ctx, existing.ID, profile.Subject)
					if err == nil {
						existing.GoogleID = profile.Subject
						slog.InfoContext(ctx, "linked google account to existing user", slog.String("user_id", existing.ID))
						return existing, nil
					}
					if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrDuplicate) {
						return nil, fmt.Errorf("failed to link google id: %w", err)
					}
					continue
				}
			}
		}

		user = s.newUserFromProfile(profile, email)
		err = s.users.Create(ctx, user)
		if err == nil {
			slog.InfoContext(ctx, "new user created", slog.String("user_id", user.ID))
			return user, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	return nil, fmt.Errorf("failed to resolve user for google subject after %d attempts", maxResolveAttempts)
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "user logged out")
	return nil
}

func (s *Service) newUserFromProfile(profile *model.GoogleProfile, email string) *model.User {
	now := s.now()
	return &model.User{
		ID:          s.newID(),
		FirstName:   profile.GivenName,
		LastName:    profile.FamilyName,
		DisplayName: profile.DisplayName,
		Email:       email,
		GoogleID:    profile.Subject,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *Service) recordLogin(result string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(result)
	}
}
