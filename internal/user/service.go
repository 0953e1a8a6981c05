// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/repository"
	"github.com/hitoshi/catalog/internal/security"
	"github.com/hitoshi/catalog/internal/validation"
)

// SessionDeleter はユーザーのセッション一括削除インターフェース。
type SessionDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// CreatedRecorder はリソース作成を記録するメトリクスのインターフェース。
type CreatedRecorder interface {
	RecordResourceCreated(resource string)
}

// Config はServiceの設定。
type Config struct {
	// PasswordCost はbcryptのコスト。0の場合はbcrypt.DefaultCost。
	PasswordCost int
}

// Service はユーザーのCRUDを提供するサービス層。
type Service struct {
	userRepo     repository.UserRepository
	sessions     SessionDeleter
	sanitizer    security.Sanitizer
	metrics      CreatedRecorder
	passwordCost int

	now   func() time.Time
	newID func() string
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	sessions SessionDeleter,
	sanitizer security.Sanitizer,
	metrics CreatedRecorder,
	cfg Config,
) *Service {
	cost := cfg.PasswordCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:     userRepo,
		sessions:     sessions,
		sanitizer:    sanitizer,
		metrics:      metrics,
		passwordCost: cost,
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:        uuid.NewString,
	}
}

// Create はローカルユーザーを作成する。パスワードはbcryptでハッシュ化して保存する。
func (s *Service) Create(ctx context.Context, body validation.Body) (*model.User, error) {
	if violations := CreateRules.Validate(body); len(violations) > 0 {
		return nil, model.NewValidationError(violations)
	}

	in := BindInput(body)
	now := s.now()
	user := &model.User{ID: s.newID(), CreatedAt: now, UpdatedAt: now}
	in.ApplyTo(user)
	if violations := s.sanitize(user, in); len(violations) > 0 {
		return nil, model.NewValidationError(violations)
	}

	hash, err := s.hashPassword(in.Password.Value)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewEmailAlreadyExistsError()
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordResourceCreated("user")
	}
	slog.InfoContext(ctx, "ユーザーを作成しました", slog.String("user_id", user.ID))
	return user, nil
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

// Get は指定IDのユーザーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// Update は指定されたフィールドのみを更新する。パスワードが指定された場合は再ハッシュする。
func (s *Service) Update(ctx context.Context, id string, body validation.Body) (*model.User, error) {
	if violations := UpdateRules.Validate(body); len(violations) > 0 {
		return nil, model.NewValidationError(violations)
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	in := BindInput(body)
	in.ApplyTo(user)
	if violations := s.sanitize(user, in); len(violations) > 0 {
		return nil, model.NewValidationError(violations)
	}
	if in.Password.Set {
		hash, err := s.hashPassword(in.Password.Value)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = s.now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewUserNotFoundError(id)
		case errors.Is(err, repository.ErrDuplicate):
			return nil, model.NewEmailAlreadyExistsError()
		}
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	return user, nil
}

// Delete はユーザーとそのセッションを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if s.sessions != nil {
		if err := s.sessions.DeleteByUserID(ctx, id); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError(id)
		}
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "ユーザーを削除しました", slog.String("user_id", id))
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", model.NewValidationError([]model.Violation{
			{Field: "password", Message: "password must be at most 72 bytes long"},
		})
	}
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}
	return string(hash), nil
}

// sanitize はテキストフィールドを無害化する。
// 入力された氏名が無害化の結果空になった場合は違反を返す。
func (s *Service) sanitize(user *model.User, in model.UserInput) []model.Violation {
	user.FirstName = s.sanitizer.PlainText(user.FirstName)
	user.LastName = s.sanitizer.PlainText(user.LastName)
	user.DisplayName = s.sanitizer.PlainText(user.DisplayName)
	user.Email = strings.TrimSpace(user.Email)
	if user.Address != nil {
		user.Address.Street = s.sanitizer.PlainText(user.Address.Street)
		user.Address.City = s.sanitizer.PlainText(user.Address.City)
		user.Address.State = s.sanitizer.PlainText(user.Address.State)
		user.Address.ZipCode = s.sanitizer.PlainText(user.Address.ZipCode)
	}

	var violations []model.Violation
	if in.FirstName.Set && strings.TrimSpace(user.FirstName) == "" {
		violations = append(violations, model.Violation{Field: "firstName", Message: "firstName is required"})
	}
	if in.LastName.Set && strings.TrimSpace(user.LastName) == "" {
		violations = append(violations, model.Violation{Field: "lastName", Message: "lastName is required"})
	}
	return violations
}
