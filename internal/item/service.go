// Package item は商品カタログのドメインロジックを提供する。
package item

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/repository"
	"github.com/hitoshi/catalog/internal/security"
	"github.com/hitoshi/catalog/internal/validation"
)

// CreatedRecorder はリソース作成を記録するメトリクスのインターフェース。
type CreatedRecorder interface {
	RecordResourceCreated(resource string)
}

// Service は商品のCRUDを提供するサービス層。
// 入力検証で違反がある場合はストアに書き込まずに*model.APIErrorを返す。
type Service struct {
	repo      repository.ItemRepository
	sanitizer security.Sanitizer
	metrics   CreatedRecorder

	now   func() time.Time
	newID func() string
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilでもよい。
func NewService(repo repository.ItemRepository, sanitizer security.Sanitizer, metrics CreatedRecorder) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:     uuid.NewString,
	}
}

// Create は商品を作成する。
func (s *Service) Create(ctx context.Context, body validation.Body) (*model.Item, error) {
	if violations := CreateRules.Validate(body); len(violations) > 0 {
		return nil, model.NewValidationError(violations)
	}

	now := s.now()
	item := &model.Item{ID: s.newID(), CreatedAt: now, UpdatedAt: now}
	BindInput(body).ApplyTo(item)
	if violations := s.sanitize(item); len(violations) > 0 {
		return nil, model.NewValidationError(violations)
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("商品の作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordResourceCreated("item")
	}
	slog.InfoContext(ctx, "商品を作成しました", slog.String("item_id", item.ID))
	return item, nil
}

// List は全商品を返す。
func (s *Service) List(ctx context.Context) ([]*model.Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("商品一覧の取得に失敗しました: %w", err)
	}
	if items == nil {
		items = []*model.Item{}
	}
	return items, nil
}

// Get は指定IDの商品を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(id)
	}
	return item, nil
}

// Update は指定されたフィールドのみを更新する。
// 0や空でない値であっても、指定されたフィールドは上書きし、未指定のフィールドは保持する。
func (s *Service) Update(ctx context.Context, id string, body validation.Body) (*model.Item, error) {
	if violations := UpdateRules.Validate(body); len(violations) > 0 {
		return nil, model.NewValidationError(violations)
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	BindInput(body).ApplyTo(item)
	if violations := s.sanitize(item); len(violations) > 0 {
		return nil, model.NewValidationError(violations)
	}
	item.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewItemNotFoundError(id)
		}
		return nil, fmt.Errorf("商品の更新に失敗しました: %w", err)
	}
	return item, nil
}

// Delete は指定IDの商品を削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewItemNotFoundError(id)
		}
		return fmt.Errorf("商品の削除に失敗しました: %w", err)
	}
	slog.InfoContext(ctx, "商品を削除しました", slog.String("item_id", id))
	return nil
}

// sanitize はテキストフィールドを無害化する。
// 無害化の結果、必須フィールドが空になった場合は違反を返す。
func (s *Service) sanitize(item *model.Item) []model.Violation {
	item.ProductName = s.sanitizer.PlainText(item.ProductName)
	item.Description = s.sanitizer.RichText(item.Description)
	item.Category = s.sanitizer.PlainText(item.Category)

	var violations []model.Violation
	for _, f := range []struct{ name, value string }{
		{"productName", item.ProductName},
		{"description", item.Description},
		{"category", item.Category},
	} {
		if strings.TrimSpace(f.value) == "" {
			violations = append(violations, model.Violation{Field: f.name, Message: f.name + " is required"})
		}
	}
	return violations
}
