// Package repository はデータ永続化のインターフェースとその実装を提供する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/catalog/internal/model"
)

// ItemRepository は商品データの永続化インターフェース。
type ItemRepository interface {
	// List は全商品を作成日時の昇順で返す。0件の場合は空スライスを返す。
	List(ctx context.Context) ([]*model.Item, error)

	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Item, error)

	// Create は商品を作成する。
	Create(ctx context.Context, item *model.Item) error

	// Update は商品を上書き更新する。存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, item *model.Item) error

	// Delete は商品を削除する。存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) error
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// List は全ユーザーを作成日時の昇順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByGoogleID はGoogleのsubjectでユーザーを検索する。見つからない場合はnilを返す。
	FindByGoogleID(ctx context.Context, googleID string) (*model.User, error)

	// FindByEmail はメールアドレス（大文字小文字を区別しない）でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// google_idまたはemailが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーを上書き更新する。
	// 存在しない場合はErrNotFound、emailが重複する場合はErrDuplicateを返す。
	Update(ctx context.Context, user *model.User) error

	// LinkGoogleID はGoogle IDが未設定のユーザーにGoogle IDを紐付ける。
	// 対象ユーザーが存在しないか既に紐付け済みの場合はErrNotFoundを返す。
	LinkGoogleID(ctx context.Context, userID, googleID string) error

	// Delete はユーザーを削除する。存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。存在しないか期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// Touch はセッションの有効期限をexpiresAtに延長する。
	// 存在しない場合はErrNotFoundを返す。
	Touch(ctx context.Context, id string, expiresAt time.Time) error

	// DeleteByID は指定IDのセッションを削除する。存在しなくてもエラーにしない。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
