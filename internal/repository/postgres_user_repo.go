package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/catalog/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, first_name, last_name, display_name, email, password_hash, google_id,
	date_of_birth, address_street, address_city, address_state, address_zip_code,
	created_at, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
	var (
		user                        model.User
		email, passwordHash, google sql.NullString
		dob                         sql.NullTime
		street, city, state, zip    sql.NullString
	)
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.DisplayName,
		&email, &passwordHash, &google, &dob,
		&street, &city, &state, &zip,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Email = email.String
	user.PasswordHash = passwordHash.String
	user.GoogleID = google.String
	if dob.Valid {
		d := dob.Time.UTC()
		user.DateOfBirth = &d
	}
	if street.Valid || city.Valid || state.Valid || zip.Valid {
		user.Address = &model.Address{
			Street:  street.String,
			City:    city.String,
			State:   state.String,
			ZipCode: zip.String,
		}
	}
	return &user, nil
}

// userArgs はINSERT/UPDATE用のパラメータを組み立てる。空文字列はNULLとして保存する。
func userArgs(user *model.User) []any {
	var dob sql.NullTime
	if user.DateOfBirth != nil {
		dob = sql.NullTime{Time: *user.DateOfBirth, Valid: true}
	}
	var addr model.Address
	hasAddr := user.Address != nil
	if hasAddr {
		addr = *user.Address
	}
	return []any{
		user.ID, user.FirstName, user.LastName, user.DisplayName,
		nullString(user.Email), nullString(user.PasswordHash), nullString(user.GoogleID), dob,
		addressPart(hasAddr, addr.Street), addressPart(hasAddr, addr.City),
		addressPart(hasAddr, addr.State), addressPart(hasAddr, addr.ZipCode),
		user.CreatedAt, user.UpdatedAt,
	}
}

// updateArgs はUPDATE用のパラメータを返す。created_atは含めない。
func updateArgs(user *model.User) []any {
	args := userArgs(user)
	return append(args[:12:12], user.UpdatedAt)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func addressPart(present bool, s string) sql.NullString {
	return sql.NullString{String: s, Valid: present}
}

// List は全ユーザーを作成日時の昇順で返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByGoogleID はGoogle IDでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return r.findOne(ctx, "google_id", `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID)
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email", `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, by, query string, arg any) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by %s: %w", by, err)
	}
	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		userArgs(user)...,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update はユーザーのプロフィールを上書き更新する。created_atは変更しない。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET first_name = $2, last_name = $3, display_name = $4, email = $5, password_hash = $6,
		     google_id = $7, date_of_birth = $8, address_street = $9, address_city = $10,
		     address_state = $11, address_zip_code = $12, updated_at = $13
		 WHERE id = $1`,
		updateArgs(user)...,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireAffected(result)
}

// LinkGoogleID はGoogle IDが未設定のユーザーにGoogle IDを紐付ける。
func (r *PostgresUserRepo) LinkGoogleID(ctx context.Context, userID, googleID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET google_id = $2, updated_at = now()
		 WHERE id = $1 AND google_id IS NULL`,
		userID, googleID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to link google id: %w", err)
	}
	return requireAffected(result)
}

// Delete はユーザーを削除する。セッションはCASCADE削除される。
func (r *PostgresUserRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireAffected(result)
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
