package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/hitoshi/catalog/internal/model"
)

var userRowColumns = []string{
	"id", "first_name", "last_name", "display_name", "email", "password_hash", "google_id",
	"date_of_birth", "address_street", "address_city", "address_state", "address_zip_code",
	"created_at", "updated_at",
}

func TestPostgresUserRepo_FindByGoogleID_MapsNullableColumns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE google_id = \$1`).
		WithArgs("g-1").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u-1", "Ada", "Lovelace", "Ada Lovelace", nil, nil, "g-1",
				nil, nil, nil, nil, nil, now, now))

	user, err := repo.FindByGoogleID(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("FindByGoogleID error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Email != "" || user.PasswordHash != "" {
		t.Errorf("NULL columns should map to empty strings: %+v", user)
	}
	if user.DateOfBirth != nil || user.Address != nil {
		t.Errorf("NULL date/address should map to nil: %+v", user)
	}
	if user.DisplayName != "Ada Lovelace" {
		t.Errorf("DisplayName = %q", user.DisplayName)
	}
}

func TestPostgresUserRepo_FindByID_WithAddressAndDate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	now := time.Now().UTC()
	dob := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u-1", "Ada", "Lovelace", "", "ada@example.com", "hash", nil,
				dob, "1 Main St", "Springfield", "IL", "62701", now, now))

	user, err := repo.FindByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if user.DateOfBirthString() != "1990-04-01" {
		t.Errorf("DateOfBirth = %q, want 1990-04-01", user.DateOfBirthString())
	}
	if user.Address == nil || user.Address.ZipCode != "62701" {
		t.Errorf("unexpected address: %+v", user.Address)
	}
	if user.GoogleID != "" {
		t.Errorf("GoogleID = %q, want empty", user.GoogleID)
	}
}

func TestPostgresUserRepo_FindByEmail_CaseInsensitive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("ADA@example.com").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.FindByEmail(context.Background(), "ADA@example.com")
	if err != nil || user != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", user, err)
	}
}

func TestPostgresUserRepo_Create_DuplicateReturnsErrDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_google_id_key"})

	err := repo.Create(context.Background(), &model.User{ID: "u-1", GoogleID: "g-1"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPostgresUserRepo_Create_StoresEmptyStringsAsNull(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	now := time.Now().UTC()
	user := &model.User{ID: "u-1", DisplayName: "Ada", GoogleID: "g-1", CreatedAt: now, UpdatedAt: now}

	null := sql.NullString{}
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u-1", "", "", "Ada", null, null, sql.NullString{String: "g-1", Valid: true},
			sql.NullTime{}, null, null, null, null, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestPostgresUserRepo_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(`UPDATE users\s+SET first_name`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE users\s+SET first_name`).
		WillReturnError(&pq.Error{Code: "23505"})

	if err := repo.Update(context.Background(), &model.User{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(context.Background(), &model.User{ID: "u-1", Email: "taken@example.com"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestPostgresUserRepo_LinkGoogleID_OnlyWhenUnlinked(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(`UPDATE users SET google_id = \$2, updated_at = now\(\)\s+WHERE id = \$1 AND google_id IS NULL`).
		WithArgs("u-1", "g-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.LinkGoogleID(context.Background(), "u-1", "g-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for already linked user, got %v", err)
	}
}

func TestPostgresUserRepo_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "u-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}
