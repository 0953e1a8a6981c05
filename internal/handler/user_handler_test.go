package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/validation"
)

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	createFn func(ctx context.Context, body validation.Body) (*model.User, error)
	listFn   func(ctx context.Context) ([]*model.User, error)
	getFn    func(ctx context.Context, id string) (*model.User, error)
	updateFn func(ctx context.Context, id string, body validation.Body) (*model.User, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockUserService) Create(ctx context.Context, body validation.Body) (*model.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, body)
	}
	return &model.User{}, nil
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.User{}, nil
}

func (m *mockUserService) Get(ctx context.Context, id string) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewUserNotFoundError(id)
}

func (m *mockUserService) Update(ctx context.Context, id string, body validation.Body) (*model.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, body)
	}
	return &model.User{ID: id}, nil
}

func (m *mockUserService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func TestUserHandler_CreateUser_OmitsPasswordHash(t *testing.T) {
	dob := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	svc := &mockUserService{
		createFn: func(ctx context.Context, body validation.Body) (*model.User, error) {
			return &model.User{
				ID: "user-1", FirstName: "Ada", LastName: "Lovelace",
				Email: "ada@example.com", PasswordHash: "$2a$10$secret",
				DateOfBirth: &dob,
			}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/users",
		strings.NewReader(`{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","password":"secret1"}`))
	rec := httptest.NewRecorder()
	h.CreateUser(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	raw := rec.Body.String()
	if strings.Contains(raw, "secret") || strings.Contains(strings.ToLower(raw), "password") {
		t.Errorf("response must not expose the password: %s", raw)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["dateOfBirth"] != "1990-05-17" {
		t.Errorf("dateOfBirth = %v, want 1990-05-17", got["dateOfBirth"])
	}
}

func TestUserHandler_CreateUser_DuplicateEmail_Returns409(t *testing.T) {
	svc := &mockUserService{
		createFn: func(ctx context.Context, body validation.Body) (*model.User, error) {
			return nil, model.NewEmailAlreadyExistsError()
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"email":"ada@example.com"}`))
	rec := httptest.NewRecorder()
	h.CreateUser(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	body := decodeErrorBody(t, rec)
	if body.Code != model.ErrCodeEmailAlreadyExists {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeEmailAlreadyExists)
	}
	if len(body.Errors) != 1 || body.Errors[0].Field != "email" {
		t.Errorf("errors = %+v, want email violation", body.Errors)
	}
}

func TestUserHandler_CreateUser_MalformedJSON_Returns400(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"firstName":`))
	rec := httptest.NewRecorder()
	h.CreateUser(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUserHandler_ListUsers_ReturnsArray(t *testing.T) {
	svc := &mockUserService{
		listFn: func(ctx context.Context) ([]*model.User, error) {
			return []*model.User{{ID: "u1"}, {ID: "u2"}}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	h.ListUsers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestUserHandler_GetUser_NotFound_Returns404(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/missing", nil)
	rec := serveWithID(h.GetUser, req, "missing")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if body := decodeErrorBody(t, rec); body.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUserNotFound)
	}
}

func TestUserHandler_UpdateUser_PassesIDAndBody(t *testing.T) {
	svc := &mockUserService{
		updateFn: func(ctx context.Context, id string, body validation.Body) (*model.User, error) {
			if id != "user-7" {
				t.Errorf("id = %q, want user-7", id)
			}
			if !body.Has("displayName") {
				t.Error("displayName should be passed to the service")
			}
			return &model.User{ID: id, DisplayName: "Countess"}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/users/user-7", strings.NewReader(`{"displayName":"Countess"}`))
	rec := serveWithID(h.UpdateUser, req, "user-7")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestUserHandler_DeleteUser_ReturnsMessage(t *testing.T) {
	var deleted string
	svc := &mockUserService{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/user-1", nil)
	rec := serveWithID(h.DeleteUser, req, "user-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if deleted != "user-1" {
		t.Errorf("deleted = %q, want user-1", deleted)
	}
	if !strings.Contains(rec.Body.String(), "User deleted successfully") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
