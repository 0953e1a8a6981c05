package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/catalog/internal/model"
)

func newCSRFHandler(called *bool) http.Handler {
	mw := NewCSRFMiddleware(CSRFConfig{})
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCSRFMiddleware_SafeMethods_PassThroughWithoutToken(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(method, "/api/items", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess"})
			w := httptest.NewRecorder()

			newCSRFHandler(&called).ServeHTTP(w, req)

			if !called {
				t.Fatalf("handler should have been called for %s", method)
			}
		})
	}
}

func TestCSRFMiddleware_NoSessionCookie_PassesThrough(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodPost, "/api/items", nil)
	w := httptest.NewRecorder()

	newCSRFHandler(&called).ServeHTTP(w, req)

	if !called || w.Code != http.StatusOK {
		t.Errorf("called = %v, status = %d", called, w.Code)
	}
}

func TestCSRFMiddleware_WithSession_RejectsInvalidTokens(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
	}{
		{"no cookie", "", "token"},
		{"no header", "token", ""},
		{"mismatch", "token-a", "token-b"},
	}

	for _, tt := range tests {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
			t.Run(tt.name+"/"+method, func(t *testing.T) {
				called := false
				req := httptest.NewRequest(method, "/api/items", nil)
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess"})
				if tt.cookie != "" {
					req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
				}
				if tt.header != "" {
					req.Header.Set(csrfHeaderName, tt.header)
				}
				w := httptest.NewRecorder()

				newCSRFHandler(&called).ServeHTTP(w, req)

				if called {
					t.Error("handler should not be called")
				}
				if w.Code != http.StatusForbidden {
					t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
				}
				var body ErrorResponseBody
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode body: %v", err)
				}
				if body.Code != model.ErrCodeCSRFTokenInvalid {
					t.Errorf("code = %q, want %q", body.Code, model.ErrCodeCSRFTokenInvalid)
				}
			})
		}
	}
}

func TestCSRFMiddleware_WithSession_ValidToken_PassesThrough(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodPut, "/api/items/1", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess"})
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "valid-token"})
	req.Header.Set(csrfHeaderName, "valid-token")
	w := httptest.NewRecorder()

	newCSRFHandler(&called).ServeHTTP(w, req)

	if !called || w.Code != http.StatusOK {
		t.Errorf("called = %v, status = %d", called, w.Code)
	}
}

func TestCSRFMiddleware_GETRequest_SetsCSRFCookie(t *testing.T) {
	called := false
	w := httptest.NewRecorder()

	newCSRFHandler(&called).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/items", nil))

	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookieName {
			found = c
		}
	}
	if found == nil {
		t.Fatal("csrf_token cookie should be set")
	}
	if found.HttpOnly {
		t.Error("csrf_token cookie must be readable from JavaScript")
	}
	if len(found.Value) != 64 {
		t.Errorf("token length = %d, want 64", len(found.Value))
	}
}

func TestCSRFMiddleware_GETRequest_ExistingCookie_DoesNotReplace(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
	w := httptest.NewRecorder()

	newCSRFHandler(&called).ServeHTTP(w, req)

	if len(w.Result().Cookies()) != 0 {
		t.Errorf("cookies = %v, want none", w.Result().Cookies())
	}
}

func TestCSRFTokenHandler_SetsTokenCookieAndReturnsJSON(t *testing.T) {
	w := httptest.NewRecorder()
	NewCSRFTokenHandler(CSRFConfig{CookieSecure: true}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	if cookies[0].Value != body["token"] {
		t.Errorf("cookie %q and body %q differ", cookies[0].Value, body["token"])
	}
	if !cookies[0].Secure {
		t.Error("cookie should be Secure")
	}
}

func TestCSRFTokenHandler_ExistingCookie_ReturnsSameToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-token"})
	w := httptest.NewRecorder()

	NewCSRFTokenHandler(CSRFConfig{}).ServeHTTP(w, req)

	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["token"] != "existing-token" {
		t.Errorf("token = %q, want existing-token", body["token"])
	}
}
