package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newCSRFHandler(called *bool, token *string) http.Handler {
	return NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if token != nil {
			*token = CSRFTokenFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCSRFMiddleware_GETRequest_SetsCookieAndContextToken(t *testing.T) {
	var called bool
	var token string
	handler := newCSRFHandler(&called, &token)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("handler should have been called for GET request")
	}
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected csrf_token cookie to be set")
	}
	if token == "" || token != cookie.Value {
		t.Errorf("context token = %q, cookie = %q", token, cookie.Value)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}
}

func TestCSRFMiddleware_GETRequest_KeepsExistingCookie(t *testing.T) {
	var called bool
	var token string
	handler := newCSRFHandler(&called, &token)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if token != "existing" {
		t.Errorf("token = %q, want existing", token)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("existing cookie should not be replaced")
	}
}

func TestCSRFMiddleware_POST_NoCookie_Returns403(t *testing.T) {
	var called bool
	handler := newCSRFHandler(&called, nil)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if called {
		t.Error("handler should not be called without a cookie")
	}
	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestCSRFMiddleware_POST_FormFieldMatches(t *testing.T) {
	var called bool
	handler := newCSRFHandler(&called, nil)

	form := url.Values{CSRFFieldName: {"tok"}, "username": {"alice"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("handler should be called when the form token matches")
	}
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestCSRFMiddleware_POST_HeaderMatches(t *testing.T) {
	var called bool
	handler := newCSRFHandler(&called, nil)

	req := httptest.NewRequest(http.MethodPost, "/messages/1/read", nil)
	req.Header.Set(csrfHeaderName, "tok")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("handler should be called when the header token matches")
	}
}

func TestCSRFMiddleware_POST_Mismatch_Returns403(t *testing.T) {
	var called bool
	handler := newCSRFHandler(&called, nil)

	form := url.Values{CSRFFieldName: {"other"}}
	req := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if called {
		t.Error("handler should not be called on token mismatch")
	}
	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestCSRFMiddleware_POST_MissingSubmittedToken_Returns403(t *testing.T) {
	var called bool
	handler := newCSRFHandler(&called, nil)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if called || w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("called = %v, status = %d", called, w.Result().StatusCode)
	}
}
