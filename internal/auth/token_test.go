package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAccessToken(t *testing.T) {
	t.Run("Cookie Preferred", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie_token"})
		// Add header as well to ensure cookie takes precedence
		req.Header.Set("Authorization", "Bearer header_token")

		token := ExtractAccessToken(req)
		assert.Equal(t, "cookie_token", token)
	})

	t.Run("Header Fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header_token")

		token := ExtractAccessToken(req)
		assert.Equal(t, "header_token", token)
	})

	t.Run("Empty Cookie Falls Back to Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: ""})
		req.Header.Set("Authorization", "Bearer header_token")

		token := ExtractAccessToken(req)
		assert.Equal(t, "header_token", token)
	})

	t.Run("No Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		token := ExtractAccessToken(req)
		assert.Empty(t, token)
	})

	t.Run("Malformed Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic user:pass")

		token := ExtractAccessToken(req)
		assert.Empty(t, token)
	})
}

func TestExtractGuestID(t *testing.T) {
	const id = "7f1d3c52-8a41-4f7e-9a0e-2d6b1c9e4a10"

	t.Run("From Cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: GuestIDCookie, Value: id})

		got, ok := ExtractGuestID(req)
		assert.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("From Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(GuestIDHeader, id)

		got, ok := ExtractGuestID(req)
		assert.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("Malformed cookie falls back to header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: GuestIDCookie, Value: "not-a-uuid"})
		req.Header.Set(GuestIDHeader, id)

		got, ok := ExtractGuestID(req)
		assert.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("Missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		_, ok := ExtractGuestID(req)
		assert.False(t, ok)
	})
}

func TestEnsureGuestID(t *testing.T) {
	t.Run("Issues a cookie when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		id := EnsureGuestID(w, req)
		assert.NotEmpty(t, id)
		assert.Equal(t, id, w.Header().Get(GuestIDHeader))

		cookies := w.Result().Cookies()
		if assert.Len(t, cookies, 1) {
			assert.Equal(t, GuestIDCookie, cookies[0].Name)
			assert.Equal(t, id, cookies[0].Value)
			assert.True(t, cookies[0].HttpOnly)
		}
	})

	t.Run("Keeps an existing id", func(t *testing.T) {
		const id = "7f1d3c52-8a41-4f7e-9a0e-2d6b1c9e4a10"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(GuestIDHeader, id)
		w := httptest.NewRecorder()

		assert.Equal(t, id, EnsureGuestID(w, req))
		assert.Empty(t, w.Result().Cookies())
	})
}
