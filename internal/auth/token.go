package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	AccessTokenCookie = "access_token"
	GuestIDCookie     = "guest_id"
	GuestIDHeader     = "X-Guest-ID"

	guestCookieMaxAge = 30 * 24 * time.Hour
)

func ExtractAccessToken(r *http.Request) string {
	// Cookie (preferred)
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	// Authorization header (fallback)
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// ExtractGuestID returns the device's guest id from the cookie or header.
// Anything that is not a UUID is ignored.
func ExtractGuestID(r *http.Request) (string, bool) {
	candidates := []string{r.Header.Get(GuestIDHeader)}
	if cookie, err := r.Cookie(GuestIDCookie); err == nil {
		candidates = append([]string{cookie.Value}, candidates...)
	}

	for _, c := range candidates {
		if id, err := uuid.Parse(strings.TrimSpace(c)); err == nil {
			return id.String(), true
		}
	}
	return "", false
}

// EnsureGuestID returns the request's guest id, issuing a new one in a
// cookie when there is none.
func EnsureGuestID(w http.ResponseWriter, r *http.Request) string {
	if id, ok := ExtractGuestID(r); ok {
		return id
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     GuestIDCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(guestCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(GuestIDHeader, id)
	return id
}
