package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set; got %v", name, rec.Result().Cookies())
	return nil
}

func TestSetSession_CookieAttributes(t *testing.T) {
	rec := httptest.NewRecorder()
	writer := CookieWriter{Secure: true}

	writer.SetSession(rec, TokenPair{AccessToken: "acc", RefreshToken: "ref"})

	access := findCookie(t, rec, AccessCookie)
	if access.Value != "acc" {
		t.Errorf("access cookie value = %q, want %q", access.Value, "acc")
	}
	if !access.HttpOnly {
		t.Error("access cookie must be HttpOnly")
	}
	if !access.Secure {
		t.Error("access cookie must be Secure when the writer is")
	}
	if access.SameSite != http.SameSiteLaxMode {
		t.Errorf("access cookie SameSite = %v, want Lax", access.SameSite)
	}
	if access.MaxAge != int(AccessTokenTTL.Seconds()) {
		t.Errorf("access cookie MaxAge = %d, want %d", access.MaxAge, int(AccessTokenTTL.Seconds()))
	}

	refresh := findCookie(t, rec, RefreshCookie)
	if refresh.MaxAge != int(RefreshTokenTTL.Seconds()) {
		t.Errorf("refresh cookie MaxAge = %d, want %d", refresh.MaxAge, int(RefreshTokenTTL.Seconds()))
	}
}

func TestClearSession_DeletesBothCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	CookieWriter{}.ClearSession(rec)

	for _, name := range []string{AccessCookie, RefreshCookie} {
		c := findCookie(t, rec, name)
		if c.MaxAge != -1 {
			t.Errorf("%s MaxAge = %d, want -1 (delete)", name, c.MaxAge)
		}
	}
}

func TestSetOAuth_TenMinuteExpiry(t *testing.T) {
	rec := httptest.NewRecorder()
	CookieWriter{}.SetOAuth(rec, "state-1", "/profile")

	state := findCookie(t, rec, OAuthStateCookie)
	if state.MaxAge != 600 {
		t.Errorf("state cookie MaxAge = %d, want 600", state.MaxAge)
	}
	next := findCookie(t, rec, OAuthNextCookie)
	if next.Value != "/profile" {
		t.Errorf("next cookie value = %q, want %q", next.Value, "/profile")
	}
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/my-posts", "/my-posts"},
		{"/", "/"},
		{"https://evil.example", "/my-posts"},
		{"//evil.example", "/my-posts"},
		{"", "/my-posts"},
	}
	for _, tt := range tests {
		if got := SafeNext(tt.next, "/my-posts"); got != tt.want {
			t.Errorf("SafeNext(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}
