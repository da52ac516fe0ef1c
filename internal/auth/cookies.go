package auth

import (
	"net/http"
	"time"
)

// Cookie names. The session pair is read on every request; the two OAuth
// cookies only exist for the duration of a login round-trip.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	// OAuthStateCookie pins the random state value across the provider
	// redirect (CSRF protection).
	OAuthStateCookie = "oauth_state"

	// OAuthNextCookie remembers where to send the user after the callback.
	OAuthNextCookie = "oauth_next"
)

// oauthCookieTTL bounds how long a pending OAuth round-trip stays valid.
const oauthCookieTTL = 10 * time.Minute

// CookieWriter issues and clears the auth cookies with consistent
// attributes: HttpOnly (no script access), SameSite=Lax (sent on top-level
// navigations, not cross-site POSTs), Secure when running behind HTTPS.
//
// It is configured once at startup and injected into the auth handler, so
// the dev/prod Secure switch lives in exactly one place.
type CookieWriter struct {
	Secure bool
}

// SetSession writes the access/refresh pair. Each cookie's MaxAge matches
// its token's TTL so the browser drops them at the same time they stop
// validating.
func (c CookieWriter) SetSession(w http.ResponseWriter, pair TokenPair) {
	http.SetCookie(w, c.cookie(AccessCookie, pair.AccessToken, int(AccessTokenTTL.Seconds())))
	http.SetCookie(w, c.cookie(RefreshCookie, pair.RefreshToken, int(RefreshTokenTTL.Seconds())))
}

// ClearSession deletes both session cookies.
func (c CookieWriter) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(AccessCookie, "", -1))
	http.SetCookie(w, c.cookie(RefreshCookie, "", -1))
}

// SetOAuth writes the state and next-path cookies before redirecting to the
// provider. Both expire after 10 minutes — long enough to approve the
// consent screen, short enough to limit a stolen state's usefulness.
func (c CookieWriter) SetOAuth(w http.ResponseWriter, state, next string) {
	ttl := int(oauthCookieTTL.Seconds())
	http.SetCookie(w, c.cookie(OAuthStateCookie, state, ttl))
	http.SetCookie(w, c.cookie(OAuthNextCookie, next, ttl))
}

// ClearOAuth deletes the single-use OAuth cookies after the callback.
func (c CookieWriter) ClearOAuth(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(OAuthStateCookie, "", -1))
	http.SetCookie(w, c.cookie(OAuthNextCookie, "", -1))
}

func (c CookieWriter) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SafeNext returns next when it is a local path, or fallback otherwise.
// Prevents open-redirect abuse of the post-login destination.
func SafeNext(next, fallback string) string {
	if len(next) > 0 && next[0] == '/' && (len(next) == 1 || next[1] != '/') {
		return next
	}
	return fallback
}
