package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net"
	"net/http"
	"strings"
)

const sessionCookie = "march_session"

// Gateway supplies the authenticated nickname for every inbound action. The
// core never re-validates credentials, only identity presence.
type Gateway interface {
	Identity(r *http.Request) (nick, ip string, ok bool)
}

// CookieGateway binds identity to a signed cookie value. It is deliberately
// thin; a real authentication protocol is out of scope for the core.
type CookieGateway struct {
	secret []byte
}

func NewCookieGateway(secret string) *CookieGateway {
	return &CookieGateway{secret: []byte(secret)}
}

func (g *CookieGateway) sign(nick string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(nick))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Issue binds nick to the response session.
func (g *CookieGateway) Issue(w http.ResponseWriter, nick string) {
	value := base64.RawURLEncoding.EncodeToString([]byte(nick)) + "." + g.sign(nick)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *CookieGateway) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func (g *CookieGateway) Identity(r *http.Request) (string, string, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", clientIP(r), false
	}
	parts := strings.SplitN(cookie.Value, ".", 2)
	if len(parts) != 2 {
		return "", clientIP(r), false
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", clientIP(r), false
	}
	nick := string(raw)
	if !hmac.Equal([]byte(parts[1]), []byte(g.sign(nick))) {
		return "", clientIP(r), false
	}
	return nick, clientIP(r), true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
