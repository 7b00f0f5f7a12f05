package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionContextKey = "session_id"
	// SessionHeader lets API clients without cookies pick their session.
	SessionHeader = "X-Session-ID"
)

// SessionMiddleware assigns every browser a wizard session id, kept in a
// cookie.
type SessionMiddleware struct {
	cookieName string
	maxAge     time.Duration
	secure     bool
}

// NewSessionMiddleware creates a session middleware.
func NewSessionMiddleware(cookieName string, maxAge time.Duration, secure bool) *SessionMiddleware {
	if cookieName == "" {
		cookieName = "heartguard_session"
	}
	return &SessionMiddleware{cookieName: cookieName, maxAge: maxAge, secure: secure}
}

// Handler reads the session id from the cookie or the X-Session-ID header,
// issuing a new one when neither holds a valid UUID. The cookie is refreshed
// on every response so its lifetime tracks the idle TTL.
func (sm *SessionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if v, err := c.Cookie(sm.cookieName); err == nil && validSessionID(v) {
			id = v
		} else if v := c.GetHeader(SessionHeader); validSessionID(v) {
			id = v
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(sessionContextKey, id)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sm.cookieName, id, int(sm.maxAge.Seconds()), "/", "", sm.secure, true)
		c.Header(SessionHeader, id)
		c.Next()
	}
}

// SessionID returns the session id set by the middleware, or "".
func SessionID(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}

func validSessionID(v string) bool {
	if v == "" {
		return false
	}
	_, err := uuid.Parse(v)
	return err == nil
}
