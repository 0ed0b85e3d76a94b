package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ClientCookie carries the client storage id between requests.
	ClientCookie = "radlearn_client"
	// ClientHeader lets non-browser callers pick their storage id.
	ClientHeader = "X-Client-ID"
	// ClientIDKey is the gin context key holding the resolved id.
	ClientIDKey = "client_id"

	clientCookieMaxAge = 365 * 24 * 60 * 60
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// ClientID resolves which client storage a request belongs to. The cookie
// wins over the header; a missing or malformed id is replaced by a fresh one
// which is sent back as a cookie.
func ClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(ClientCookie)
		if err != nil || !clientIDPattern.MatchString(id) {
			id = c.GetHeader(ClientHeader)
		}
		if !clientIDPattern.MatchString(id) {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(ClientCookie, id, clientCookieMaxAge, "/", "", false, true)
		}
		c.Set(ClientIDKey, id)
		c.Next()
	}
}

// ClientIDFrom returns the id set by ClientID.
func ClientIDFrom(c *gin.Context) string {
	return c.GetString(ClientIDKey)
}
