package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jgirmay/radlearn/internal/access"
	"github.com/jgirmay/radlearn/internal/common/errors"
	"github.com/jgirmay/radlearn/internal/common/middleware"
	"github.com/jgirmay/radlearn/internal/learner/models"
	"github.com/jgirmay/radlearn/internal/learner/services"
	"github.com/jgirmay/radlearn/internal/storage"
)

const (
	scopeKey   = "session_context"
	sessionKey = "session"
)

// ClientScope binds the learner stores to the caller's client storage. It
// must run after middleware.ClientID.
func ClientScope(base storage.Store, auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := middleware.ClientIDFrom(c)
		c.Set(scopeKey, auth.Bind(storage.Scoped(base, id)))
		c.Next()
	}
}

func scopeFrom(c *gin.Context) *services.SessionContext {
	sc, _ := c.MustGet(scopeKey).(*services.SessionContext)
	return sc
}

// RequireSession aborts with 401 unless the client has a valid session.
func RequireSession(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := auth.CurrentSession(c.Request.Context(), scopeFrom(c))
		if !ok {
			middleware.JSONErrorResponse(c, errors.Unauthorized("no active session"))
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireFeature aborts unless the caller's role may use f. Callers without
// a session are judged as anonymous public visitors.
func RequireFeature(f access.Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := profileFrom(c)
		if profile == nil {
			if session, ok := scopeFrom(c).Sessions.Current(c.Request.Context()); ok {
				c.Set(sessionKey, session)
				profile = &session.Profile
			}
		}
		if access.Allows(profile, f) {
			c.Next()
			return
		}
		if profile == nil {
			middleware.JSONErrorResponse(c, errors.Unauthorized("sign in to use "+string(f)))
			return
		}
		middleware.JSONErrorResponse(c, errors.Forbidden(string(profile.Role)+" role cannot use "+string(f)))
	}
}

func sessionFrom(c *gin.Context) *models.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*models.Session)
	return s
}

func profileFrom(c *gin.Context) *models.UserProfile {
	if s := sessionFrom(c); s != nil {
		return &s.Profile
	}
	return nil
}
