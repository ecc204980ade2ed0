package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookie = "cuyabot_session"
	SessionHeader = "X-Session-ID"

	maxSessionIDLen = 128
)

var errInvalidSessionID = errors.New("session id must be at most 128 characters")

// resolveSessionID picks the conversation id from the request body, the
// X-Session-ID header or the session cookie, in that order, and mints a new
// one when none is given. The id is echoed back as header and cookie.
func resolveSessionID(c *gin.Context, fromBody string) (string, error) {
	id := fromBody
	if id == "" {
		id = c.GetHeader(SessionHeader)
	}
	if id == "" {
		if cookie, err := c.Cookie(SessionCookie); err == nil {
			id = cookie
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	if len(id) > maxSessionIDLen {
		return "", errInvalidSessionID
	}

	c.Header(SessionHeader, id)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, 0, "/", "", false, true)
	return id, nil
}
