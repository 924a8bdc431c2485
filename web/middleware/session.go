package middleware

import (
	"net/http"
	"strings"

	"geoscan/quota"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const SessionCookieName = "geoscan_session"
const CookieMaxAge = 30 * 24 * 60 * 60 // 30 days

// SessionMiddleware ensures every caller carries a session token cookie. The
// token tags anonymous scans so a later login can claim them; it is issued
// before any work happens and survives across requests.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookieName)
		var token string

		if err == http.ErrNoCookie {
			token = uuid.NewString()
			c.SetCookie(SessionCookieName, token, CookieMaxAge, "/", "", false, true)
		} else if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse session cookie"})
			return
		} else {
			parsed, err := uuid.Parse(cookie)
			if err != nil {
				// Malformed cookie, reissue rather than reject
				parsed = uuid.New()
				c.SetCookie(SessionCookieName, parsed.String(), CookieMaxAge, "/", "", false, true)
			}
			token = parsed.String()
		}

		c.Set("sessionToken", token)
		c.Next()
	}
}

// SessionToken returns the session token the middleware attached.
func SessionToken(c *gin.Context) string {
	token, _ := c.MustGet("sessionToken").(string)
	return token
}

// ResolveIdentity maps the request to a quota identity. A bearer token, when
// present, is the account id (validated by the auth layer in front of this
// service); without one the caller is anonymous and keyed by client IP.
func ResolveIdentity(c *gin.Context) quota.Identity {
	identity := quota.Identity{IP: c.ClientIP()}

	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		identity.AccountID = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return identity
}
