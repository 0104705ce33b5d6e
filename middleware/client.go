package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tourismhub/api/utils"
)

const (
	ClientCookieName = "tourismhub_client"
	ClientHeaderName = "X-Client-ID"

	ctxClientID = "client_id"

	clientCookieMaxAge = 365 * 24 * time.Hour
)

// ClientIdentity pins every request to a browser client id. The id is read
// from the cookie, then the X-Client-ID header, and issued when neither is valid.
// The cookie is refreshed on every response.
func ClientIdentity(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, err := c.Cookie(ClientCookieName)
		if err != nil || !utils.IsValidClientID(clientID) {
			clientID = c.GetHeader(ClientHeaderName)
		}
		if !utils.IsValidClientID(clientID) {
			clientID = utils.GenerateClientID()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(ClientCookieName, clientID, int(clientCookieMaxAge/time.Second), "/", "", secure, true)
		c.Set(ctxClientID, clientID)
		c.Next()
	}
}

// ClientIDFromContext returns the id set by ClientIdentity.
func ClientIDFromContext(c *gin.Context) string {
	return c.GetString(ctxClientID)
}
