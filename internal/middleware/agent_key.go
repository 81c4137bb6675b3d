package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-attempt/internal/response"
)

// HeaderAgentKey carries the shared secret between the exam view and the agent.
const HeaderAgentKey = "X-Agent-Key"

// RequireAgentKey rejects requests that do not present the agent key. The key
// may also come from ?key=..., since EventSource and WebSocket clients in the
// browser cannot set headers. An empty key disables the check.
func RequireAgentKey(key string) gin.HandlerFunc {
	want := []byte(key)
	return func(c *gin.Context) {
		if len(want) == 0 {
			c.Next()
			return
		}

		got := c.GetHeader(HeaderAgentKey)
		if got == "" {
			got = c.Query("key")
		}
		if got == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		c.Next()
	}
}
