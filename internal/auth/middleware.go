package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"classlink/internal/account"
)

const sessionKey = "session"

// Sessions exposes the current session.
type Sessions interface {
	Current() (account.Session, bool)
}

// SessionAuth enforces bearer JWT tokens signed with HS256 whose subject is
// still the current session. A token stops working once its session is logged out.
func SessionAuth(signingKey, issuer string, sessions Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		sess, ok := sessions.Current()
		if !ok || sess.ID != claims.Subject || string(sess.Role) != claims.Role {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session ended"})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// RequireRole rejects sessions of other account kinds. It runs after SessionAuth.
func RequireRole(kind account.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok || sess.Role != kind {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": string(kind) + " access only"})
			return
		}
		c.Next()
	}
}

// SessionFrom returns the session stored by SessionAuth.
func SessionFrom(c *gin.Context) (account.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return account.Session{}, false
	}
	sess, ok := v.(account.Session)
	return sess, ok
}
