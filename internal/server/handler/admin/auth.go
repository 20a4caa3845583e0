package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const staffEmailKey = "staffEmail"

// StaffEmail returns the authenticated staff identity set by
// RequireStaff, or an empty string on unauthenticated routes.
func StaffEmail(c *gin.Context) string {
	email, _ := c.Value(staffEmailKey).(string)
	return email
}

// RequireStaff verifies the Authorization bearer token (HS256) and, when
// an allowlist is configured, checks the email claim against it. The
// verified email is attached to the request for downstream handlers.
func RequireStaff(secret string, allowedEmails []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedEmails))
	for _, e := range allowedEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowed[e] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Missing Authorization token"})
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Invalid token"})
			return
		}

		email, _ := claims["email"].(string)
		email = strings.ToLower(email)
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Invalid token"})
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[email]; !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "Not authorized"})
				return
			}
		}

		c.Set(staffEmailKey, email)
		c.Next()
	}
}
