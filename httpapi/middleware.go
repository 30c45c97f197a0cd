package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"worksflow/logger"
)

const ctxOperatorID = "operatorID"

// RequireAuth verifies an HS256 bearer token on the manual agreement API and
// stashes the subject claim as the operator id for audit provenance. The wider
// authentication layer (issuing tokens, users, roles) lives outside this service.
func RequireAuth(secret string, log *logger.Logger) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			RespondError(c, http.StatusUnauthorized, "missing_bearer_token", nil)
			return
		}

		token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			log.Warn("rejected manual api token", "error", err)
			RespondError(c, http.StatusUnauthorized, "invalid_token", nil)
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sub, ok := claims["sub"].(string); ok {
				c.Set(ctxOperatorID, sub)
			}
		}
		c.Next()
	}
}

func operatorID(c *gin.Context) string {
	if v, ok := c.Get(ctxOperatorID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
