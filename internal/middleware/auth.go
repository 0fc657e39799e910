package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/gatherly/pkg/auth"
)

const (
	UserIDKey = "userID"
	TokenKey  = "token"
)

// AuthMiddleware requires a valid, unrevoked bearer token.
func AuthMiddleware(jwtManager *auth.JWTManager, blacklist auth.Blacklist) gin.HandlerFunc {
	return authenticate(jwtManager, blacklist, false)
}

// WSAuthMiddleware also accepts the token as a ?token= query parameter,
// since browsers cannot set headers on websocket upgrades.
func WSAuthMiddleware(jwtManager *auth.JWTManager, blacklist auth.Blacklist) gin.HandlerFunc {
	return authenticate(jwtManager, blacklist, true)
}

func authenticate(jwtManager *auth.JWTManager, blacklist auth.Blacklist, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			t, err := auth.ExtractTokenFromHeader(c.Request)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
				return
			}
			token = t
		}

		revoked, err := blacklist.IsRevoked(c.Request.Context(), token)
		if err != nil || revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is blacklisted"})
			return
		}

		claims, err := jwtManager.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(TokenKey, token)
		c.Next()
	}
}
