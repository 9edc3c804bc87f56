package delivery

import (
	"net/http"
	"strings"

	"zuzuplan-backend/internal/auth/usecase"
	"zuzuplan-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware authenticates the bearer access token and stores the
// caller under "userID" and "user". EventSource clients cannot send headers,
// so an access_token query parameter is accepted when the header is absent.
func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("access_token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Abort(c, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}
			token = parts[1]
		}
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		user, err := authUsecase.ValidateToken(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
