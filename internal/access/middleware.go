package access

import (
	projectdomain "zuzuplan-backend/internal/project/domain"
	"zuzuplan-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireProjectRole guards a route whose project id is in the named path
// parameter. The resolved role is stored under "projectRole" and attached to
// the request context for the usecases downstream.
func (e *Evaluator) RequireProjectRole(param string, min projectdomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		a, err := e.Require(ctx, c.Param(param), c.GetString("userID"), min)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set("projectRole", string(a.Role))
		c.Request = c.Request.WithContext(WithAccess(ctx, a))
		c.Next()
	}
}
