package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/psuflow/psuflow-api/internal/middleware"
	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// actingUser reconciles the user id named in a payload with the bearer token.
// Without a token the payload is trusted; admins may act for anyone.
func actingUser(c *gin.Context, claimed int64) (int64, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return claimed, nil
	}
	if claimed == 0 {
		return claims.UserID, nil
	}
	if claimed != claims.UserID && claims.Role != models.RoleAdmin {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "acting user does not match token")
	}
	return claimed, nil
}

func int64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}
