package echoapi

import (
	"github.com/labstack/echo/v4"
)

func principalMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		if claims.IsPrincipal() {
			return next(ctx)
		}
		return errHttpForbidden
	}
}
