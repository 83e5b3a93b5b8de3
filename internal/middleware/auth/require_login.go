package auth

import (
	"github.com/labstack/echo/v4"
)

func RequireLogin(jwtSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := ParseBearer(c, jwtSecret)
			if err != nil {
				return err
			}
			if err := setUserContext(c, claims); err != nil {
				return err
			}
			return next(c)
		}
	}
}
