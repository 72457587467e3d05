package middleware

import (
	"github.com/Mythsoul/Eshop/pkg/errs"
	"github.com/Mythsoul/Eshop/pkg/response"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// IsLoggedIn verifies the bearer token and stores it under "user" for utils.ExtractTokenUser.
func IsLoggedIn(secret string) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey: []byte(secret),
		ErrorHandlerWithContext: func(err error, c echo.Context) error {
			log.Ctx(c.Request().Context()).Warn().Err(err).Str("component", "IsLoggedIn").Msg("")
			return response.WriteErrorResponse(c, errs.ErrNotLoggedIn)
		},
	})
}
