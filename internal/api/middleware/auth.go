package middleware

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/chapterzero/bookstore/internal/core/domain"
	"github.com/chapterzero/bookstore/internal/core/ports"
)

// PrincipalKey is the echo.Context key holding the verified *domain.Principal.
const PrincipalKey = "principal"

// Auth validates the bearer token with verifier and stores the resulting
// principal under PrincipalKey.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  PrincipalKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(_ echo.Context, auth string) (interface{}, error) {
			p, err := verifier.Verify(auth)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		},
	})
}

// PrincipalFrom returns the principal stored by Auth.
func PrincipalFrom(c echo.Context) (*domain.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(*domain.Principal)
	return p, ok && p != nil
}
