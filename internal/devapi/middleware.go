package devapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/healthmall/client-core/internal/core/domain"
	"github.com/healthmall/client-core/pkg/envelope"
)

const tokenTTL = 24 * time.Hour

// requireAuth validates the bearer token and injects the actor identity into
// the echo context. Failures answer with the platform envelope so the client
// under test exercises its real UNAUTHENTICATED path.
func requireAuth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return fail(c, http.StatusUnauthorized, domain.CodeUnauthenticated, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return fail(c, http.StatusUnauthorized, domain.CodeUnauthenticated, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return fail(c, http.StatusUnauthorized, domain.CodeUnauthenticated, "invalid token")
			}

			username, _ := claims["username"].(string)
			actor, _ := claims["actorType"].(string)
			c.Set("username", username)
			c.Set("actorType", domain.ActorType(actor))

			return next(c)
		}
	}
}

func issueToken(secret, username string, actor domain.ActorType) (string, error) {
	claims := jwt.MapClaims{
		"username":  username,
		"actorType": string(actor),
		"exp":       time.Now().Add(tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

func reqID(c echo.Context) string {
	if id := c.Request().Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope.Success(data, reqID(c)))
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, envelope.Failure(code, message, reqID(c)))
}
