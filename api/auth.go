package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pquerna/otp/totp"
	"github.com/tifye/crossroads/assert"
)

const defaultTokenTTL = time.Hour

// AuthConfig guards the control endpoints. Operators trade a TOTP
// passcode for a short lived bearer token.
type AuthConfig struct {
	OTPSecret  string
	SigningKey []byte
	TokenTTL   time.Duration
}

func (a AuthConfig) Enabled() bool {
	return a.OTPSecret != "" && len(a.SigningKey) > 0
}

func (a AuthConfig) ttl() time.Duration {
	if a.TokenTTL <= 0 {
		return defaultTokenTTL
	}
	return a.TokenTTL
}

func verifyToken(c echo.Context, signingKey []byte) error {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return jwt.ErrTokenMalformed
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	_, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return signingKey, nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err
}

func requireAuthMiddleware(logger *log.Logger, auth AuthConfig) echo.MiddlewareFunc {
	assert.Assert(auth.Enabled(), "auth middleware needs an otp secret and signing key")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := verifyToken(c, auth.SigningKey)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return c.String(http.StatusUnauthorized, "token expired")
				}

				if errors.Is(err, jwt.ErrTokenMalformed) {
					return c.String(http.StatusUnauthorized, "malformed token")
				}

				logger.Debug("token parse fail", "err", err)
				return c.NoContent(http.StatusUnauthorized)
			}

			return next(c)
		}
	}
}

func handlePostToken(logger *log.Logger, auth AuthConfig) echo.HandlerFunc {
	assert.Assert(auth.Enabled(), "token handler needs an otp secret and signing key")
	return func(c echo.Context) error {
		passcode := c.Request().Header.Get("Passcode")
		if passcode == "" {
			return c.NoContent(http.StatusBadRequest)
		}

		if !totp.Validate(passcode, auth.OTPSecret) {
			return c.NoContent(http.StatusUnauthorized)
		}

		now := time.Now()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(auth.ttl())),
			IssuedAt:  jwt.NewNumericDate(now),
		})
		signed, err := token.SignedString(auth.SigningKey)
		if err != nil {
			logger.Error("jwt sign", "err", err)
			return c.NoContent(http.StatusInternalServerError)
		}

		return c.String(http.StatusOK, signed)
	}
}
