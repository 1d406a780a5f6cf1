package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"visitdesk/internal/common"
	"visitdesk/internal/services"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTConfig builds the echo-jwt configuration for the protected routes.
// When jwksURL is non-empty tokens are verified against the remote JWKS
// (external identity provider); otherwise the shared HMAC secret is used.
func JWTConfig(jwtSecret string, jwksURL string) echojwt.Config {
	cfg := echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(services.TokenClaims)
		},
		SuccessHandler: attachIdentity,
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}

	cfg.SigningKey = []byte(jwtSecret)
	if jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Printf("JWKS refresh failed: %v", err)
			},
		})
		if err != nil {
			log.Printf("WARN: JWKS fetch from %s failed, falling back to HMAC verification: %v", jwksURL, err)
		} else {
			cfg.KeyFunc = jwks.Keyfunc
			cfg.SigningKey = nil
		}
	}

	return cfg
}

// attachIdentity copies the validated claims into the request context so
// services receive the caller identity explicitly.
func attachIdentity(c echo.Context) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return
	}
	claims, ok := token.Claims.(*services.TokenClaims)
	if !ok {
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return
	}

	// Superadmin tokens carry no tenant; everyone else must.
	tenantID := uuid.Nil
	if claims.TenantID != "" {
		tenantID, err = uuid.Parse(claims.TenantID)
		if err != nil {
			return
		}
	}

	ctx := context.WithValue(c.Request().Context(), common.UserIDKey, userID)
	ctx = context.WithValue(ctx, common.TenantIDKey, tenantID)
	ctx = context.WithValue(ctx, common.RoleKey, claims.Role)
	c.SetRequest(c.Request().WithContext(ctx))
}
