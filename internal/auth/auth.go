// Package auth provides bearer-token authentication middleware for the
// serving API.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skyler-myers-db/data-api-serving/internal/config"
)

// Context keys for auth data
type contextKey string

const contextKeyAuth contextKey = "auth"

// Context represents the authenticated caller.
type Context struct {
	Subject  string   `json:"subject"`
	Issuer   string   `json:"issuer,omitempty"`
	Audience []string `json:"audience,omitempty"`
	Expires  int64    `json:"exp,omitempty"`
}

// FromContext extracts the caller identity from a request context.
func FromContext(ctx context.Context) *Context {
	if auth, ok := ctx.Value(contextKeyAuth).(*Context); ok {
		return auth
	}
	return &Context{Subject: "anonymous"}
}

// Middleware returns an HTTP middleware that validates Bearer credentials.
// Two modes, both optional: a static service token (SERVING_AUTH_TOKEN) and
// HS256 JWTs (SERVING_JWT_SECRET). With neither configured, requests pass
// through anonymously.
func Middleware(cfg *config.Config) func(http.Handler) http.Handler {
	enabled := cfg.AuthToken != "" || cfg.JWTSecret != ""

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				authCtx := &Context{Subject: "anonymous"}
				// Check for x-user-id header fallback
				if userID := r.Header.Get("X-User-Id"); userID != "" {
					authCtx.Subject = userID
				}
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyAuth, authCtx)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, `{"error": "invalid authorization header"}`, http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			authCtx, err := validate(tokenString, cfg)
			if err != nil {
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyAuth, authCtx)))
		})
	}
}

func validate(token string, cfg *config.Config) (*Context, error) {
	if cfg.AuthToken != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(cfg.AuthToken)) == 1 {
		return &Context{Subject: "service"}, nil
	}
	if cfg.JWTSecret != "" {
		return validateJWT(token, cfg)
	}
	return nil, fmt.Errorf("token mismatch")
}

func validateJWT(tokenString string, cfg *config.Config) (*Context, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	authCtx := &Context{
		Subject: getStringClaim(claims, "sub"),
		Issuer:  getStringClaim(claims, "iss"),
	}
	if aud, ok := claims["aud"].([]interface{}); ok {
		for _, a := range aud {
			if s, ok := a.(string); ok {
				authCtx.Audience = append(authCtx.Audience, s)
			}
		}
	} else if aud, ok := claims["aud"].(string); ok {
		authCtx.Audience = []string{aud}
	}
	if exp, ok := claims["exp"].(float64); ok {
		authCtx.Expires = int64(exp)
	}
	return authCtx, nil
}

func getStringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}
