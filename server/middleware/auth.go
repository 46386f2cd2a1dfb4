package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/podscribe/auth"
	"github.com/kbukum/podscribe/errors"
)

// TokenParser verifies a bearer token. *auth.Service implements it.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// AuthConfig configures bearer authentication.
type AuthConfig struct {
	Parser TokenParser
	// SkipPaths are exact paths that bypass authentication.
	SkipPaths []string
}

// Auth requires a valid bearer token on every request except SkipPaths and
// stores the claims in the request context. EventSource clients cannot set
// headers, so an "access_token" query parameter is accepted as well.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("access_token")
		}
		if token == "" {
			abort(c, errors.Unauthorized("Authorization header required"))
			return
		}

		claims, err := cfg.Parser.Parse(token)
		if err != nil {
			if auth.IsExpired(err) {
				abort(c, errors.TokenExpired())
			} else {
				abort(c, errors.InvalidToken())
			}
			return
		}

		c.Set("subject", claims.Subject)
		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// RequireWrite rejects tokens whose scope does not allow writes. It must run
// after Auth; requests without claims pass when auth is disabled.
func RequireWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := auth.ClaimsFromContext(c.Request.Context()); ok && !claims.CanWrite() {
			abort(c, errors.Forbidden("This token may not start transcriptions."))
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func abort(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
