package gateway

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mattressworks/stockboard/pkg/config"
	"github.com/mattressworks/stockboard/pkg/errors"
	pkghttp "github.com/mattressworks/stockboard/pkg/httputil"
	"github.com/mattressworks/stockboard/pkg/logger"
)

// Roles issued by the stock API
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

// Auth validates tokens issued by the stock API
type Auth struct {
	secret []byte
	parser *jwt.Parser
	log    *logger.Logger
}

// NewAuth creates an authenticator sharing the stock API's signing secret
func NewAuth(cfg *config.JWTConfig, log *logger.Logger) *Auth {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Auth{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
		log:    log.WithComponent("auth"),
	}
}

// Middleware validates the bearer token and adds the user to the request context
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkghttp.Error(w, errors.Unauthorized("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			pkghttp.Error(w, errors.Unauthorized("invalid authorization header format"))
			return
		}
		tokenString := parts[1]

		claims := jwt.MapClaims{}
		token, err := a.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return a.secret, nil
		})
		if err != nil {
			a.log.Debug().Err(err).Msg("token validation failed")
			if stderrors.Is(err, jwt.ErrTokenExpired) {
				pkghttp.Error(w, errors.TokenExpired())
			} else {
				pkghttp.Error(w, errors.TokenInvalid())
			}
			return
		}
		if !token.Valid {
			pkghttp.Error(w, errors.TokenInvalid())
			return
		}

		userID, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)
		if userID == "" {
			pkghttp.Error(w, errors.TokenInvalid())
			return
		}

		ctx := pkghttp.WithUserContext(r.Context(), userID, email, role)
		ctx = pkghttp.WithBearerToken(ctx, tokenString)

		r.Header.Set("X-User-ID", userID)
		r.Header.Set("X-User-Email", email)
		r.Header.Set("X-User-Role", role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects users whose role is not one of roles
func (a *Auth) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := pkghttp.GetUserRole(r.Context())
			if !allowed[role] {
				a.log.Debug().
					Str("user_id", pkghttp.GetUserID(r.Context())).
					Str("role", role).
					Str("path", r.URL.Path).
					Msg("role not permitted")
				pkghttp.Error(w, errors.Forbidden("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
