package middleware

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	AuthModeNone = "none"
	AuthModeHMAC = "hmac"
	AuthModeJWKS = "jwks"
)

type AuthConfig struct {
	Mode string

	// Secret verifies HS256 tokens in hmac mode.
	Secret []byte

	// JWKSClient resolves RS256 keys in jwks mode.
	JWKSClient *JWKSClient

	// Issuer and Audience are checked when non-empty.
	Issuer   string
	Audience string
}

// Auth verifies bearer tokens on /api/ routes.
type Auth struct {
	cfg     AuthConfig
	methods []string
	keyFunc func(r *http.Request) jwt.Keyfunc
}

func NewAuth(cfg AuthConfig) (*Auth, error) {
	a := &Auth{cfg: cfg}

	switch cfg.Mode {
	case "", AuthModeNone:
		a.cfg.Mode = AuthModeNone
	case AuthModeHMAC:
		if len(cfg.Secret) == 0 {
			return nil, fmt.Errorf("middleware: Secret is required in %s mode", AuthModeHMAC)
		}
		a.methods = []string{jwt.SigningMethodHS256.Alg()}
		a.keyFunc = func(*http.Request) jwt.Keyfunc {
			return func(*jwt.Token) (any, error) { return cfg.Secret, nil }
		}
	case AuthModeJWKS:
		if cfg.JWKSClient == nil {
			return nil, fmt.Errorf("middleware: JWKSClient is required in %s mode", AuthModeJWKS)
		}
		a.methods = []string{jwt.SigningMethodRS256.Alg()}
		a.keyFunc = func(r *http.Request) jwt.Keyfunc {
			return func(token *jwt.Token) (any, error) {
				kid, ok := token.Header["kid"].(string)
				if !ok {
					return nil, fmt.Errorf("kid header not found")
				}
				return cfg.JWKSClient.GetKey(r.Context(), kid)
			}
		}
	default:
		return nil, fmt.Errorf("middleware: unknown auth mode %q", cfg.Mode)
	}

	return a, nil
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Mode == AuthModeNone || !strings.HasPrefix(path.Clean(r.URL.Path), "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		a.handleJWT(w, r, next)
	})
}

func (a *Auth) handleJWT(w http.ResponseWriter, r *http.Request, next http.Handler) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		_ = writeError(w, http.StatusUnauthorized, "authorization header required")
		return
	}

	tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		_ = writeError(w, http.StatusUnauthorized, "invalid authorization header format")
		return
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(a.methods)}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}

	token, err := jwt.Parse(tokenStr, a.keyFunc(r), opts...)
	if err != nil || !token.Valid {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("token rejected")
		_ = writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		_ = writeError(w, http.StatusUnauthorized, "sub claim not found")
		return
	}

	zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("sub", sub)
	})

	next.ServeHTTP(w, r.WithContext(SetSubject(r.Context(), sub)))
}
