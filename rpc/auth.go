package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// CallerHeader names the caller when bearer authentication is disabled.
const CallerHeader = "X-Caller"

type AuthConfig struct {
	Enabled    bool
	HMACSecret string
	Issuer     string
	Audience   string
	ClockSkew  time.Duration
}

type contextKey string

const contextKeyCaller contextKey = "rpc.caller"

var (
	errMissingToken = errors.New("missing bearer token")
	errNoSubject    = errors.New("token has no subject")
)

// Authenticator resolves the account behind a request. With auth enabled
// the account is the `sub` claim of an HMAC signed JWT.
type Authenticator struct {
	cfg    AuthConfig
	logger *slog.Logger
	secret []byte
}

func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &Authenticator{cfg: cfg, logger: logger, secret: []byte(strings.TrimSpace(cfg.HMACSecret))}
}

// Middleware attaches the caller to the request context. Requests without
// credentials continue anonymously; methods that need a caller reject them.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := a.resolve(r)
		if err != nil {
			if errors.Is(err, errMissingToken) {
				next.ServeHTTP(w, r)
				return
			}
			a.logger.Warn("rpc auth rejected", slog.String("reason", err.Error()))
			writeError(w, http.StatusUnauthorized, nil, codeUnauthorized, "invalid token", nil)
			return
		}
		if caller != "" {
			r = r.WithContext(context.WithValue(r.Context(), contextKeyCaller, caller))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) resolve(r *http.Request) (string, error) {
	if !a.cfg.Enabled {
		return strings.TrimSpace(r.Header.Get(CallerHeader)), nil
	}
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return "", errMissingToken
	}
	claims, err := a.parseToken(tokenString)
	if err != nil {
		return "", err
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errNoSubject
	}
	return subject, nil
}

func (a *Authenticator) parseToken(tokenString string) (jwt.MapClaims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("auth secret not configured")
	}
	opts := []jwt.ParserOption{
		jwt.WithLeeway(a.cfg.ClockSkew),
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims not map")
	}
	return claims, nil
}

// CallerFromContext returns the authenticated caller, if any.
func CallerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(contextKeyCaller).(string)
	return caller
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// SignToken issues an HS256 token for subject. Operators use it through the
// CLI to mint credentials for the daemon.
func SignToken(secret, subject, issuer, audience string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("secret required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		Issuer:   issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(strings.TrimSpace(secret)))
}
