package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"cybershield-quiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"

	issuer = "cybershield-quiz-service"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   string
}

// CanAuthor reports whether the caller may create and edit quizzes.
func (id Identity) CanAuthor() bool {
	return id.Role == RoleAdmin || id.Role == RoleModerator
}

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(Identity)
	return id, ok && id.UserID != ""
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens. Without a secret it runs behind a
// gateway and trusts the X-User-ID and X-User-Role headers instead.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (a *Authenticator) gatewayMode() bool {
	return len(a.secret) == 0
}

// IssueToken signs a token for userID with the given role.
func (a *Authenticator) IssueToken(userID, role string) (string, error) {
	if a.gatewayMode() {
		return "", errors.New("no jwt secret configured")
	}
	now := a.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates a token and returns the identity it carries.
func (a *Authenticator) Parse(raw string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return Identity{}, domain.ErrUnauthorized
	}
	role := claims.Role
	if role == "" {
		role = RoleUser
	}
	return Identity{UserID: claims.Subject, Role: role}, nil
}

func (a *Authenticator) identify(r *http.Request) (Identity, error) {
	if a.gatewayMode() {
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if userID == "" {
			return Identity{}, domain.ErrUnauthorized
		}
		role := strings.TrimSpace(r.Header.Get("X-User-Role"))
		if role == "" {
			role = RoleUser
		}
		return Identity{UserID: userID, Role: role}, nil
	}

	raw := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		raw = strings.TrimPrefix(h, "Bearer ")
	} else if r.URL.Path == "/ws" {
		// browsers cannot set headers on websocket upgrades
		raw = r.URL.Query().Get("token")
	}
	if raw == "" {
		return Identity{}, domain.ErrUnauthorized
	}
	return a.Parse(raw)
}

// Middleware rejects unauthenticated requests and stores the identity in the context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.identify(r)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAuthor allows only admins and moderators through.
func RequireAuthor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, domain.ErrUnauthorized)
			return
		}
		if !id.CanAuthor() {
			writeError(w, domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
