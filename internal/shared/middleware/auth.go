package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger"
	"github.com/radieske/esports-bet-ledger/internal/shared/respond"
)

const (
	claimUserID = "user_id"
	claimEmail  = "email"
)

type contextKey string

const actorKey contextKey = "actor"

// ProfileLookup resolve o flag is_admin a partir do perfil persistido
type ProfileLookup interface {
	Profile(ctx context.Context, userID string) (*ledger.Profile, error)
}

// Auth valida o bearer HS256 e injeta o ledger.Actor no contexto
type Auth struct {
	secret   []byte
	profiles ProfileLookup
	log      *zap.Logger
}

// NewAuth cria o autenticador; profiles nil desliga a consulta de is_admin
func NewAuth(secret []byte, profiles ProfileLookup, log *zap.Logger) *Auth {
	return &Auth{secret: secret, profiles: profiles, log: log}
}

func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := a.actorFromRequest(r)
		if err != nil {
			respond.Error(w, a.log, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func (a *Auth) actorFromRequest(r *http.Request) (ledger.Actor, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return ledger.Actor{}, fmt.Errorf("%w: missing bearer token", respond.ErrUnauthorized)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return ledger.Actor{}, fmt.Errorf("%w: %v", respond.ErrUnauthorized, err)
	}

	userID, _ := claims[claimUserID].(string)
	if userID == "" {
		return ledger.Actor{}, fmt.Errorf("%w: missing '%s' claim in token", respond.ErrUnauthorized, claimUserID)
	}
	email, _ := claims[claimEmail].(string)
	actor := ledger.Actor{UserID: userID, Email: email}

	if a.profiles == nil {
		return actor, nil
	}
	p, err := a.profiles.Profile(r.Context(), userID)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		// usuário ainda sem perfil: segue como não-admin
	case err != nil:
		return ledger.Actor{}, err
	default:
		actor.IsAdmin = p.IsAdmin
		if actor.Email == "" {
			actor.Email = p.Email
		}
	}
	return actor, nil
}

// RequireAdmin barra quem não tem profiles.is_admin
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			respond.Error(w, nil, respond.ErrUnauthorized)
			return
		}
		if !actor.IsAdmin {
			respond.Error(w, nil, fmt.Errorf("%w: admin only", ledger.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithActor(ctx context.Context, a ledger.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

func ActorFrom(ctx context.Context) (ledger.Actor, bool) {
	a, ok := ctx.Value(actorKey).(ledger.Actor)
	return a, ok
}

// IssueToken assina um token HS256 com user_id/email; usado pela CLI de dev e pelos testes
func IssueToken(secret []byte, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		claimUserID: userID,
		claimEmail:  email,
		"exp":       now.Add(ttl).Unix(),
		"iat":       now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}
