package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/auth"
)

// TokenValidator turns a bearer token into a principal
type TokenValidator interface {
	ValidateToken(token string) (*auth.Principal, error)
}

// Authenticator guards httprouter handlers with bearer tokens
type Authenticator struct {
	tokens TokenValidator
	logger *zap.Logger
}

// NewAuthenticator creates an authenticator
func NewAuthenticator(tokens TokenValidator, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, logger: logger}
}

// RequireUser rejects requests without a valid Authorization: Bearer token
func (a *Authenticator) RequireUser(next httprouter.Handle) httprouter.Handle {
	return a.require(next, false)
}

// RequireRole is RequireUser plus a role check
func (a *Authenticator) RequireRole(next httprouter.Handle, roles ...auth.Role) httprouter.Handle {
	return a.RequireUser(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		p, _ := auth.PrincipalFrom(r.Context())
		if !p.HasRole(roles...) {
			writeAuthError(w, http.StatusForbidden, "insufficient role")
			return
		}
		next(w, r, ps)
	})
}

// RequireUserOrQueryToken also accepts ?token=, for websocket clients that cannot set headers
func (a *Authenticator) RequireUserOrQueryToken(next httprouter.Handle) httprouter.Handle {
	return a.require(next, true)
}

func (a *Authenticator) require(next httprouter.Handle, allowQuery bool) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := bearerToken(r)
		if token == "" && allowQuery {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		principal, err := a.tokens.ValidateToken(token)
		if err != nil {
			a.logger.Debug("Rejected token",
				zap.String("path", r.URL.Path),
				zap.String("request_id", auth.GetRequestID(r.Context())),
				zap.Error(err),
			)
			writeAuthError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)), ps)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RequestID propagates X-Request-ID, generating one when absent
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(auth.WithRequestID(r.Context(), id)))
	})
}
