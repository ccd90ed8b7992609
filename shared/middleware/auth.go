package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/errors"
	jwt_internal "github.com/itchan-dev/forum/shared/jwt"
	"github.com/itchan-dev/forum/shared/logger"
	"github.com/itchan-dev/forum/shared/utils"
)

// ActorLoader resolves the acting user with the permissions of their groups.
type ActorLoader interface {
	GetActor(ctx context.Context, id domain.UserId) (*domain.User, error)
	GuestPermissions(ctx context.Context) (domain.Permissions, error)
}

// Key to store the actor in the request context
type key int

const UserClaimsKey key = 0

type Auth struct {
	jwtService    jwt_internal.JwtService
	actors        ActorLoader
	secureCookies bool
}

func NewAuth(jwtService jwt_internal.JwtService, actors ActorLoader, secureCookies bool) *Auth {
	return &Auth{
		jwtService:    jwtService,
		actors:        actors,
		secureCookies: secureCookies,
	}
}

// NeedAuth rejects guests.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth()
}

// OptionalAuth always puts an actor into the context. Requests without a
// usable token act as the guest.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.extractUser(r)
			if err != nil {
				if err != errNoToken {
					logger.Ctx(r.Context()).Debug("token ignored, acting as guest", "component", "auth", "error", err)
				}
				user, err = a.guest(r.Context())
				if err != nil {
					utils.WriteErrorAndStatusCode(w, err)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func (a *Auth) guest(ctx context.Context) (*domain.User, error) {
	permissions, err := a.actors.GuestPermissions(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Guest(permissions), nil
}

func tokenFromRequest(r *http.Request) string {
	// cookie for browser clients, Authorization header for the rest
	if cookie, err := r.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return token
	}
	return ""
}

func (a *Auth) extractUser(r *http.Request) (*domain.User, error) {
	tokenString := tokenFromRequest(r)
	if tokenString == "" {
		return nil, errNoToken
	}

	claims, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := a.actors.GetActor(r.Context(), claims.UserId)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errUnknownUser
		}
		return nil, err
	}
	return user, nil
}

var (
	errNoToken     = errorString("no token")
	errUnknownUser = errorString("unknown user")
)

type errorString string

func (e errorString) Error() string { return string(e) }

func (a *Auth) auth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.extractUser(r)
			if err != nil {
				switch err {
				case errNoToken:
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
				case errUnknownUser:
					// Clear JWT cookie to force re-login
					http.SetCookie(w, &http.Cookie{
						Path:     "/",
						Name:     "accessToken",
						Value:    "",
						MaxAge:   -1,
						HttpOnly: true,
						Secure:   a.secureCookies,
						SameSite: http.SameSiteLaxMode,
					})
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
				default:
					utils.WriteErrorAndStatusCode(w, err)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserClaimsKey, user)
}

// GetUserFromContext returns nil when no auth middleware ran.
func GetUserFromContext(r *http.Request) *domain.User {
	user, ok := r.Context().Value(UserClaimsKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}
