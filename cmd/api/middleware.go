package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"foodspot/internal/auth"
	"foodspot/internal/domain/accesscontrol"
)

type identityKey string

const identityCtx identityKey = "identity"

func getIdentityFromContext(r *http.Request) *auth.Identity {
	identity, _ := r.Context().Value(identityCtx).(*auth.Identity)
	return identity
}

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// read the auth header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			// parse it -> get the base64
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			username := app.config.auth.basic.user
			pass := app.config.auth.basic.pass

			creds := strings.SplitN(string(decoded), ":", 2)
			if username == "" || len(creds) != 2 || creds[0] != username || creds[1] != pass {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken reads the access token from the Authorization header. Browsers
// cannot set headers on websocket upgrades, so /ws may pass ?token= instead.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if websocketUpgrade(r) {
			if token := r.URL.Query().Get("token"); token != "" {
				return token, nil
			}
		}
		return "", errors.New("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("authorization header is malformed")
	}
	return parts[1], nil
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func (app *application) AuthTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		identity, err := app.authenticator.ValidateAccessToken(token)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityCtx, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *application) requireRoles(roles ...accesscontrol.RoleName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := getIdentityFromContext(r)
			if identity == nil {
				app.unauthorizedErrorResponse(w, r, errors.New("missing identity"))
				return
			}

			allowed, err := app.store.AccessControl.UserHasAnyRole(r.Context(), identity.UserID, roles...)
			if err != nil {
				app.internalServerError(w, r, err)
				return
			}
			if !allowed {
				app.forbiddenResponse(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireModerator admits moderators and admins.
func (app *application) RequireModerator(next http.Handler) http.Handler {
	return app.requireRoles(accesscontrol.ModerationRoles...)(next)
}

func (app *application) RequireAdmin(next http.Handler) http.Handler {
	return app.requireRoles(accesscontrol.RoleAdmin)(next)
}

// isModerator is for handlers that allow either the owner or a moderator.
func (app *application) isModerator(r *http.Request, identity *auth.Identity) (bool, error) {
	return app.store.AccessControl.UserHasAnyRole(r.Context(), identity.UserID, accesscontrol.ModerationRoles...)
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled && app.rateLimiter != nil {
			if allow, retryAfter := app.rateLimiter.Allow(clientIP(r)); !allow {
				app.rateLimitExceededResponse(w, r, retryAfter)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port so all connections from one host share a window.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
