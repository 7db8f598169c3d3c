package middleware

import (
	"net/http"

	"github.com/shashiranjanraj/farmlink/pkg/apperr"
	"github.com/shashiranjanraj/farmlink/pkg/ctx"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

// Messages returned by the guards.
const (
	LoginRequiredMessage = "Please log in to access this page."
	ForbiddenMessage     = "You do not have permission to access this page."
)

// RequireLogin rejects requests without a logged-in session user with 401
// and a redirect to /login.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx.Wrap(func(c *ctx.Context) {
			if c.UserID() == 0 {
				c.Fail(apperr.Unauthenticated(LoginRequiredMessage))
				return
			}
			next.ServeHTTP(w, r)
		})(w, r)
	})
}

// RequireRole allows only users whose session role is one of roles.
// It implies RequireLogin.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx.Wrap(func(c *ctx.Context) {
				if !allowed[c.Role()] {
					logger.WithCtx(r.Context()).Warn("unauthorized access attempt",
						"user_id", c.UserID(), "role", c.Role(), "path", r.URL.Path)
					c.Fail(apperr.Forbidden(ForbiddenMessage))
					return
				}
				next.ServeHTTP(w, r)
			})(w, r)
		}))
	}
}

// Guest sends already-authenticated callers home without running next.
func Guest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx.Wrap(func(c *ctx.Context) {
			if c.UserID() != 0 {
				c.Respond(ctx.Result{Redirect: "/"})
				return
			}
			next.ServeHTTP(w, r)
		})(w, r)
	})
}
