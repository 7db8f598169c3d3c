// Package ctx is the presentation boundary for farmlink handlers.
//
// A handler receives a *Context, calls a service and hands the outcome to
// exactly one of Respond (success) or Fail (typed error):
//
//	func (c *ProductController) Show(x *ctx.Context) {
//	    p, err := c.products.Get(x.Context(), x.ParamUint("id"))
//	    if err != nil {
//	        x.Fail(err)
//	        return
//	    }
//	    x.Respond(ctx.Result{Data: p})
//	}
//
//	router.Get("/product/{id}", "product.show", ctx.Wrap(c.Show))
package ctx

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/farmlink/pkg/apperr"
	"github.com/shashiranjanraj/farmlink/pkg/bind"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
	"github.com/shashiranjanraj/farmlink/pkg/response"
	"github.com/shashiranjanraj/farmlink/pkg/session"
	"github.com/shashiranjanraj/farmlink/pkg/validate"
)

// Session keys shared by handlers and guards.
const (
	KeyUserID = "user_id"
	KeyRole   = "role"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Result is a successful outcome.
type Result struct {
	// Status defaults to 200.
	Status int
	// Message is returned and, when Redirect is set, also flashed so the
	// redirect target shows it.
	Message string
	// Category is the flash category; "success" when empty.
	Category string
	Data     any
	Redirect string
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// Context returns the request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Param returns a URL path parameter.
func (c *Context) Param(key string) string { return chi.URLParam(c.R, key) }

// ParamUint parses a numeric path parameter; 0 when absent or malformed.
func (c *Context) ParamUint(key string) uint {
	n, err := strconv.ParseUint(c.Param(key), 10, 0)
	if err != nil {
		return 0
	}
	return uint(n)
}

// Query returns a query-string value.
func (c *Context) Query(key string) string { return c.R.URL.Query().Get(key) }

// QueryInt returns a positive integer query value or def.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// ClientIP returns the caller address, honouring X-Forwarded-For.
func (c *Context) ClientIP() string {
	if fwd := c.R.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	ip := c.R.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Session returns the request session, or nil without the session middleware.
func (c *Context) Session() *session.Session { return session.FromCtx(c.R.Context()) }

// UserID returns the logged-in user id, or 0.
func (c *Context) UserID() uint {
	if s := c.Session(); s != nil {
		return s.GetUint(KeyUserID)
	}
	return 0
}

// Role returns the logged-in user's role, or "".
func (c *Context) Role() string {
	if s := c.Session(); s != nil {
		return s.GetString(KeyRole)
	}
	return ""
}

// Bind decodes and validates the body into dest. The returned error is an
// *apperr.Error of kind validation, ready for Fail.
func (c *Context) Bind(dest any) error {
	errs, err := bind.Request(c.W, c.R, dest)
	if err != nil {
		if errors.Is(err, bind.ErrEmptyBody) {
			// An empty body is validated like a form with every field blank.
			errs = validate.Struct(dest)
			if !validate.HasErrors(errs) {
				return nil
			}
			return apperr.Validation(errs)
		}
		return apperr.Field("body", err.Error())
	}
	if validate.HasErrors(errs) {
		return apperr.Validation(errs)
	}
	return nil
}

// FormFile returns the named multipart file, or nil when the request has
// none. Call it after Bind.
func (c *Context) FormFile(name string) (multipart.File, *multipart.FileHeader) {
	if c.R.MultipartForm == nil {
		return nil, nil
	}
	f, h, err := c.R.FormFile(name)
	if err != nil {
		return nil, nil
	}
	return f, h
}

// Respond writes a successful result.
func (c *Context) Respond(res Result) {
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	category := res.Category
	if category == "" {
		category = "success"
	}

	c.write(response.Envelope{
		Status:   status,
		Message:  res.Message,
		Data:     res.Data,
		Redirect: res.Redirect,
	}, category, res.Message != "" && res.Redirect != "")
}

// Fail maps err to a response. Persistence failures are logged in full
// and shown with the generic message; every other kind is logged at warn.
func (c *Context) Fail(err error) {
	e := apperr.As(err)
	log := logger.WithCtx(c.Context())

	message := e.Message
	switch e.Kind {
	case apperr.KindPersistence, apperr.KindUnavailable:
		log.Error("request failed", "kind", e.Kind, "op", e.Message, "error", e.Err, "path", c.R.URL.Path)
		message = apperr.GenericMessage
	default:
		log.Warn("request rejected", "kind", e.Kind, "message", e.Message, "path", c.R.URL.Path)
	}

	c.write(response.Envelope{
		Status:   e.Status(),
		Message:  message,
		Errors:   e.Fields,
		Redirect: e.Redirect,
	}, "danger", e.Redirect != "" && e.Kind != apperr.KindValidation)
}

// JSON writes v without the envelope (GraphQL answers).
func (c *Context) JSON(code int, v any) {
	c.status = code
	c.saveSession()
	response.JSON(c.W, code, v)
}

// WrittenStatus returns the status written, or 0.
func (c *Context) WrittenStatus() int { return c.status }

func (c *Context) write(env response.Envelope, category string, flash bool) {
	if s := c.Session(); s != nil {
		// Pending flashes belong to this response; the new one to the next.
		for _, f := range s.Flashes() {
			env.Flashes = append(env.Flashes, response.Flash{Category: f.Category, Message: f.Message})
		}
		if flash {
			s.Flash(category, env.Message)
		}
	}
	c.saveSession()
	c.status = env.Status
	response.Write(c.W, env)
}

func (c *Context) saveSession() {
	s := c.Session()
	if s == nil {
		return
	}
	if err := s.Save(c.Context(), c.W); err != nil {
		logger.WithCtx(c.Context()).Error("session: save failed", "error", err)
	}
}
