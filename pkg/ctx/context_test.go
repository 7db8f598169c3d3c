package ctx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/farmlink/pkg/apperr"
	"github.com/shashiranjanraj/farmlink/pkg/cache"
	appctx "github.com/shashiranjanraj/farmlink/pkg/ctx"
	"github.com/shashiranjanraj/farmlink/pkg/response"
	"github.com/shashiranjanraj/farmlink/pkg/session"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func serve(h appctx.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	appctx.Wrap(h)(rec, req)
	return rec
}

func TestRespondDefaultsToOK(t *testing.T) {
	rec := serve(func(c *appctx.Context) {
		c.Respond(appctx.Result{Data: map[string]int{"id": 1}})
	}, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, 200, env.Status)
	assert.Equal(t, map[string]any{"id": 1.0}, env.Data)
}

func TestFailMapsKinds(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		message  string
		redirect string
	}{
		{apperr.Field("price", "The price must be at least 0."), 422, "Validation failed", ""},
		{apperr.Forbidden("nope").WithRedirect("/farmer/dashboard"), 403, "nope", "/farmer/dashboard"},
		{apperr.Unauthenticated("Please log in to access this page."), 401, "Please log in to access this page.", "/login"},
		{apperr.NotFound("Product not found."), 404, "Product not found.", ""},
		{apperr.Persistence("insert product", errors.New("disk full")), 500, apperr.GenericMessage, ""},
		{errors.New("raw driver error"), 500, apperr.GenericMessage, ""},
		{apperr.Unavailable("image pool saturated", nil), 503, apperr.GenericMessage, ""},
	}
	for _, tc := range cases {
		rec := serve(func(c *appctx.Context) { c.Fail(tc.err) }, httptest.NewRequest(http.MethodGet, "/", nil))
		env := decode(t, rec)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, tc.message, env.Message)
		assert.Equal(t, tc.redirect, env.Redirect)
		assert.NotContains(t, rec.Body.String(), "disk full")
	}
}

func TestRedirectMessageIsFlashedForNextResponse(t *testing.T) {
	mgr := session.NewManager(cache.NewMemory(), session.DefaultOptions())
	first := mgr.Middleware(appctx.Wrap(func(c *appctx.Context) {
		c.Respond(appctx.Result{Message: "You have been logged in!", Redirect: "/farmer/dashboard"})
	}))
	next := mgr.Middleware(appctx.Wrap(func(c *appctx.Context) {
		c.Respond(appctx.Result{})
	}))

	rec := httptest.NewRecorder()
	first.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	env := decode(t, rec)
	assert.Equal(t, "You have been logged in!", env.Message)
	assert.Empty(t, env.Flashes)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/farmer/dashboard", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	next.ServeHTTP(rec, req)
	env = decode(t, rec)
	assert.Equal(t, []response.Flash{{Category: "success", Message: "You have been logged in!"}}, env.Flashes)

	// Popped: a third request sees nothing.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	next.ServeHTTP(rec, req)
	assert.Empty(t, decode(t, rec).Flashes)
}

func TestBindReportsValidation(t *testing.T) {
	type input struct {
		Name string `json:"name" validate:"required"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(func(c *appctx.Context) {
		var in input
		err := c.Bind(&in)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		c.Fail(err)
	}, req)

	env := decode(t, rec)
	assert.Contains(t, env.Errors, "name")
}

func TestBindEmptyBodyValidatesBlankForm(t *testing.T) {
	type input struct {
		Page int `json:"page"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	serve(func(c *appctx.Context) {
		var in input
		assert.NoError(t, c.Bind(&in))
		c.Respond(appctx.Result{})
	}, req)
}

func TestParamAndQueryHelpers(t *testing.T) {
	r := chi.NewRouter()
	var id uint
	var page, bad int
	r.Get("/product/{id}", appctx.Wrap(func(c *appctx.Context) {
		id = c.ParamUint("id")
		page = c.QueryInt("page", 1)
		bad = c.QueryInt("other", 1)
		c.Respond(appctx.Result{})
	}))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/product/7?page=3&other=-2", nil))

	assert.Equal(t, uint(7), id)
	assert.Equal(t, 3, page)
	assert.Equal(t, 1, bad)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	serve(func(c *appctx.Context) {
		assert.Equal(t, "10.0.0.1", c.ClientIP())
		c.Respond(appctx.Result{})
	}, req)
}
