package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/farmlink/pkg/router"
)

func ok(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(body)) }
}

func tag(v string) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", v)
			next.ServeHTTP(w, r)
		})
	}
}

func TestNamedRoutesAndURL(t *testing.T) {
	r := router.New()
	r.Get("/product/{id}", "products.show", ok("show"))

	path, found := r.Path("products.show")
	require.True(t, found)
	assert.Equal(t, "/product/{id}", path)

	url, err := r.URL("products.show", map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/product/7", url)

	_, err = r.URL("products.show", nil)
	assert.Error(t, err)
	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestGroupPrefixAndMiddlewareOrder(t *testing.T) {
	r := router.New()
	farmer := r.Group("/farmer/", tag("outer"))
	farmer.Group("orders", tag("inner")).Post("/{id}/status", "farmer.orders.status", ok("advanced"), tag("route"))

	req := httptest.NewRequest(http.MethodPost, "/farmer/orders/3/status", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "advanced", rec.Body.String())
	assert.Equal(t, []string{"outer", "inner", "route"}, rec.Header().Values("X-Chain"))
}

func TestMatchAndRoutes(t *testing.T) {
	r := router.New()
	r.Match([]string{http.MethodGet, http.MethodPost}, "/login", "auth.login", ok("login"))
	r.Delete("/cart/items/{id}", "cart.remove", ok("removed"))
	r.Mount("/media", http.NotFoundHandler())

	routes := r.Routes()
	require.Len(t, routes, 4)
	assert.Equal(t, router.Route{Method: "DELETE", Path: "/cart/items/{id}", Name: "cart.remove"}, routes[0])
	assert.Equal(t, "GET", routes[1].Method)
	assert.Equal(t, "POST", routes[2].Method)
	assert.Equal(t, "/media/*", routes[3].Path)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, "login", rec.Body.String())
}
