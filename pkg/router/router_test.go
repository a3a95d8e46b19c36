package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockdesk/pkg/router"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func TestGroupsJoinPrefixesAndMiddleware(t *testing.T) {
	r := router.New()
	var order []string
	mw := func(name string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, req)
			})
		}
	}

	api := r.Group("/api/", mw("api"))
	api.Group("products", mw("products")).Get("/{id}/variants", "variants.index", ok, mw("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/7/variants", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"api", "products", "route"}, order)
}

func TestNamedURL(t *testing.T) {
	r := router.New()
	r.Post("/api/variants/{id}/stock", "stock.update", ok)

	u, err := r.URL("stock.update", map[string]string{"id": "9"})
	require.NoError(t, err)
	assert.Equal(t, "/api/variants/9/stock", u)

	_, err = r.URL("stock.update", nil)
	assert.Error(t, err)
	_, err = r.URL("nope", nil)
	assert.Error(t, err)
}

func TestRoutesAreSorted(t *testing.T) {
	r := router.New()
	r.Post("/b", "b.store", ok)
	r.Get("/b", "b.index", ok)
	r.HandleFunc("/a", ok)

	assert.Equal(t, []router.RouteInfo{
		{Method: "*", Path: "/a"},
		{Method: http.MethodGet, Path: "/b", Name: "b.index"},
		{Method: http.MethodPost, Path: "/b", Name: "b.store"},
	}, r.Routes())
}
