package ctx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	appctx "github.com/shashiranjanraj/stockdesk/pkg/ctx"
	"github.com/shashiranjanraj/stockdesk/pkg/response"
)

func serve(h appctx.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	appctx.Wrap(h)(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSuccessEnvelope(t *testing.T) {
	rec := serve(func(c *appctx.Context) {
		c.Success(map[string]any{"id": 1})
	}, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"data":{"id":1}}`, rec.Body.String())
}

func TestParamInt(t *testing.T) {
	r := chi.NewRouter()
	var got int64
	r.Get("/products/{id}", appctx.Wrap(func(c *appctx.Context) {
		id, ok := c.ParamInt("id")
		if !ok {
			return
		}
		got = id
		c.Status(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/42", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(42), got)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id must be a positive integer", decode(t, rec).Message)
}

func TestBindJSONMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	rec := serve(func(c *appctx.Context) {
		var in struct {
			Name string `json:"name"`
		}
		assert.False(t, c.BindJSON(&in))
	}, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFailMapsErrorKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		errors bool
	}{
		{apperr.ValidationErr(map[string]string{"variants.0.sku": "SKU is required"}), http.StatusUnprocessableEntity, true},
		{apperr.UnauthorizedErr("session expired, sign in again"), http.StatusUnauthorized, false},
		{apperr.ConflictErr("busy"), http.StatusConflict, false},
		{apperr.RemoteGenericErr(assert.AnError), http.StatusBadGateway, false},
		{assert.AnError, http.StatusInternalServerError, false},
	}
	for _, tc := range cases {
		rec := serve(func(c *appctx.Context) {
			c.Fail(tc.err)
			assert.Equal(t, tc.status, c.WrittenStatus())
		}, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, tc.errors, decode(t, rec).Errors != nil, tc.err.Error())
	}
}
