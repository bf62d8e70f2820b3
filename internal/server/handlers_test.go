package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateconpizza/marklet/internal/bookmarklet"
	"github.com/mateconpizza/marklet/internal/packager"
	"github.com/mateconpizza/marklet/internal/service"
)

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequestWithContext(t.Context(), method, path, http.NoBody)
	} else {
		r = httptest.NewRequestWithContext(t.Context(), method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}

	for i := 0; i+1 < len(header); i += 2 {
		r.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())

	return m
}

type listResponse struct {
	Items []struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		MatchJS  string `json:"match_js"`
		CodeJS   string `json:"code_js"`
		Position int    `json:"position"`
	} `json:"items"`
}

func list(t *testing.T, h http.Handler) listResponse {
	t.Helper()

	w := do(t, h, http.MethodGet, "/api/bookmarklets", "")
	require.Equal(t, http.StatusOK, w.Code)

	var lr listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lr))

	return lr
}

func TestHealth(t *testing.T) {
	t.Parallel()

	w := do(t, New(&mockService{}).Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestListItems(t *testing.T) {
	t.Parallel()

	h := New(setupService(t)).Handler()
	lr := list(t, h)
	require.Len(t, lr.Items, 3)
	assert.Equal(t, "Sample: Alert", lr.Items[0].Title)
	assert.Equal(t, "function (url) { return true; }", lr.Items[0].MatchJS)
	assert.Equal(t, 2, lr.Items[2].Position)

	w := do(t, h, http.MethodGet, "/api/bookmarklets", "")
	assert.NotContains(t, w.Body.String(), "created_at")
}

func TestCreateItem(t *testing.T) {
	t.Parallel()

	h := New(setupService(t)).Handler()

	w := do(t, h, http.MethodPost, "/api/bookmarklets",
		`{"title":"  New  ","match_js":"function (u) { return true; }","code_js":"function () {}"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"]
	assert.EqualValues(t, 4, id)

	lr := list(t, h)
	require.Len(t, lr.Items, 4)
	last := lr.Items[3]
	assert.Equal(t, "New", last.Title)
	assert.Equal(t, 3, last.Position)
}

func TestCreateItemBadRequest(t *testing.T) {
	t.Parallel()

	h := New(setupService(t)).Handler()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing fields", body: `{"title":"x"}`, want: "title, match_js, code_js are required"},
		{name: "blank fields", body: `{"title":" ","match_js":"m","code_js":"c"}`, want: "title, match_js, code_js are required"},
		{name: "null body", body: `null`, want: "title, match_js, code_js are required"},
		{name: "malformed", body: `{"title":`, want: "invalid JSON body"},
		{name: "wrong type", body: `{"title":1,"match_js":"m","code_js":"c"}`, want: "invalid JSON body"},
		{name: "empty", body: "", want: "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := do(t, h, http.MethodPost, "/api/bookmarklets", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, decode(t, w)["error"])
		})
	}

	assert.Len(t, list(t, h).Items, 3)
}

func TestUpdateItem(t *testing.T) {
	t.Parallel()

	h := New(setupService(t)).Handler()
	body := `{"title":"Renamed","match_js":"function (u) { return false; }","code_js":"function () { go(); }"}`

	w := do(t, h, http.MethodPut, "/api/bookmarklets/2", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["ok"])

	lr := list(t, h)
	assert.Equal(t, "Renamed", lr.Items[1].Title)
	assert.Equal(t, 1, lr.Items[1].Position)

	tests := []struct {
		name string
		path string
		body string
		code int
		want string
	}{
		{name: "missing id", path: "/api/bookmarklets/99", body: body, code: http.StatusNotFound, want: "not found"},
		{name: "non integer id", path: "/api/bookmarklets/abc", body: body, code: http.StatusNotFound, want: "not found"},
		{name: "negative id", path: "/api/bookmarklets/-1", body: body, code: http.StatusNotFound, want: "not found"},
		{name: "invalid body", path: "/api/bookmarklets/1", body: `{"title":"x","match_js":"","code_js":"c"}`, code: http.StatusBadRequest, want: "title, match_js, code_js are required"},
		{name: "malformed body", path: "/api/bookmarklets/1", body: `[`, code: http.StatusBadRequest, want: "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.want, decode(t, w)["error"])
		})
	}

	assert.Equal(t, lr, list(t, h), "failed updates must not change the store")
}

func TestDeleteItem(t *testing.T) {
	t.Parallel()

	h := New(setupService(t)).Handler()

	w := do(t, h, http.MethodDelete, "/api/bookmarklets/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["ok"])

	lr := list(t, h)
	require.Len(t, lr.Items, 2)
	assert.Equal(t, []int{0, 2}, []int{lr.Items[0].Position, lr.Items[1].Position})

	for _, path := range []string{"/api/bookmarklets/2", "/api/bookmarklets/nope"} {
		w := do(t, h, http.MethodDelete, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "not found", decode(t, w)["error"])
	}
}

func TestSelectorEndpoint(t *testing.T) {
	t.Parallel()

	h := New(setupService(t)).Handler()

	w := do(t, h, http.MethodGet, "/api/selector", "")
	require.Equal(t, http.StatusOK, w.Code)

	var p service.Payload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.False(t, p.Minified)
	assert.Contains(t, p.JavaScript, `"Example.com Only"`)
	assert.Equal(t, "javascript:"+p.JavaScript, p.BookmarkletURL)
}

func TestSelectorEndpointMinifyError(t *testing.T) {
	t.Parallel()

	m := minifierFn(func(context.Context, string) (string, error) {
		return "", fmt.Errorf("%w: Unexpected token", packager.ErrMinify)
	})

	h := New(setupService(t, service.WithMinifier(m))).Handler()
	w := do(t, h, http.MethodGet, "/api/selector", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["error"], "Unexpected token")
}

func TestStorageErrors(t *testing.T) {
	t.Parallel()

	h := New(&mockService{}).Handler()

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{method: http.MethodGet, path: "/api/bookmarklets"},
		{method: http.MethodPost, path: "/api/bookmarklets", body: `{"title":"t","match_js":"m","code_js":"c"}`},
		{method: http.MethodPut, path: "/api/bookmarklets/1", body: `{"title":"t","match_js":"m","code_js":"c"}`},
		{method: http.MethodDelete, path: "/api/bookmarklets/1"},
		{method: http.MethodGet, path: "/api/selector"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, errMock.Error(), decode(t, w)["error"])
		})
	}
}

func TestServiceValidationMapsToBadRequest(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		CreateFunc: func(context.Context, *bookmarklet.Item) (int64, error) {
			return 0, fmt.Errorf("%w: empty title", bookmarklet.ErrInvalid)
		},
	}

	w := do(t, New(svc).Handler(), http.MethodPost, "/api/bookmarklets", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, bookmarklet.ErrInvalid.Error(), decode(t, w)["error"])
}

type minifierFn func(ctx context.Context, src string) (string, error)

func (f minifierFn) Minify(ctx context.Context, src string) (string, error) { return f(ctx, src) }
