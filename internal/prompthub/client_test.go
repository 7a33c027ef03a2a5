package prompthub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHub is a minimal in-memory prompt service.
type fakeHub struct {
	templates map[string]RemoteTemplate
	pushes    int
}

func (h *fakeHub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/prompts", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret", r.Header.Get("X-API-Key"))
		var list []RemoteTemplate
		for _, tpl := range h.templates {
			list = append(list, tpl)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"templates": list})
	})
	mux.HandleFunc("/api/prompts/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/api/prompts/"):]
		switch r.Method {
		case http.MethodGet:
			tpl, ok := h.templates[name]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(tpl)
		case http.MethodPost:
			var req pushRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			tpl := req.Template
			tpl.Version = h.templates[name].Version + 1
			h.templates[name] = tpl
			h.pushes++
			json.NewEncoder(w).Encode(map[string]int{"version": tpl.Version})
		}
	})
	return mux
}

func newFakeHub(t *testing.T) (*fakeHub, *Client) {
	h := &fakeHub{templates: map[string]RemoteTemplate{}}
	srv := httptest.NewServer(h.handler(t))
	t.Cleanup(srv.Close)
	return h, NewClient(srv.URL, "secret")
}

func TestPushAndGet(t *testing.T) {
	_, c := newFakeHub(t)
	ctx := context.Background()

	tpl := Template{Name: "qa_answer", Text: "Answer: {question}", Tags: []string{"chat"}}
	version, err := c.Push(ctx, tpl, "initial import")
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	got, err := c.Get(ctx, "qa_answer")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tpl.Hash(), got.ContentHash)

	missing, err := c.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPushAllSkipsUnchanged(t *testing.T) {
	h, c := newFakeHub(t)
	ctx := context.Background()

	a := Template{Name: "a", Text: "alpha"}
	b := Template{Name: "b", Text: "beta"}

	results, err := c.PushAll(ctx, []Template{a, b}, "first")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Skipped)
	assert.False(t, results[1].Skipped)
	assert.Equal(t, 2, h.pushes)

	// Second push: only the changed template goes up.
	b.Text = "beta v2"
	results, err = c.PushAll(ctx, []Template{a, b}, "update b")
	require.NoError(t, err)
	assert.True(t, results[0].Skipped)
	assert.False(t, results[1].Skipped)
	assert.Equal(t, 2, results[1].Version)
	assert.Equal(t, 3, h.pushes)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"templates":[]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", WithRetry(3, time.Millisecond, 2*time.Millisecond))
	_, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
