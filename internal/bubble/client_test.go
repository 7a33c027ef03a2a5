package bubble

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTable serves a paginated table the way the Data API does and
// counts page requests.
func fakeTable(t *testing.T, total int) (*httptest.Server, *int) {
	t.Helper()
	calls := new(int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"body":{"status":"ERROR","message":"bad token"}}`)
			return
		}
		cursor, _ := strconv.Atoi(r.URL.Query().Get("cursor"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		n := total - cursor
		if n > limit {
			n = limit
		}
		if n < 0 {
			n = 0
		}

		results := ""
		for i := 0; i < n; i++ {
			if i > 0 {
				results += ","
			}
			results += fmt.Sprintf(`{"_id":"rec-%d","Created Date":"2024-05-01T10:00:00Z","name_text":"record %d"}`, cursor+i, cursor+i)
		}
		fmt.Fprintf(w, `{"response":{"results":[%s],"cursor":%d,"count":%d,"remaining":%d}}`,
			results, cursor, n, total-cursor-n)
	}))
	return srv, calls
}

func TestListDecodesEnvelope(t *testing.T) {
	srv, _ := fakeTable(t, 7)
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", WithPageSize(5))
	page, err := c.List(context.Background(), "event", 0)
	require.NoError(t, err)

	assert.Len(t, page.Records, 5)
	assert.Equal(t, 2, page.Remaining)
	assert.Equal(t, "rec-0", page.Records[0].ID)
	assert.Equal(t, "record 0", page.Records[0].Text("name_text"))
	assert.Equal(t, 2024, page.Records[0].CreatedDate.Year())
}

func TestFetchAllWalksCursor(t *testing.T) {
	srv, _ := fakeTable(t, 23)
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", WithPageSize(10))
	records, err := c.FetchAll(context.Background(), "event")
	require.NoError(t, err)

	require.Len(t, records, 23)
	assert.Equal(t, "rec-0", records[0].ID)
	assert.Equal(t, "rec-22", records[22].ID)
}

func TestFetchSampleStopsEarly(t *testing.T) {
	srv, calls := fakeTable(t, 100)
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", WithPageSize(10))
	records, err := c.FetchSample(context.Background(), "event", 25)
	require.NoError(t, err)

	require.Len(t, records, 25)
	assert.Equal(t, "rec-24", records[24].ID)
	// 25 records at 10 per page: three pages, not the whole table.
	assert.Equal(t, 3, *calls)

	// A sample larger than the table returns everything there is.
	records, err = c.FetchSample(context.Background(), "event", 500)
	require.NoError(t, err)
	assert.Len(t, records, 100)

	records, err = c.FetchSample(context.Background(), "event", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchAllStopsOnEmptyPage(t *testing.T) {
	// remaining stays positive forever but results are empty; the walk
	// must still terminate.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":{"results":[],"cursor":0,"count":0,"remaining":999}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token")
	records, err := c.FetchAll(context.Background(), "event")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRetryOnServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"response":{"results":[{"_id":"a"}],"cursor":0,"count":1,"remaining":0}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token",
		WithRetry(4, time.Millisecond, 2*time.Millisecond))
	page, err := c.List(context.Background(), "event", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, page.Records, 1)
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"body":{"status":"ERROR","message":"bad token"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wrong", WithRetry(4, time.Millisecond, 2*time.Millisecond))
	_, err := c.List(context.Background(), "event", 0)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "bad token")
}

func TestDiscoverTablesSkipsInaccessible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/event":
			fmt.Fprint(w, `{"response":{"results":[{"_id":"e1","title_text":"Ceremony"}],"cursor":0,"count":1,"remaining":41}}`)
		case "/venue":
			fmt.Fprint(w, `{"response":{"results":[{"_id":"v1","name_text":"Uluwatu"}],"cursor":0,"count":1,"remaining":3}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"body":{"status":"ERROR","message":"unknown type"}}`)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token")
	tables, err := c.DiscoverTables(context.Background(), []string{"event", "venue", "secrets"})
	require.NoError(t, err)

	require.Len(t, tables, 2)
	assert.Equal(t, "event", tables[0].Name)
	assert.Equal(t, 42, tables[0].RecordEstimate)
	assert.Equal(t, []string{"title_text"}, tables[0].SampleFields)
	assert.Equal(t, "venue", tables[1].Name)
}
