package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "rashset/pkg/errors"
	"rashset/pkg/logger"
)

func newTestServer(t *testing.T, tokenBody string) (*httptest.Server, *int) {
	t.Helper()
	tokenCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		assert.Equal(t, http.MethodPost, r.Method)
		id, secret, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", id)
		assert.Equal(t, "client-secret", secret)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "someone", r.PostForm.Get("username"))
		assert.Equal(t, "hunter2", r.PostForm.Get("password"))
		assert.Equal(t, "rashset-test/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(tokenBody))
	})
	mux.HandleFunc("/r/all/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "rashset-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "lupus rash", r.URL.Query().Get("q"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "1", r.URL.Query().Get("restrict_sr"))
		w.Write([]byte(`{"kind":"Listing","data":{"children":[
			{"kind":"t3","data":{"url":"https://i.redd.it/a.jpg"}},
			{"kind":"t3","data":{"url":""}},
			{"kind":"t3","data":{"url":"https://i.imgur.com/b.png"}}
		]}}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &tokenCalls
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(Options{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Username:     "someone",
		Password:     "hunter2",
		UserAgent:    "rashset-test/1.0",
		TokenURL:     server.URL + "/api/v1/access_token",
		APIBase:      server.URL,
	}, nil, logger.NewTestLogger())
}

func TestSearch(t *testing.T) {
	server, tokenCalls := newTestServer(t, `{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`)
	c := newTestClient(server)

	urls, err := c.Search(context.Background(), "lupus rash")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://i.redd.it/a.jpg", "https://i.imgur.com/b.png"}, urls)

	_, err = c.Search(context.Background(), "lupus rash")
	require.NoError(t, err)
	assert.Equal(t, 2, *tokenCalls, "each search starts a fresh session")
	assert.Equal(t, "Reddit", c.Name())
}

func TestSearchInvalidGrant(t *testing.T) {
	server, _ := newTestServer(t, `{"error":"invalid_grant"}`)
	c := newTestClient(server)

	_, err := c.Search(context.Background(), "lupus rash")
	require.Error(t, err)
	assert.True(t, errs.IsAdapter(err))
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestSearchTokenRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient(Options{TokenURL: server.URL, APIBase: server.URL}, nil, logger.NewTestLogger())
	_, err := c.Search(context.Background(), "q")

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.KindAdapter, e.Kind)
	assert.Equal(t, http.StatusUnauthorized, e.Code)
}

func TestSearchURL(t *testing.T) {
	c := NewClient(Options{Subreddit: "lupus", Limit: 500}, nil, logger.NewTestLogger())
	assert.Equal(t,
		"https://oauth.reddit.com/r/lupus/search?limit=100&q=malar+rash&raw_json=1&restrict_sr=1",
		c.SearchURL("malar rash"))

	c = NewClient(Options{}, nil, logger.NewTestLogger())
	assert.Equal(t,
		"https://oauth.reddit.com/r/all/search?limit=50&q=x&raw_json=1&restrict_sr=1",
		c.SearchURL("x"))
}
