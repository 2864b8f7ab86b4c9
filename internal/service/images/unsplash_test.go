package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchReturnsFirstResult(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"urls":{"regular":"https://images.example/lisbon.jpg"}}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	got := c.Search(context.Background(), "Lisbon")
	require.NotNil(t, got)
	require.Equal(t, "https://images.example/lisbon.jpg", *got)
	require.Equal(t, "Client-ID test-key", gotAuth)
	require.Equal(t, "Lisbon travel", gotQuery)
}

func TestSearchWithoutCredential(t *testing.T) {
	c := NewClient("")
	require.Nil(t, c.Search(context.Background(), "Lisbon"))
}

func TestSearchSwallowsFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"results": not-json`))
			},
		},
		{
			name: "no results",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"results":[]}`))
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			c := NewClientWithBaseURL("test-key", srv.URL)
			require.Nil(t, c.Search(context.Background(), "Lisbon"))
		})
	}
}

func TestSearchSwallowsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	require.Nil(t, c.Search(context.Background(), "Lisbon"))
}
