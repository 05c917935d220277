package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/lector/pkg/apperr"
)

func TestFetchSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("<html><body><p>hello</p></body></html>"))
	}))
	defer srv.Close()

	body, err := New(Options{}, nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "<p>hello</p>")
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Contains(t, gotAccept, "text/html")
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		opts    Options
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "blocked", http.StatusForbidden)
			},
		},
		{
			name: "body over limit",
			opts: Options{MaxBodyBytes: 16},
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				// Flush first so no Content-Length is sent and the reader hits the cap.
				w.(http.Flusher).Flush()
				_, _ = w.Write([]byte(strings.Repeat("x", 64)))
			},
		},
		{
			name: "content-length over limit",
			opts: Options{MaxBodyBytes: 16},
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("y", 64)))
			},
		},
		{
			name: "timeout",
			opts: Options{Timeout: 50 * time.Millisecond},
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(time.Second):
				case <-r.Context().Done():
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := New(tt.opts, nil).Fetch(context.Background(), srv.URL)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.FetchFailed), "got %v", err)
		})
	}
}

func TestFetchExactlyAtLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("z", 16)))
	}))
	defer srv.Close()

	body, err := New(Options{MaxBodyBytes: 16}, nil).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, body, 16)
}

func TestFetchBadURL(t *testing.T) {
	_, err := New(Options{}, nil).Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.FetchFailed))
}
