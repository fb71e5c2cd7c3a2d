package planner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRefresher counts invocations and optionally rotates the store's token.
type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	token string
	err   error
	store *Store
}

func (f *fakeRefresher) Refresh(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.store != nil {
		session := f.store.Get()
		session.AccessToken = f.token
		f.store.Replace(session)
	}
	return f.token, nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newGatewayClient(store *Store, refresher sessionRefresher) *http.Client {
	return &http.Client{Transport: NewGateway(nil, store, refresher)}
}

func TestGatewayAttachesBearer(t *testing.T) {
	t.Parallel()

	t.Run("attaches token when present and no explicit header", func(t *testing.T) {
		t.Parallel()

		var seen string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("Authorization")
		}))
		defer server.Close()

		store := NewStore()
		store.Replace(Session{AccessToken: "tok-1", Role: "user", Status: StatusActive})

		client := newGatewayClient(store, &fakeRefresher{})
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		require.Equal(t, "Bearer tok-1", seen)
	})

	t.Run("leaves requests alone when no token is present", func(t *testing.T) {
		t.Parallel()

		var seen string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("Authorization")
		}))
		defer server.Close()

		client := newGatewayClient(NewStore(), &fakeRefresher{})
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		require.Empty(t, seen)
	})

	t.Run("does not override an explicit header", func(t *testing.T) {
		t.Parallel()

		var seen string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("Authorization")
		}))
		defer server.Close()

		store := NewStore()
		store.Replace(Session{AccessToken: "tok-1", Role: "user", Status: StatusActive})

		client := newGatewayClient(store, &fakeRefresher{})
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer custom")

		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		require.Equal(t, "Bearer custom", seen)
	})
}

func TestGatewayRetryOnce(t *testing.T) {
	t.Parallel()

	t.Run("retries exactly once with the refreshed token", func(t *testing.T) {
		t.Parallel()

		var tokens []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokens = append(tokens, r.Header.Get("Authorization"))
			if len(tokens) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		store := NewStore()
		store.Replace(Session{AccessToken: "stale", Role: "user", Status: StatusActive})
		refresher := &fakeRefresher{token: "fresh", store: store}

		client := newGatewayClient(store, refresher)
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, 1, refresher.callCount())
		require.Equal(t, []string{"Bearer stale", "Bearer fresh"}, tokens)
	})

	t.Run("second 401 propagates without another refresh", func(t *testing.T) {
		t.Parallel()

		var hits int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		store := NewStore()
		store.Replace(Session{AccessToken: "stale", Role: "user", Status: StatusActive})
		refresher := &fakeRefresher{token: "fresh", store: store}

		client := newGatewayClient(store, refresher)
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, 2, hits)
		require.Equal(t, 1, refresher.callCount())
	})

	t.Run("refresh failure propagates and the request is not resent", func(t *testing.T) {
		t.Parallel()

		var hits int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		store := NewStore()
		store.Replace(Session{AccessToken: "stale", Role: "user", Status: StatusActive})
		refreshErr := errors.New("refresh credential revoked")
		refresher := &fakeRefresher{err: refreshErr, store: store}

		client := newGatewayClient(store, refresher)
		_, err := client.Get(server.URL) //nolint:bodyclose
		require.ErrorIs(t, err, refreshErr)
		require.Equal(t, 1, hits)
		require.Equal(t, 1, refresher.callCount())
	})

	t.Run("non-401 failures propagate without refresh", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		store := NewStore()
		store.Replace(Session{AccessToken: "tok", Role: "user", Status: StatusActive})
		refresher := &fakeRefresher{token: "fresh", store: store}

		client := newGatewayClient(store, refresher)
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Zero(t, refresher.callCount())
	})
}

// Concurrent expired requests each trigger their own refresh. That is the
// intended behavior: there is no single-flight coalescing.
func TestGatewayConcurrentRefreshesAreNotCoalesced(t *testing.T) {
	t.Parallel()

	const concurrency = 5

	var unauthorized atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer stale" {
			unauthorized.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := NewStore()
	store.Replace(Session{AccessToken: "stale", Role: "user", Status: StatusActive})
	refresher := &fakeRefresher{token: "fresh", store: store}

	client := newGatewayClient(store, refresher)

	var wg sync.WaitGroup
	errs := make([]error, concurrency)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := client.Get(server.URL)
			if err == nil {
				resp.Body.Close()
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int(unauthorized.Load()), refresher.callCount())
}

func TestGatewayReplaysRequestBody(t *testing.T) {
	t.Parallel()

	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		bodies = append(bodies, string(buf[:n]))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := NewStore()
	store.Replace(Session{AccessToken: "stale", Role: "user", Status: StatusActive})
	refresher := &fakeRefresher{token: "fresh", store: store}

	client := newGatewayClient(store, refresher)
	resp, err := client.Post(server.URL, "application/json", strings.NewReader(`{"name":"demo"}`))
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{`{"name":"demo"}`, `{"name":"demo"}`}, bodies)
}
