package planner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRefresherMergesOntoPriorSession(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/users/refresh/", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		// No email in the payload: the prior one must survive.
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"accessToken":"tok-2","role":"user","status":1,
			"fullName":"Dana Dev","userId":"u-1"}}`))
	}))
	defer server.Close()

	store := NewStore()
	store.Replace(Session{
		AccessToken: "tok-1",
		Role:        "user",
		Status:      StatusActive,
		FullName:    "Dana Dev",
		UserID:      "u-1",
		Email:       "dana@example.com",
	})
	markers := NewMemoryMarkers()

	refresher := NewRefresher(server.URL, server.Client(), store, markers)
	token, err := refresher.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-2", token)

	session := store.Get()
	require.Equal(t, "tok-2", session.AccessToken)
	require.Equal(t, "dana@example.com", session.Email, "email absent from response must be retained")
	require.True(t, session.IsAuthenticated())
}

func TestRefresherAuthorizationFailureClearsMarkers(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"UNAUTHORIZED","message":"Invalid or expired token"}}`))
	}))
	defer server.Close()

	store := NewStore()
	store.Replace(Session{AccessToken: "tok-1", Role: "user", Status: StatusActive})
	markers := NewMemoryMarkers()
	require.NoError(t, markers.Set(MarkerSignedIn, "true"))
	require.NoError(t, markers.Set(MarkerLastProject, "p-42"))
	require.NoError(t, markers.Set(MarkerPersist, "true"))

	refresher := NewRefresher(server.URL, server.Client(), store, markers)
	_, err := refresher.Refresh(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)

	require.Empty(t, markers.Get(MarkerSignedIn))
	require.Empty(t, markers.Get(MarkerLastProject))
	require.Equal(t, "true", markers.Get(MarkerPersist), "persist flag is not touched by refresh failure")

	// The session is not cleared here; that decision belongs to the caller.
	require.Equal(t, "tok-1", store.Get().AccessToken)
}

func TestRefresherServerFailureLeavesMarkers(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := NewStore()
	markers := NewMemoryMarkers()
	require.NoError(t, markers.Set(MarkerSignedIn, "true"))
	require.NoError(t, markers.Set(MarkerLastProject, "p-42"))

	refresher := NewRefresher(server.URL, server.Client(), store, markers)
	_, err := refresher.Refresh(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnauthorized)

	require.Equal(t, "true", markers.Get(MarkerSignedIn))
	require.Equal(t, "p-42", markers.Get(MarkerLastProject))
}

func TestRefresherNetworkFailureLeavesMarkers(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Refused connection.

	store := NewStore()
	markers := NewMemoryMarkers()
	require.NoError(t, markers.Set(MarkerSignedIn, "true"))

	refresher := NewRefresher(server.URL, &http.Client{}, store, markers)
	_, err := refresher.Refresh(context.Background())
	require.Error(t, err)

	require.Equal(t, "true", markers.Get(MarkerSignedIn))
	require.Empty(t, store.Get().AccessToken)
}
