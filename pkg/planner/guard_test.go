package planner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	allowed := []string{"user", "admin"}

	tests := []struct {
		name    string
		session Session
		want    Decision
	}{
		{
			name:    "missing role redirects to unauthorized",
			session: Session{AccessToken: "tok"},
			want:    RedirectUnauthorized,
		},
		{
			name:    "inactive status redirects to banned",
			session: Session{AccessToken: "tok", Role: "user", Status: 0},
			want:    RedirectBanned,
		},
		{
			name:    "role outside the allow-list redirects to forbidden",
			session: Session{AccessToken: "tok", Role: "guest", Status: StatusActive},
			want:    RedirectForbidden,
		},
		{
			name:    "allowed role renders children",
			session: Session{AccessToken: "tok", Role: "admin", Status: StatusActive},
			want:    Allow,
		},
		{
			name:    "empty session is unauthorized, not banned",
			session: Session{},
			want:    RedirectUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Evaluate(tt.session, allowed))
		})
	}
}

func TestGuardOrdering(t *testing.T) {
	t.Parallel()

	// A banned session with a role outside the allow-list: the standing
	// check fires before the role-membership check.
	session := Session{AccessToken: "tok", Role: "guest", Status: 0}
	require.Equal(t, RedirectBanned, Evaluate(session, []string{"user"}))

	// No role at all short-circuits everything, even with inactive status.
	session = Session{AccessToken: "tok", Status: 0}
	require.Equal(t, RedirectUnauthorized, Evaluate(session, []string{"user"}))
}

func TestGuardCheckReadsStore(t *testing.T) {
	t.Parallel()

	store := NewStore()
	guard := NewGuard(store, "user")

	require.Equal(t, RedirectUnauthorized, guard.Check())

	store.Replace(Session{AccessToken: "tok", Role: "user", Status: StatusActive})
	require.Equal(t, Allow, guard.Check())

	store.Clear()
	require.Equal(t, RedirectUnauthorized, guard.Check())
}

func TestShouldSkipSignIn(t *testing.T) {
	t.Parallel()

	markers := NewMemoryMarkers()
	require.False(t, ShouldSkipSignIn(markers))

	require.NoError(t, markers.Set(MarkerSignedIn, "true"))
	require.True(t, ShouldSkipSignIn(markers))

	require.NoError(t, markers.Delete(MarkerSignedIn))
	require.False(t, ShouldSkipSignIn(markers))
}
